package logger

import (
	"sync"
)

// DefaultBacklogCapacity matches the viewer's expectation of "the last
// thousand lines".
const DefaultBacklogCapacity = 1000

// subscriberBuffer bounds how far a slow observer may lag before entries
// are dropped for it.
const subscriberBuffer = 256

// Broadcaster owns the bounded backlog and the observer fan-out set. A
// single lock serializes publish, subscribe and unsubscribe so an observer
// never misses an entry between its backlog snapshot and its first live
// delivery, and never receives one twice.
type Broadcaster struct {
	mu       sync.Mutex
	backlog  []LogEntry
	capacity int
	subs     map[*Subscription]struct{}
}

// Subscription is one observer's handle on the broadcast stream.
type Subscription struct {
	ch chan LogEntry
}

// C yields entries published after the subscription was created.
func (s *Subscription) C() <-chan LogEntry {
	return s.ch
}

func NewBroadcaster(capacity int) *Broadcaster {
	if capacity <= 0 {
		capacity = DefaultBacklogCapacity
	}
	return &Broadcaster{
		backlog:  make([]LogEntry, 0, capacity),
		capacity: capacity,
		subs:     make(map[*Subscription]struct{}),
	}
}

// Publish appends the entry to the backlog, evicting the oldest once over
// capacity, and fans it out to every subscriber. Delivery is best-effort:
// a subscriber that cannot keep up loses entries rather than blocking the
// caller, since every log call in the process funnels through here.
func (b *Broadcaster) Publish(entry LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.backlog) >= b.capacity {
		n := copy(b.backlog, b.backlog[1:])
		b.backlog = b.backlog[:n]
	}
	b.backlog = append(b.backlog, entry)

	for sub := range b.subs {
		select {
		case sub.ch <- entry:
		default:
			// Slow or dead observer; the entry is dropped for it.
		}
	}
}

// Subscribe registers a new observer and returns its subscription together
// with a snapshot of the current backlog. The snapshot and the channel are
// consistent: entries published after this call appear on the channel and
// not in the snapshot.
func (b *Broadcaster) Subscribe() (*Subscription, []LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	snapshot := make([]LogEntry, len(b.backlog))
	copy(snapshot, b.backlog)

	sub := &Subscription{ch: make(chan LogEntry, subscriberBuffer)}
	b.subs[sub] = struct{}{}

	return sub, snapshot
}

// Unsubscribe removes the observer and closes its channel. Idempotent.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
}

// ObserverCount returns the current fan-out set size.
func (b *Broadcaster) ObserverCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// BacklogLen returns the number of retained entries.
func (b *Broadcaster) BacklogLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.backlog)
}
