// Package throttle tracks failed login attempts per client key and blocks
// further attempts once a threshold is crossed inside a sliding window.
// State is in-process only; it does not survive restarts and is not shared
// across instances.
package throttle

import (
	"sync"
	"time"
)

type record struct {
	count       int
	windowStart time.Time
}

// Throttle is safe for concurrent use. All mutations happen under a single
// lock so concurrent failures from the same client key never lose an
// increment.
type Throttle struct {
	mu      sync.Mutex
	records map[string]*record

	maxAttempts   int
	window        time.Duration
	blockDuration time.Duration

	nowFunc func() time.Time // injectable clock for testing
}

func New(maxAttempts int, window, blockDuration time.Duration) *Throttle {
	return &Throttle{
		records:       make(map[string]*record),
		maxAttempts:   maxAttempts,
		window:        window,
		blockDuration: blockDuration,
		nowFunc:       time.Now,
	}
}

// Allow reports whether the client key may attempt a login. It is evaluated
// before credential verification runs. A record whose window has elapsed is
// dropped on the spot.
func (t *Throttle) Allow(clientKey string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[clientKey]
	if !ok {
		return true
	}

	if t.nowFunc().Sub(rec.windowStart) > t.window {
		delete(t.records, clientKey)
		return true
	}

	return rec.count < t.maxAttempts
}

// RecordFailure notes a failed attempt and returns the updated count.
// A failure after the window has elapsed starts a fresh window with
// count=1 rather than continuing the old one.
func (t *Throttle) RecordFailure(clientKey string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.nowFunc()

	rec, ok := t.records[clientKey]
	if !ok || now.Sub(rec.windowStart) > t.window {
		rec = &record{count: 1, windowStart: now}
		t.records[clientKey] = rec
	} else {
		rec.count++
	}

	t.sweepLocked(now)

	return rec.count
}

// RecordSuccess clears the failure record for the client key outright.
func (t *Throttle) RecordSuccess(clientKey string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.records, clientKey)
	t.sweepLocked(t.nowFunc())
}

// FailedCount returns the current failure count for the client key.
func (t *Throttle) FailedCount(clientKey string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[clientKey]
	if !ok {
		return 0
	}
	return rec.count
}

// RemainingBlockTime returns how long the client key stays blocked,
// max(0, windowStart+blockDuration-now). Zero means not blocked.
func (t *Throttle) RemainingBlockTime(clientKey string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[clientKey]
	if !ok {
		return 0
	}

	remaining := rec.windowStart.Add(t.blockDuration).Sub(t.nowFunc())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MaxAttempts exposes the configured threshold for user-facing messages.
func (t *Throttle) MaxAttempts() int {
	return t.maxAttempts
}

// sweepLocked drops every record whose window has elapsed. Called on every
// write so the map stays bounded without a background goroutine.
func (t *Throttle) sweepLocked(now time.Time) {
	for key, rec := range t.records {
		if now.Sub(rec.windowStart) > t.window {
			delete(t.records, key)
		}
	}
}
