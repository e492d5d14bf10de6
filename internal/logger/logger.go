// Package logger provides the application-wide structured logger and the
// broadcast service that streams every entry to authenticated websocket
// observers.
package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

type Fields map[string]any

const (
	CategoryService = "service"
	CategoryRoute   = "route"
)

// LogEntry is the wire shape observers receive. Immutable once created.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Context   Fields `json:"context,omitempty"`
	Service   string `json:"service,omitempty"`
	Category  string `json:"category"`
}

// Emitter receives every entry the logger writes. Publish must not block.
type Emitter interface {
	Publish(entry LogEntry)
}

type Logger struct {
	out   *slog.Logger
	level slog.Level

	mu      sync.RWMutex
	emitter Emitter

	nowFunc func() time.Time
}

// New builds a logger writing to w. format is "text" or "json"; level is
// one of error, warn, info, debug.
func New(w io.Writer, level, format string) *Logger {
	lvl := parseLevel(level)

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		out:     slog.New(handler),
		level:   lvl,
		nowFunc: time.Now,
	}
}

// SetEmitter wires the broadcast bus in. Called once during startup, but
// guarded anyway since log calls may already be in flight.
func (l *Logger) SetEmitter(e Emitter) {
	l.mu.Lock()
	l.emitter = e
	l.mu.Unlock()
}

func (l *Logger) Error(msg string, fields Fields, service string) {
	l.log(slog.LevelError, CategoryService, service, msg, fields)
}

func (l *Logger) Warn(msg string, fields Fields, service string) {
	l.log(slog.LevelWarn, CategoryService, service, msg, fields)
}

func (l *Logger) Info(msg string, fields Fields, service string) {
	l.log(slog.LevelInfo, CategoryService, service, msg, fields)
}

func (l *Logger) Debug(msg string, fields Fields, service string) {
	l.log(slog.LevelDebug, CategoryService, service, msg, fields)
}

// Route logs a request-lifecycle entry under the "route" category so the
// log viewer can separate traffic logs from service logs.
func (l *Logger) Route(level string, msg string, fields Fields) {
	l.log(parseLevel(level), CategoryRoute, "HTTP", msg, fields)
}

func (l *Logger) log(level slog.Level, category, service, msg string, fields Fields) {
	if level < l.level {
		return
	}

	entry := LogEntry{
		Timestamp: l.nowFunc().Format(time.RFC3339),
		Level:     levelName(level),
		Message:   msg,
		Context:   fields,
		Service:   service,
		Category:  category,
	}

	l.mu.RLock()
	emitter := l.emitter
	l.mu.RUnlock()

	if emitter != nil {
		emitter.Publish(entry)
	}

	attrs := make([]any, 0, 2+len(fields))
	if service != "" {
		attrs = append(attrs, slog.String("service", service))
	}
	attrs = append(attrs, slog.String("category", category))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}

	l.out.Log(context.Background(), level, msg, attrs...)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "error":
		return slog.LevelError
	case "warn":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

func levelName(level slog.Level) string {
	switch level {
	case slog.LevelError:
		return "ERROR"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelDebug:
		return "DEBUG"
	default:
		return "INFO"
	}
}
