package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// LogRecord is one captured log call with its logger-level and call-site
// attributes merged
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// recordSink is shared by a handler and every handler derived from it
type recordSink struct {
	mu      sync.Mutex
	records []LogRecord
}

// BufferedSlogHandler keeps every record in memory so tests can assert on
// what a component logged
type BufferedSlogHandler struct {
	sink  *recordSink
	attrs []slog.Attr
	group string
	t     *testing.T
}

// NewBufferedSlogHandler creates an empty handler; records are echoed to t.Log
func NewBufferedSlogHandler(t *testing.T) *BufferedSlogHandler {
	return &BufferedSlogHandler{sink: &recordSink{}, t: t}
}

// Handle implements slog.Handler
func (h *BufferedSlogHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[h.key(a.Key)] = a.Value.Any()
		return true
	})

	h.sink.mu.Lock()
	h.sink.records = append(h.sink.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	h.sink.mu.Unlock()

	if h.t != nil {
		h.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

// Enabled implements slog.Handler; every level is captured
func (h *BufferedSlogHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// WithAttrs implements slog.Handler. The attributes, "component" among
// them, are stored on every later record.
func (h *BufferedSlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	for i := len(h.attrs); i < len(next.attrs); i++ {
		next.attrs[i].Key = h.key(next.attrs[i].Key)
	}
	return &next
}

// WithGroup implements slog.Handler; grouped keys are stored dotted
func (h *BufferedSlogHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.group = h.key(name)
	return &next
}

func (h *BufferedSlogHandler) key(k string) string {
	if h.group == "" {
		return k
	}
	return h.group + "." + k
}

// GetRecords returns a copy of everything captured so far
func (h *BufferedSlogHandler) GetRecords() []LogRecord {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()

	records := make([]LogRecord, len(h.sink.records))
	copy(records, h.sink.records)
	return records
}

// NewTestLogger creates a logger backed by a fresh BufferedSlogHandler
func NewTestLogger(t *testing.T) (*slog.Logger, *BufferedSlogHandler) {
	handler := NewBufferedSlogHandler(t)
	return slog.New(handler), handler
}

// AssertLogContains fails unless a record at level contains message
func AssertLogContains(t *testing.T, handler *BufferedSlogHandler, level slog.Level, message string) {
	t.Helper()

	var seen []string
	for _, r := range handler.GetRecords() {
		if r.Level != level {
			continue
		}
		if strings.Contains(r.Message, message) {
			return
		}
		seen = append(seen, r.Message)
	}
	assert.Failf(t, "log message not found", "no %s record contains %q; captured %q", level, message, seen)
}

// AssertLogAttr fails unless some record carries key=value
func AssertLogAttr(t *testing.T, handler *BufferedSlogHandler, key string, value any) {
	t.Helper()

	for _, r := range handler.GetRecords() {
		if got, ok := r.Attrs[key]; ok && got == value {
			return
		}
	}
	assert.Failf(t, "log attribute not found", "no record carries %s=%v", key, value)
}
