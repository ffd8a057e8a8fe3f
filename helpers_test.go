package nodeflow

import (
	"context"
	"log/slog"
	"sync"
)

// recordingHandler is a minimal slog.Handler that just records log records.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

func (h *recordingHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(name string) slog.Handler       { return h }

// messages returns the messages logged at level.
func (h *recordingHandler) messages(level slog.Level) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, r := range h.records {
		if r.Level == level {
			out = append(out, r.Message)
		}
	}
	return out
}

func (h *recordingHandler) attrs(message string) map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.records {
		if r.Message != message {
			continue
		}
		m := make(map[string]any)
		r.Attrs(func(a slog.Attr) bool {
			m[a.Key] = a.Value.Any()
			return true
		})
		return m
	}
	return nil
}

func newRecordingLogger() (*slog.Logger, *recordingHandler) {
	h := &recordingHandler{}
	return slog.New(h), h
}

// recordNode appends its label to shared["order"] in Post and returns action.
type recordNode struct {
	*BaseNode
	label  string
	action Action
}

func newRecordNode(label string, action Action, opts ...Option) *recordNode {
	return &recordNode{BaseNode: NewNode(append([]Option{WithName(label)}, opts...)...), label: label, action: action}
}

func (n *recordNode) Post(ctx context.Context, shared *Shared, _, _ any) (Action, error) {
	shared.Append("order", n.label)
	return n.action, nil
}

func order(shared *Shared) []any {
	v, _ := GetAs[[]any](shared, "order")
	return v
}
