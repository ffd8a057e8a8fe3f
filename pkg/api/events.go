package api

import "time"

// EventType identifies a run history event.
type EventType string

const (
	EventFlowStarted   EventType = "flow.started"
	EventFlowCompleted EventType = "flow.completed"
	EventFlowFailed    EventType = "flow.failed"

	EventNodeStarted   EventType = "node.started"
	EventNodeCompleted EventType = "node.completed"
	EventNodeFailed    EventType = "node.failed"
	EventNodeRetry     EventType = "node.retry"
)

// RunEvent is a minimal append-only history record for audit/debugging.
// It is intentionally small and stable: no payloads, no shared state.
type RunEvent struct {
	RunID string    `json:"run_id"`
	At    time.Time `json:"at"`
	Type  EventType `json:"type"`

	// Flow is set for flow.* events, Node for node.* events.
	Flow string `json:"flow,omitempty"`
	Node string `json:"node,omitempty"`

	// Step is the 0-based position of the node within its flow walk,
	// or -1 when not applicable.
	Step    int    `json:"step"`
	Attempt int    `json:"attempt,omitempty"`
	Action  Action `json:"action,omitempty"`

	// Small, human-oriented details (e.g. error string). Keep this low-volume.
	Detail string `json:"detail,omitempty"`
}
