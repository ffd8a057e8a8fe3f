// Package history records an append-only audit trail of flow runs.
//
// History is written by a Recorder observer and only ever read back by
// callers for debugging or auditing. The engine never resumes from it.
package history

import (
	"context"

	"github.com/petrijr/nodeflow/pkg/api"
)

// Store is an append-only history store for run events.
type Store interface {
	// Append stores ev. A zero ev.At is replaced with the current time.
	Append(ctx context.Context, ev api.RunEvent) error
	// List returns the events of one run in append order.
	List(ctx context.Context, runID string) ([]api.RunEvent, error)
	// Runs returns the distinct run IDs in the order they were first seen.
	Runs(ctx context.Context) ([]string, error)
}

// NoopStore discards all events.
type NoopStore struct{}

func (NoopStore) Append(ctx context.Context, ev api.RunEvent) error { return nil }
func (NoopStore) List(ctx context.Context, runID string) ([]api.RunEvent, error) {
	return nil, nil
}
func (NoopStore) Runs(ctx context.Context) ([]string, error) { return nil, nil }
