package history

import (
	"context"
	"sync"
	"time"

	"github.com/petrijr/nodeflow/pkg/api"
)

// MemoryStore keeps events in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string][]api.RunEvent
	order  []string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string][]api.RunEvent)}
}

func (s *MemoryStore) Append(ctx context.Context, ev api.RunEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.events[ev.RunID]; !seen {
		s.order = append(s.order, ev.RunID)
	}
	s.events[ev.RunID] = append(s.events[ev.RunID], ev)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, runID string) ([]api.RunEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	evs := s.events[runID]
	out := make([]api.RunEvent, len(evs))
	copy(out, evs)
	return out, nil
}

func (s *MemoryStore) Runs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out, nil
}
