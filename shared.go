package nodeflow

import "sync"

// Shared is the key/value store every node in a run reads from and writes to.
//
// A single *Shared is allocated by the caller for a top-level run and handed
// to every node, nested flows included. The engine never copies it. Each
// operation is synchronised, so parallel branches can use it concurrently;
// read-modify-write sequences should go through Update.
type Shared struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewShared returns an empty Shared store.
func NewShared() *Shared {
	return &Shared{data: make(map[string]any)}
}

// NewSharedFrom returns a Shared store seeded with a copy of m.
func NewSharedFrom(m map[string]any) *Shared {
	s := NewShared()
	for k, v := range m {
		s.data[k] = v
	}
	return s
}

func (s *Shared) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *Shared) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *Shared) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Update atomically replaces the value under key with fn(old, ok) and
// returns the new value.
func (s *Shared) Update(key string, fn func(old any, ok bool) any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.data[key]
	v := fn(old, ok)
	s.data[key] = v
	return v
}

// Append atomically appends v to the []any stored under key.
// A missing or non-slice value starts a new slice.
func (s *Shared) Append(key string, v any) {
	s.Update(key, func(old any, _ bool) any {
		list, _ := old.([]any)
		return append(list, v)
	})
}

// Snapshot returns a shallow copy of the current contents.
func (s *Shared) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

func (s *Shared) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// GetAs returns the value under key if it exists and has type T.
func GetAs[T any](s *Shared, key string) (T, bool) {
	var zero T
	v, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
