package kv

import (
	"context"
	"sync"
)

// MemoryStore keeps values in memory. Used by tests and dry runs.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
	// Writes counts successful Set calls.
	Writes int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Get returns a copy of the value for key.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	s.Writes++
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
