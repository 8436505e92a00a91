package recent

import (
	"context"
	"sync"
)

// MemoryStore keeps the list for the lifetime of the process
type MemoryStore struct {
	mu      sync.Mutex
	queries []string
}

func NewMemoryStore(initial ...string) *MemoryStore {
	return &MemoryStore{queries: initial}
}

func (s *MemoryStore) Load(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...), nil
}

func (s *MemoryStore) Save(_ context.Context, queries []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append([]string(nil), queries...)
	return nil
}
