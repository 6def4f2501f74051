package store

import (
	"context"
	"sync"
)

// MemoryStore is the reference alias store: a process-wide map with no
// expiry and no durability. Aliases do not survive a restart; the signed
// token remains the only durable representation of a form.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (s *MemoryStore) PutIfAbsent(_ context.Context, alias, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[alias]; exists {
		return false, nil
	}
	s.entries[alias] = token
	return true, nil
}

func (s *MemoryStore) Get(_ context.Context, alias string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.entries[alias]
	return token, ok, nil
}

// Len reports the number of stored aliases.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
