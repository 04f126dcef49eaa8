package session

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in process memory. State is lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[sessionID][key]
	return value, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, sessionID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.data[sessionID]
	if !ok {
		entries = make(map[string]string)
		s.data[sessionID] = entries
	}
	entries[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.data[sessionID]
	if !ok {
		return nil
	}
	for _, key := range keys {
		delete(entries, key)
	}
	if len(entries) == 0 {
		delete(s.data, sessionID)
	}
	return nil
}
