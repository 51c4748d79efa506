// Package memstore provides an in-memory credential store for tests and
// ephemeral sessions that should not outlive the process.
package memstore

import (
	"context"
	"sync"
)

// Store is a concurrency-safe in-memory credential store.
type Store struct {
	mu      sync.RWMutex
	entries map[string]string
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{entries: make(map[string]string)}
}

func (s *Store) Save(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}

func (s *Store) Load(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.entries[key]
	return value, ok, nil
}

func (s *Store) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Len returns the number of stored entries. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
