// Package memory implements an in-process storage.Adapter. Data lives for the
// life of the process; used by tests and ephemeral sessions.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/angelmondragon/shelfplanner/pkg/storage"
)

// Store implements storage.Adapter backed by a map.
type Store struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// New returns an empty in-memory store.
func New() *Store { return &Store{records: make(map[string][]byte)} }

// Read returns a copy of the stored value or storage.ErrNotFound.
func (s *Store) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	value, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Write replaces the value stored at key.
func (s *Store) Write(_ context.Context, key string, value []byte) error {
	buf := make([]byte, len(value))
	copy(buf, value)
	s.mu.Lock()
	s.records[key] = buf
	s.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Keys lists stored keys in lexical order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
