// Package memory provides an in-memory storage.KV used by tests and
// ephemeral runs.
package memory

import (
	"context"
	"sort"
	"sync"
)

// KV is a map-backed key-value store safe for concurrent use
type KV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty in-memory store
func New() *KV {
	return &KV{data: make(map[string][]byte)}
}

// Get returns the payload stored under key
func (s *KV) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	return cp, true, nil
}

// Put stores the payload under key
func (s *KV) Put(_ context.Context, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	s.data[key] = cp
	return nil
}

// Delete removes the key
func (s *KV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Keys returns all stored keys
func (s *KV) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
