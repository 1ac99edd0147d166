package storage

import (
	"context"
	"sync"

	"github.com/gautamkumarcode/propmize-admin/domain"
)

// MemoryTokenStorage implements domain.TokenStorage in process memory.
// Used by the "memory" storage driver for local development.
type MemoryTokenStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryTokenStorage creates an empty in-memory token storage
func NewMemoryTokenStorage() *MemoryTokenStorage {
	return &MemoryTokenStorage{values: make(map[string]string)}
}

// Get implements domain.TokenStorage
func (s *MemoryTokenStorage) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

// Set implements domain.TokenStorage
func (s *MemoryTokenStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Remove implements domain.TokenStorage
func (s *MemoryTokenStorage) Remove(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

var _ domain.TokenStorage = (*MemoryTokenStorage)(nil)
