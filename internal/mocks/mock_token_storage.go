package mocks

import (
	"context"
	"sync"

	"github.com/gautamkumarcode/propmize-admin/domain"
)

// MockTokenStorage implements domain.TokenStorage interface for testing.
// Without overrides it behaves like an in-memory map.
type MockTokenStorage struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key, value string) error
	RemoveFunc func(ctx context.Context, keys ...string) error

	mu     sync.Mutex
	values map[string]string
}

// Compile-time interface compliance verification
var _ domain.TokenStorage = (*MockTokenStorage)(nil)

// NewMockTokenStorage creates a new MockTokenStorage
func NewMockTokenStorage() *MockTokenStorage {
	return &MockTokenStorage{values: make(map[string]string)}
}

// Get returns the stored value or ""
func (m *MockTokenStorage) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

// Set stores a value
func (m *MockTokenStorage) Set(ctx context.Context, key, value string) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value)
	}
	m.Put(key, value)
	return nil
}

// Remove deletes keys
func (m *MockTokenStorage) Remove(ctx context.Context, keys ...string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, keys...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Put writes directly to the backing map, bypassing SetFunc (test helper)
func (m *MockTokenStorage) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Value reads directly from the backing map (test helper)
func (m *MockTokenStorage) Value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}
