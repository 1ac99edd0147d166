package mocks

import (
	"context"
	"sync"

	"github.com/gautamkumarcode/propmize-admin/domain"
)

// MockNotificationCache implements domain.NotificationCache interface for testing
type MockNotificationCache struct {
	SaveFunc  func(ctx context.Context, userID string, notifications []domain.Notification) error
	LoadFunc  func(ctx context.Context, userID string) ([]domain.Notification, error)
	ClearFunc func(ctx context.Context, userID string) error

	mu   sync.Mutex
	data map[string][]domain.Notification
}

// Compile-time interface compliance verification
var _ domain.NotificationCache = (*MockNotificationCache)(nil)

// NewMockNotificationCache creates a new MockNotificationCache backed by a map
func NewMockNotificationCache() *MockNotificationCache {
	return &MockNotificationCache{data: make(map[string][]domain.Notification)}
}

// Save stores the snapshot for userID
func (m *MockNotificationCache) Save(ctx context.Context, userID string, notifications []domain.Notification) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, userID, notifications)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[userID] = append([]domain.Notification(nil), notifications...)
	return nil
}

// Load returns the stored snapshot for userID
func (m *MockNotificationCache) Load(ctx context.Context, userID string) ([]domain.Notification, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Notification(nil), m.data[userID]...), nil
}

// Clear drops the snapshot for userID
func (m *MockNotificationCache) Clear(ctx context.Context, userID string) error {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, userID)
	return nil
}
