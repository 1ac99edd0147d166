package mocks

import (
	"context"
	"sync"

	"github.com/gautamkumarcode/propmize-admin/domain"
)

// MockNotificationAPI implements domain.NotificationAPI interface for testing.
// Calls are recorded so tests can assert on what reached the backend.
type MockNotificationAPI struct {
	ListFunc        func(ctx context.Context) ([]domain.Notification, error)
	MarkReadFunc    func(ctx context.Context, id string) error
	MarkAllReadFunc func(ctx context.Context) error
	DeleteFunc      func(ctx context.Context, id string) error

	mu    sync.Mutex
	calls []string
}

// Compile-time interface compliance verification
var _ domain.NotificationAPI = (*MockNotificationAPI)(nil)

// NewMockNotificationAPI creates a new MockNotificationAPI with default behaviors
func NewMockNotificationAPI() *MockNotificationAPI {
	return &MockNotificationAPI{}
}

func (m *MockNotificationAPI) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

// Calls returns the recorded calls in order, e.g. "list", "read:n1", "read-all", "delete:n1"
func (m *MockNotificationAPI) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// List returns the user's notifications
func (m *MockNotificationAPI) List(ctx context.Context) ([]domain.Notification, error) {
	m.record("list")
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	// Default behavior: empty inbox
	return []domain.Notification{}, nil
}

// MarkRead marks one notification read
func (m *MockNotificationAPI) MarkRead(ctx context.Context, id string) error {
	m.record("read:" + id)
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, id)
	}
	return nil
}

// MarkAllRead marks every notification read
func (m *MockNotificationAPI) MarkAllRead(ctx context.Context) error {
	m.record("read-all")
	if m.MarkAllReadFunc != nil {
		return m.MarkAllReadFunc(ctx)
	}
	return nil
}

// Delete removes one notification
func (m *MockNotificationAPI) Delete(ctx context.Context, id string) error {
	m.record("delete:" + id)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}
