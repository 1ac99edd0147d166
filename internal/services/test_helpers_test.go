package services

import (
	"context"
	"testing"
	"time"

	"github.com/gautamkumarcode/propmize-admin/domain"
	"github.com/gautamkumarcode/propmize-admin/internal/mocks"
)

// testSessionConfig mirrors the default agent deployment
var testSessionConfig = SessionConfig{
	AccessTokenKey:  "accessToken",
	RefreshTokenKey: "refreshToken",
}

// createSessionManagerForTest creates a SessionManager backed by mock storage
func createSessionManagerForTest(t *testing.T, api domain.AuthAPI, cfg SessionConfig) (*SessionManagerImpl, *mocks.MockTokenStorage, *mocks.MockAuditLogger) {
	t.Helper()

	if api == nil {
		api = mocks.NewMockAuthAPI()
	}
	tokens := mocks.NewMockTokenStorage()
	audit := mocks.NewMockAuditLogger()
	return NewSessionManager("client-test", cfg, api, tokens, audit, nil), tokens, audit
}

// createSynchronizerForTest creates an active synchronizer for user u1 holding initial
func createSynchronizerForTest(t *testing.T, initial []domain.Notification) (*NotificationSynchronizer, *mocks.MockNotificationAPI) {
	t.Helper()

	api := mocks.NewMockNotificationAPI()
	api.ListFunc = func(ctx context.Context) ([]domain.Notification, error) {
		return cloneNotifications(initial), nil
	}
	syncer := NewNotificationSynchronizer("client-test", api, nil, mocks.NewMockAuditLogger(), nil)
	if err := syncer.Activate(context.Background(), createTestUser(t)); err != nil {
		t.Fatalf("failed to activate synchronizer: %v", err)
	}
	return syncer, api
}

// createTestUser creates a valid user entity for testing
func createTestUser(t *testing.T) *domain.User {
	t.Helper()

	return &domain.User{
		ID:    "u1",
		Name:  "Asha Verma",
		Phone: "9876543210",
		Role:  string(domain.RoleAgent),
	}
}

func cloneNotifications(in []domain.Notification) []domain.Notification {
	return append([]domain.Notification(nil), in...)
}

func at(minutesAgo int) *time.Time {
	ts := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC).Add(-time.Duration(minutesAgo) * time.Minute)
	return &ts
}

// sampleNotifications returns three unread and one read notification
func sampleNotifications() []domain.Notification {
	return []domain.Notification{
		{ID: "n1", UserID: "u1", Title: "New enquiry", Type: domain.NotificationMessage, CreatedAt: at(30)},
		{ID: "n2", UserID: "u1", Title: "Listing approved", Type: domain.NotificationProperty, CreatedAt: at(10),
			Metadata: domain.Metadata{domain.MetaPropertyID: "p-42", domain.MetaPropertyTitle: "Sea View 2BHK"}},
		{ID: "n3", UserID: "u1", Title: "Maintenance window", Type: domain.NotificationSystem, CreatedAt: at(60)},
		{ID: "n4", UserID: "u1", Title: "Welcome", Type: domain.NotificationInfo, CreatedAt: at(120), Read: true},
	}
}

func ids(list []domain.Notification) []string {
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = n.ID
	}
	return out
}
