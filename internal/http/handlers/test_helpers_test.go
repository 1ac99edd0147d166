package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gautamkumarcode/propmize-admin/domain"
	"github.com/gautamkumarcode/propmize-admin/internal/http/middleware"
	"github.com/gautamkumarcode/propmize-admin/internal/mocks"
	"github.com/gautamkumarcode/propmize-admin/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// testClient is one dashboard client backed by mocks
type testClient struct {
	ws     *services.Workspace
	auth   *mocks.MockAuthAPI
	notes  *mocks.MockNotificationAPI
	tokens *mocks.MockTokenStorage
	audit  *mocks.MockAuditLogger
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tc := &testClient{
		auth:   mocks.NewMockAuthAPI(),
		notes:  mocks.NewMockNotificationAPI(),
		tokens: mocks.NewMockTokenStorage(),
		audit:  mocks.NewMockAuditLogger(),
	}
	tc.ws = services.NewWorkspace("client-test", services.WorkspaceDeps{
		Auth:          tc.auth,
		Notifications: tc.notes,
		Tokens:        tc.tokens,
		Audit:         tc.audit,
		Session: services.SessionConfig{
			AccessTokenKey:  "accessToken",
			RefreshTokenKey: "refreshToken",
		},
	})
	t.Cleanup(tc.ws.Close)
	return tc
}

// engine returns a router whose requests all belong to tc
func (tc *testClient) engine() *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ClientIDKey, tc.ws.ID)
		c.Set(middleware.WorkspaceKey, tc.ws)
		c.Next()
	})
	return r
}

func (tc *testClient) signIn(t *testing.T, notifications []domain.Notification) {
	t.Helper()
	tc.notes.ListFunc = func(ctx context.Context) ([]domain.Notification, error) {
		return append([]domain.Notification(nil), notifications...), nil
	}
	user := &domain.User{ID: "u1", Name: "Asha Verma", Phone: "9876543210", Role: string(domain.RoleAgent)}
	require.NoError(t, tc.ws.Session.Login(context.Background(), user, domain.Tokens{AccessToken: "acc", RefreshToken: "ref"}))
}

func perform(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func data(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	body := decode(t, w)
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "expected data object, got %v", body)
	return d
}

func ts(minutesAgo int) *time.Time {
	v := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC).Add(-time.Duration(minutesAgo) * time.Minute)
	return &v
}

// inbox holds three unread and one read notification
func inbox() []domain.Notification {
	return []domain.Notification{
		{ID: "n1", UserID: "u1", Title: "New enquiry", Type: domain.NotificationMessage, CreatedAt: ts(30)},
		{ID: "n2", UserID: "u1", Title: "Listing approved", Type: domain.NotificationProperty, CreatedAt: ts(10),
			Metadata: domain.Metadata{domain.MetaPropertyID: "p-42"}},
		{ID: "n3", UserID: "u1", Title: "Maintenance window", Type: domain.NotificationSystem, CreatedAt: ts(60)},
		{ID: "n4", UserID: "u1", Title: "Welcome", Type: domain.NotificationInfo, CreatedAt: ts(120), Read: true},
	}
}
