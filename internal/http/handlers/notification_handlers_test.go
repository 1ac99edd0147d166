package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gautamkumarcode/propmize-admin/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notificationRouter(tc *testClient) *gin.Engine {
	h := NewNotificationHandlers(0, nil)
	r := tc.engine()
	r.GET("/notifications", h.List)
	r.GET("/notifications/unread-count", h.UnreadCount)
	r.GET("/notifications/stream", h.Stream)
	r.POST("/notifications/refresh", h.Refresh)
	r.POST("/notifications/read-all", h.MarkAllRead)
	r.POST("/notifications/:id/read", h.MarkRead)
	r.POST("/notifications/:id/click", h.Click)
	r.DELETE("/notifications/:id", h.Delete)
	return r
}

func listIDs(t *testing.T, snapshot map[string]interface{}) []string {
	t.Helper()
	items, ok := snapshot["notifications"].([]interface{})
	require.True(t, ok, "expected notifications array, got %v", snapshot)
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.(map[string]interface{})["_id"].(string)
	}
	return out
}

func TestNotificationHandlers_List(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedIDs    []string
	}{
		{name: "all newest first", query: "", expectedStatus: http.StatusOK, expectedIDs: []string{"n2", "n1", "n3", "n4"}},
		{name: "unread only", query: "?filter=unread", expectedStatus: http.StatusOK, expectedIDs: []string{"n2", "n1", "n3"}},
		{name: "dropdown limit", query: "?limit=2", expectedStatus: http.StatusOK, expectedIDs: []string{"n2", "n1"}},
		{name: "unknown filter falls back to all", query: "?filter=starred", expectedStatus: http.StatusOK, expectedIDs: []string{"n2", "n1", "n3", "n4"}},
		{name: "bad limit", query: "?limit=ten", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestClient(t)
			tc.signIn(t, inbox())

			w := perform(notificationRouter(tc), http.MethodGet, "/notifications"+tt.query, nil)

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedIDs == nil {
				return
			}
			snap := data(t, w)
			assert.Equal(t, tt.expectedIDs, listIDs(t, snap))
			assert.Equal(t, float64(3), snap["unreadCount"], "badge counts the whole set regardless of view")
		})
	}
}

func TestNotificationHandlers_MarkRead(t *testing.T) {
	tc := newTestClient(t)
	tc.signIn(t, inbox())
	r := notificationRouter(tc)

	w := perform(r, http.MethodPost, "/notifications/n1/read", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := data(t, w)
	assert.Equal(t, true, result["applied"])
	assert.Equal(t, true, result["confirmed"])
	assert.Equal(t, float64(2), result["snapshot"].(map[string]interface{})["unreadCount"])

	// Already read: nothing reaches the backend.
	w = perform(r, http.MethodPost, "/notifications/n4/read", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, data(t, w)["applied"])
	assert.Equal(t, []string{"list", "read:n1"}, tc.notes.Calls())
}

func TestNotificationHandlers_MarkRead_BackendFailure(t *testing.T) {
	tc := newTestClient(t)
	tc.signIn(t, inbox())
	tc.notes.MarkReadFunc = func(ctx context.Context, id string) error {
		return &domain.NetworkError{Op: "mark read", Status: 503}
	}

	w := perform(notificationRouter(tc), http.MethodPost, "/notifications/n1/read", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Failed to mark notification as read", decode(t, w)["error"])
}

func TestNotificationHandlers_MarkRead_DeletedElsewhere(t *testing.T) {
	tc := newTestClient(t)
	tc.signIn(t, inbox())
	tc.notes.MarkReadFunc = func(ctx context.Context, id string) error {
		return &domain.NotFoundError{Status: http.StatusNotFound, ServerMessage: "Notification not found"}
	}
	tc.notes.ListFunc = func(ctx context.Context) ([]domain.Notification, error) {
		return inbox()[1:], nil
	}
	r := notificationRouter(tc)

	w := perform(r, http.MethodPost, "/notifications/n1/read", nil)

	assert.Equal(t, http.StatusNotFound, w.Code, "a vanished record is not a sign-out")
	assert.Equal(t, "Notification not found", decode(t, w)["error"])

	w = perform(r, http.MethodGet, "/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"n2", "n3", "n4"}, listIDs(t, data(t, w)))
}

func TestNotificationHandlers_MarkAllRead(t *testing.T) {
	tc := newTestClient(t)
	tc.signIn(t, inbox())
	r := notificationRouter(tc)

	w := perform(r, http.MethodPost, "/notifications/read-all", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The page reads the same store the dropdown just changed.
	w = perform(r, http.MethodGet, "/notifications/unread-count", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), data(t, w)["unreadCount"])

	w = perform(r, http.MethodGet, "/notifications?filter=unread", nil)
	assert.Empty(t, listIDs(t, data(t, w)))
}

func TestNotificationHandlers_Delete(t *testing.T) {
	tc := newTestClient(t)
	tc.signIn(t, inbox())
	r := notificationRouter(tc)

	w := perform(r, http.MethodDelete, "/notifications/n2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"n1", "n3", "n4"}, listIDs(t, data(t, w)["snapshot"].(map[string]interface{})))

	w = perform(r, http.MethodDelete, "/notifications/missing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, data(t, w)["applied"])
}

func TestNotificationHandlers_Click(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		body           interface{}
		expectedStatus int
		expectedTarget string
		expectedCalls  []string
	}{
		{
			name:           "property notification from the store",
			id:             "n2",
			expectedStatus: http.StatusOK,
			expectedTarget: "/dashboard/properties/p-42",
			expectedCalls:  []string{"list", "read:n2"},
		},
		{
			name:           "already read notification does not reach the backend",
			id:             "n4",
			expectedStatus: http.StatusOK,
			expectedTarget: "/dashboard/notifications",
			expectedCalls:  []string{"list"},
		},
		{
			name:           "unknown id without body",
			id:             "gone",
			expectedStatus: http.StatusNotFound,
			expectedCalls:  []string{"list"},
		},
		{
			name:           "stale rendered copy does not decide the read flag",
			id:             "n1",
			body:           domain.Notification{Title: "New enquiry", Type: domain.NotificationMessage, Read: true},
			expectedStatus: http.StatusOK,
			expectedTarget: "/dashboard/notifications",
			expectedCalls:  []string{"list", "read:n1"},
		},
		{
			name: "rendered notification deleted elsewhere still navigates",
			id:   "gone",
			body: domain.Notification{
				Title:     "Payment received",
				Type:      domain.NotificationSuccess,
				ActionURL: "https://pay.propmize.in/receipt/9",
			},
			expectedStatus: http.StatusOK,
			expectedTarget: "https://pay.propmize.in/receipt/9",
			expectedCalls:  []string{"list"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestClient(t)
			tc.signIn(t, inbox())

			w := perform(notificationRouter(tc), http.MethodPost, "/notifications/"+tt.id+"/click", tt.body)

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedTarget != "" {
				assert.Equal(t, tt.expectedTarget, data(t, w)["navigateTo"])
			}
			assert.Equal(t, tt.expectedCalls, tc.notes.Calls())
		})
	}
}

func TestNotificationHandlers_Refresh(t *testing.T) {
	tc := newTestClient(t)
	tc.signIn(t, inbox())
	r := notificationRouter(tc)

	tc.notes.ListFunc = func(ctx context.Context) ([]domain.Notification, error) {
		return nil, &domain.NetworkError{Op: "list notifications", Err: errors.New("timeout")}
	}
	w := perform(r, http.MethodPost, "/notifications/refresh", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Failed to load notifications", decode(t, w)["error"])

	tc.notes.ListFunc = func(ctx context.Context) ([]domain.Notification, error) {
		return inbox()[:1], nil
	}
	w = perform(r, http.MethodPost, "/notifications/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"n1"}, listIDs(t, data(t, w)))
}

func TestNotificationHandlers_Stream(t *testing.T) {
	tc := newTestClient(t)
	tc.signIn(t, inbox())

	srv := httptest.NewServer(notificationRouter(tc))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/notifications/stream", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	events := make(chan domain.NotificationSnapshot, 4)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			var snap domain.NotificationSnapshot
			if json.Unmarshal([]byte(strings.TrimPrefix(line, "data:")), &snap) == nil {
				events <- snap
			}
		}
		close(events)
	}()

	first := <-events
	assert.Equal(t, 3, first.UnreadCount)

	res := tc.ws.Notifications.MarkAllAsRead(context.Background())
	require.True(t, res.OK())

	select {
	case next := <-events:
		assert.Equal(t, 0, next.UnreadCount)
		assert.Greater(t, next.Version, first.Version)
	case <-ctx.Done():
		t.Fatal("no snapshot after mark all read")
	}
}
