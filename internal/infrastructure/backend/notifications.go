package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gautamkumarcode/propmize-admin/domain"
)

// List implements domain.NotificationAPI. The backend answers either an
// array or {notifications: [...]}.
func (c *Client) List(ctx context.Context) ([]domain.Notification, error) {
	var raw json.RawMessage
	if err := c.query(ctx, "list notifications", "/notifications", &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var list []domain.Notification
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Notifications []domain.Notification `json:"notifications"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("list notifications: %w: %v", domain.ErrInvalidResponse, err)
	}
	return wrapped.Notifications, nil
}

// MarkRead implements domain.NotificationAPI
func (c *Client) MarkRead(ctx context.Context, id string) error {
	return c.mutate(ctx, "mark notification read", http.MethodPatch, "/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// MarkAllRead implements domain.NotificationAPI
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.mutate(ctx, "mark all notifications read", http.MethodPatch, "/notifications/read-all", nil, nil)
}

// Delete implements domain.NotificationAPI
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.mutate(ctx, "delete notification", http.MethodDelete, "/notifications/"+url.PathEscape(id), nil, nil)
}

var _ domain.NotificationAPI = (*Client)(nil)
