package handlers

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gautamkumarcode/propmize-admin/domain"
	"github.com/gautamkumarcode/propmize-admin/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NotificationHandlers exposes the shared notification store of a client.
// The header dropdown and the notifications page read the same store.
type NotificationHandlers struct {
	logger    *zap.Logger
	keepAlive time.Duration
}

// NewNotificationHandlers creates notification handlers. keepAlive is the
// interval between SSE heartbeats; zero disables them.
func NewNotificationHandlers(keepAlive time.Duration, logger *zap.Logger) *NotificationHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandlers{logger: logger, keepAlive: keepAlive}
}

func filterSnapshot(snap domain.NotificationSnapshot, f domain.NotificationFilter, limit int) domain.NotificationSnapshot {
	if f == domain.FilterUnread {
		unread := make([]domain.Notification, 0, snap.UnreadCount)
		for _, n := range snap.Notifications {
			if !n.Read {
				unread = append(unread, n)
			}
		}
		snap.Notifications = unread
	}
	if limit > 0 && len(snap.Notifications) > limit {
		snap.Notifications = snap.Notifications[:limit]
	}
	return snap
}

// List returns the sorted notifications. ?filter=unread narrows the view,
// ?limit=N keeps the N newest. unreadCount always counts the whole set.
func (h *NotificationHandlers) List(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, domain.NewValidationError("limit", "Limit must be a non-negative number"))
			return
		}
		limit = n
	}

	snap := ws.Notifications.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"data":  filterSnapshot(snap, domain.ParseNotificationFilter(c.Query("filter")), limit),
		"stale": ws.Notifications.Stale(),
	})
}

// UnreadCount returns the badge count
func (h *NotificationHandlers) UnreadCount(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"unreadCount": ws.Notifications.UnreadCount()}})
}

// Refresh pulls the set from the backend now
func (h *NotificationHandlers) Refresh(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	if err := ws.Notifications.Refresh(c.Request.Context()); err != nil {
		respondError(c, domain.WithFallback(err, "Failed to load notifications"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ws.Notifications.Snapshot()})
}

// MarkAllRead marks every notification read
func (h *NotificationHandlers) MarkAllRead(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	res := ws.Notifications.MarkAllAsRead(c.Request.Context())
	h.respondMutation(c, ws, res, "Failed to mark notifications as read")
}

// MarkRead marks one notification read
func (h *NotificationHandlers) MarkRead(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	res := ws.Notifications.MarkAsRead(c.Request.Context(), c.Param("id"))
	h.respondMutation(c, ws, res, "Failed to mark notification as read")
}

// Delete removes one notification
func (h *NotificationHandlers) Delete(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	res := ws.Notifications.DeleteNotification(c.Request.Context(), c.Param("id"))
	h.respondMutation(c, ws, res, "Failed to delete notification")
}

// Click marks the notification read and returns where to navigate. The
// caller may send the notification it rendered; it is only used when the
// store no longer holds that id.
func (h *NotificationHandlers) Click(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}

	id := c.Param("id")
	var n domain.Notification
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&n); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		n.ID = id
	} else {
		found, ok := ws.Notifications.Find(id)
		if !ok {
			respondError(c, domain.ErrNotificationNotFound)
			return
		}
		n = found
	}

	action, res := ws.Notifications.HandleNotificationClick(c.Request.Context(), n)
	body := gin.H{
		"navigateTo": action.NavigateTo,
		"external":   action.External,
	}
	if res.Err != nil {
		// Navigation still happens; the read flag is reconciled in the background.
		h.logger.Debug("click mark-read not confirmed", zap.String("notification_id", id), zap.Error(res.Err))
		body["warning"] = domain.DisplayMessage(domain.WithFallback(res.Err, "Failed to mark notification as read"))
	}
	c.JSON(http.StatusOK, gin.H{"data": body})
}

func (h *NotificationHandlers) respondMutation(c *gin.Context, ws *services.Workspace, res domain.MutationResult, fallback string) {
	if res.Err != nil {
		respondError(c, domain.WithFallback(res.Err, fallback))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"applied":   res.Applied,
			"confirmed": res.Confirmed,
			"snapshot":  ws.Notifications.Snapshot(),
		},
	})
}

// Stream sends a snapshot event now and after every change until the
// client goes away or the workspace closes.
func (h *NotificationHandlers) Stream(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}

	updates, cancel := ws.Notifications.Subscribe()
	defer cancel()

	var heartbeat <-chan time.Time
	if h.keepAlive > 0 {
		ticker := time.NewTicker(h.keepAlive)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case snap, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("snapshot", snap)
			return true
		case <-heartbeat:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
}
