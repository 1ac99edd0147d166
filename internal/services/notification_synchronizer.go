package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gautamkumarcode/propmize-admin/domain"
	"go.uber.org/zap"
)

// NotificationSynchronizer is the single notification store of a dashboard
// client. Every surface (bell dropdown, notifications page, SSE stream) reads
// from and subscribes to the same instance.
//
// Local transitions happen under mu and never perform I/O. Mutations are
// optimistic: the local set changes first, then the backend is asked to
// confirm. A failed confirmation keeps the local state, marks the set stale and
// triggers a full refresh, which is the only path allowed to flip read back to
// false.
type NotificationSynchronizer struct {
	clientID string
	api      domain.NotificationAPI
	cache    domain.NotificationCache
	audit    domain.AuditLogger
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	user    *domain.User
	active  bool
	items   []domain.Notification
	version uint64
	stale   bool
	// epoch changes on every identity change; replies from an older epoch are dropped.
	epoch   uint64
	subs    map[int]chan domain.NotificationSnapshot
	nextSub int
}

// NewNotificationSynchronizer creates an inactive synchronizer. cache may be nil.
func NewNotificationSynchronizer(
	clientID string,
	api domain.NotificationAPI,
	cache domain.NotificationCache,
	audit domain.AuditLogger,
	logger *zap.Logger,
) *NotificationSynchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationSynchronizer{
		clientID: clientID,
		api:      api,
		cache:    cache,
		audit:    audit,
		logger:   logger.With(zap.String("client_id", clientID)),
		now:      time.Now,
		subs:     make(map[int]chan domain.NotificationSnapshot),
	}
}

// Activate resets the store for user and performs the initial fetch.
// Anything held for a previous identity is discarded first.
func (s *NotificationSynchronizer) Activate(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrNotAuthenticated
	}
	u := *user

	s.mu.Lock()
	s.user = &u
	s.active = true
	s.items = nil
	s.stale = true
	s.epoch++
	s.publishLocked()
	s.mu.Unlock()

	return s.Refresh(ctx)
}

// Deactivate empties the store and drops the cached snapshot of the signed-out user
func (s *NotificationSynchronizer) Deactivate(ctx context.Context) {
	s.mu.Lock()
	prev := s.user
	s.reset()
	s.publishLocked()
	s.mu.Unlock()

	if prev != nil && s.cache != nil {
		if err := s.cache.Clear(ctx, prev.ID); err != nil {
			s.logger.Warn("failed to clear notification cache", zap.String("user_id", prev.ID), zap.Error(err))
		}
	}
}

// Close empties the store and ends every subscription
func (s *NotificationSynchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

func (s *NotificationSynchronizer) reset() {
	s.user = nil
	s.active = false
	s.items = nil
	s.stale = false
	s.epoch++
}

// Active reports whether a user is attached
func (s *NotificationSynchronizer) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Stale reports whether a failed confirmation is waiting for a refresh
func (s *NotificationSynchronizer) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// Refresh replaces the local set with the backend's. When the backend is
// unreachable and nothing is held yet, the last cached snapshot is served.
func (s *NotificationSynchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return domain.ErrSynchronizerInactive
	}
	epoch := s.epoch
	userID := s.user.ID
	s.mu.Unlock()

	fetched, err := s.api.List(ctx)
	if err != nil {
		s.serveCached(ctx, epoch, userID)
		return err
	}
	fetched = dedupe(fetched)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return nil
	}
	s.items = fetched
	s.stale = false
	s.publishLocked()
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Save(ctx, userID, fetched); err != nil {
			s.logger.Warn("failed to store notification snapshot", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return nil
}

func (s *NotificationSynchronizer) serveCached(ctx context.Context, epoch uint64, userID string) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	empty := len(s.items) == 0
	s.mu.Unlock()
	if !empty {
		return
	}

	cached, err := s.cache.Load(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load notification snapshot", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if len(cached) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || len(s.items) != 0 {
		return
	}
	s.items = dedupe(cached)
	s.stale = true
	s.publishLocked()
}

// dedupe keeps the first occurrence of every id
func dedupe(in []domain.Notification) []domain.Notification {
	seen := make(map[string]struct{}, len(in))
	out := make([]domain.Notification, 0, len(in))
	for _, n := range in {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}
	return out
}

// List returns the set newest first. Missing timestamps sort as "now";
// equal timestamps keep backend order.
func (s *NotificationSynchronizer) List() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

func (s *NotificationSynchronizer) sortedLocked() []domain.Notification {
	out := make([]domain.Notification, len(s.items))
	copy(out, s.items)

	now := s.now()
	at := func(n *domain.Notification) time.Time {
		if n.CreatedAt == nil {
			return now
		}
		return *n.CreatedAt
	}
	sort.SliceStable(out, func(i, j int) bool {
		return at(&out[i]).After(at(&out[j]))
	})
	return out
}

// Filter projects the sorted set without changing it
func (s *NotificationSynchronizer) Filter(f domain.NotificationFilter) []domain.Notification {
	list := s.List()
	if f != domain.FilterUnread {
		return list
	}
	out := list[:0]
	for _, n := range list {
		if !n.Read {
			out = append(out, n)
		}
	}
	return out
}

// UnreadCount is always derived from the set
func (s *NotificationSynchronizer) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unreadLocked()
}

func (s *NotificationSynchronizer) unreadLocked() int {
	count := 0
	for i := range s.items {
		if !s.items[i].Read {
			count++
		}
	}
	return count
}

// Find returns the notification with id, if held
func (s *NotificationSynchronizer) Find(id string) (domain.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.items[i], true
	}
	return domain.Notification{}, false
}

func (s *NotificationSynchronizer) indexLocked(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Snapshot returns a consistent view of the set and its unread count
func (s *NotificationSynchronizer) Snapshot() domain.NotificationSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *NotificationSynchronizer) snapshotLocked() domain.NotificationSnapshot {
	return domain.NotificationSnapshot{
		Notifications: s.sortedLocked(),
		UnreadCount:   s.unreadLocked(),
		Version:       s.version,
	}
}

// Subscribe returns a channel that receives the current snapshot immediately
// and every later one. Slow readers only see the latest snapshot. The
// returned func ends the subscription.
func (s *NotificationSynchronizer) Subscribe() (<-chan domain.NotificationSnapshot, func()) {
	ch := make(chan domain.NotificationSnapshot, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				close(c)
				delete(s.subs, id)
			}
		})
	}
}

func (s *NotificationSynchronizer) publishLocked() {
	s.version++
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// MarkAsRead flips one notification to read. Unknown ids and already read
// notifications are no-ops that never reach the backend.
func (s *NotificationSynchronizer) MarkAsRead(ctx context.Context, id string) domain.MutationResult {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return domain.MutationResult{Err: domain.ErrSynchronizerInactive}
	}
	i := s.indexLocked(id)
	if i < 0 || s.items[i].Read {
		s.mu.Unlock()
		return domain.MutationResult{}
	}
	s.items[i].Read = true
	s.publishLocked()
	epoch := s.epoch
	s.mu.Unlock()

	return s.confirm(ctx, "mark_read", id, epoch, s.api.MarkRead(ctx, id))
}

// MarkAllAsRead flips every notification to read in one transition
func (s *NotificationSynchronizer) MarkAllAsRead(ctx context.Context) domain.MutationResult {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return domain.MutationResult{Err: domain.ErrSynchronizerInactive}
	}
	if s.unreadLocked() == 0 {
		s.mu.Unlock()
		return domain.MutationResult{}
	}
	for i := range s.items {
		s.items[i].Read = true
	}
	s.publishLocked()
	epoch := s.epoch
	s.mu.Unlock()

	return s.confirm(ctx, "mark_all_read", "", epoch, s.api.MarkAllRead(ctx))
}

// DeleteNotification removes a notification. Deleting an absent id is a no-op.
func (s *NotificationSynchronizer) DeleteNotification(ctx context.Context, id string) domain.MutationResult {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return domain.MutationResult{Err: domain.ErrSynchronizerInactive}
	}
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return domain.MutationResult{}
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.publishLocked()
	epoch := s.epoch
	s.mu.Unlock()

	return s.confirm(ctx, "delete", id, epoch, s.api.Delete(ctx, id))
}

// confirm finishes the second phase of an optimistic mutation
func (s *NotificationSynchronizer) confirm(ctx context.Context, op, id string, epoch uint64, err error) domain.MutationResult {
	if err == nil {
		return domain.MutationResult{Applied: true, Confirmed: true}
	}

	s.mu.Lock()
	current := s.epoch == epoch
	if current {
		s.stale = true
	}
	s.mu.Unlock()

	s.logger.Warn("notification mutation not confirmed",
		zap.String("op", op),
		zap.String("notification_id", id),
		zap.Error(err))
	s.logEvent(ctx, domain.NewAuditEvent(domain.NotificationMutationFailedEvent, s.clientID).
		WithMetadata("op", op).
		WithMetadata("notification_id", id).
		WithError(err))

	if current {
		if rErr := s.Refresh(ctx); rErr == nil {
			s.logEvent(ctx, domain.NewAuditEvent(domain.NotificationReconciledEvent, s.clientID).WithMetadata("op", op))
		} else if !errors.Is(rErr, domain.ErrSynchronizerInactive) {
			s.logger.Debug("reconcile refresh failed, poller will retry", zap.Error(rErr))
		}
	}

	return domain.MutationResult{Applied: true, Err: err}
}

// HandleNotificationClick marks the notification read when needed and
// resolves where to go. The stored record wins over n; a stale n (already
// deleted elsewhere) still yields its navigation.
func (s *NotificationSynchronizer) HandleNotificationClick(ctx context.Context, n domain.Notification) (domain.ClickAction, domain.MutationResult) {
	if stored, ok := s.Find(n.ID); ok {
		n = stored
	}
	var res domain.MutationResult
	if !n.Read {
		res = s.MarkAsRead(ctx, n.ID)
	}
	return ResolveClick(n), res
}

// ResolveClick maps a notification to its navigation target
func ResolveClick(n domain.Notification) domain.ClickAction {
	if url := strings.TrimSpace(n.ActionURL); url != "" {
		return domain.ClickAction{
			NavigateTo: url,
			External:   strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://"),
		}
	}

	switch n.Type {
	case domain.NotificationProperty:
		if pid := n.Metadata.PropertyID(); pid != "" {
			return domain.ClickAction{NavigateTo: "/dashboard/properties/" + pid}
		}
		return domain.ClickAction{NavigateTo: "/dashboard/properties"}
	case domain.NotificationSystem:
		return domain.ClickAction{NavigateTo: "/dashboard/settings"}
	default:
		return domain.ClickAction{NavigateTo: "/dashboard/notifications"}
	}
}

func (s *NotificationSynchronizer) logEvent(ctx context.Context, event *domain.AuditEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogEvent(ctx, event); err != nil {
		s.logger.Warn("failed to record audit event", zap.String("event", string(event.EventType)), zap.Error(err))
	}
}
