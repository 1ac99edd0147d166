package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gautamkumarcode/propmize-admin/domain"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// WorkspaceDeps are the per-client collaborators of a Workspace
type WorkspaceDeps struct {
	Auth          domain.AuthAPI
	Notifications domain.NotificationAPI
	Tokens        domain.TokenStorage
	Cache         domain.NotificationCache
	Audit         domain.AuditLogger
	Logger        *zap.Logger
	Session       SessionConfig
	PollInterval  time.Duration
}

// Workspace is everything one dashboard client owns: its session, its
// notification store, the background poller and at most one open sign-in
// handshake.
type Workspace struct {
	ID            string
	Session       *SessionManagerImpl
	Notifications *NotificationSynchronizer

	deps   WorkspaceDeps
	poller *Poller
	logger *zap.Logger

	bootMu sync.Mutex
	booted bool

	mu        sync.Mutex
	handshake *OTPHandshake
	closed    bool
}

// NewWorkspace wires a workspace for clientID. The notification store
// follows the session through the listener hooks.
func NewWorkspace(clientID string, deps WorkspaceDeps) *Workspace {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	deps.Logger = logger

	session := NewSessionManager(clientID, deps.Session, deps.Auth, deps.Tokens, deps.Audit, logger)
	notifications := NewNotificationSynchronizer(clientID, deps.Notifications, deps.Cache, deps.Audit, logger)

	ws := &Workspace{
		ID:            clientID,
		Session:       session,
		Notifications: notifications,
		deps:          deps,
		poller:        NewPoller(notifications, deps.PollInterval, logger.With(zap.String("client_id", clientID))),
		logger:        logger.With(zap.String("client_id", clientID)),
	}
	session.AddListener(ws)
	return ws
}

// OnLogin implements domain.SessionListener
func (w *Workspace) OnLogin(ctx context.Context, user *domain.User) {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}

	if err := w.Notifications.Activate(ctx, user); err != nil {
		w.logger.Warn("initial notification fetch failed", zap.String("user_id", user.ID), zap.Error(err))
	}

	w.mu.Lock()
	if !w.closed {
		w.poller.Start()
	}
	w.mu.Unlock()
}

// OnLogout implements domain.SessionListener
func (w *Workspace) OnLogout(ctx context.Context) {
	w.poller.Stop()
	w.Notifications.Deactivate(ctx)
}

// Bootstrap restores a persisted session once per workspace lifetime.
// Concurrent callers wait for the attempt in flight. An attempt that failed
// in transport is retried by the next caller.
func (w *Workspace) Bootstrap(ctx context.Context) {
	w.bootMu.Lock()
	defer w.bootMu.Unlock()
	if w.booted {
		return
	}
	if w.Session.State().IsAuthenticated {
		w.booted = true
		return
	}

	err := w.Session.Bootstrap(ctx)
	switch {
	case err == nil:
		w.logger.Info("session restored")
	case errors.Is(err, domain.ErrNoStoredToken):
	case domain.IsNetwork(err), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		w.logger.Warn("session restore deferred", zap.Error(err))
		return
	default:
		w.logger.Info("session restore failed", zap.Error(err))
	}
	w.booted = true
}

// OpenHandshake starts a fresh sign-in handshake, dismissing any previous one
func (w *Workspace) OpenHandshake(ctx context.Context) (*OTPHandshake, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, domain.ErrHandshakeClosed
	}
	prev := w.handshake
	h := NewOTPHandshake(w.ID, w.deps.Auth, w.Session, w.deps.Audit, w.logger)
	w.handshake = h
	w.mu.Unlock()

	if prev != nil {
		prev.Dismiss(ctx)
	}
	return h, nil
}

// Handshake returns the open handshake. A handshake that finished is discarded.
func (w *Workspace) Handshake() (*OTPHandshake, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.handshake == nil {
		return nil, domain.ErrNoHandshake
	}
	if w.handshake.State().Step == domain.OTPStepClosed {
		w.handshake = nil
		return nil, domain.ErrNoHandshake
	}
	return w.handshake, nil
}

// DismissHandshake closes the open handshake, if any
func (w *Workspace) DismissHandshake(ctx context.Context) {
	w.mu.Lock()
	h := w.handshake
	w.handshake = nil
	w.mu.Unlock()

	if h != nil {
		h.Dismiss(ctx)
	}
}

// Close stops background work and ends every notification subscription.
// Persisted tokens are kept so the client can be restored later.
func (w *Workspace) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	h := w.handshake
	w.handshake = nil
	w.mu.Unlock()

	if h != nil {
		h.Dismiss(context.Background())
	}
	w.poller.Stop()
	w.Notifications.Close()
}

// WorkspaceBuilder creates the workspace for a new client id
type WorkspaceBuilder func(clientID string) *Workspace

// WorkspaceRegistry keeps the most recently used workspaces in memory.
// Evicted workspaces are closed; their clients are restored from stored
// tokens on the next request.
type WorkspaceRegistry struct {
	build  WorkspaceBuilder
	logger *zap.Logger

	mu    sync.Mutex
	cache *lru.Cache[string, *Workspace]
}

// NewWorkspaceRegistry creates a registry holding at most size workspaces
func NewWorkspaceRegistry(size int, build WorkspaceBuilder, logger *zap.Logger) (*WorkspaceRegistry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &WorkspaceRegistry{build: build, logger: logger}

	cache, err := lru.NewWithEvict[string, *Workspace](size, func(clientID string, ws *Workspace) {
		r.logger.Debug("workspace evicted", zap.String("client_id", clientID))
		ws.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace cache: %w", err)
	}
	r.cache = cache
	return r, nil
}

// Get returns the workspace for clientID, creating and bootstrapping it on first use
func (r *WorkspaceRegistry) Get(ctx context.Context, clientID string) *Workspace {
	r.mu.Lock()
	ws, ok := r.cache.Get(clientID)
	if !ok {
		ws = r.build(clientID)
		r.cache.Add(clientID, ws)
	}
	r.mu.Unlock()

	ws.Bootstrap(ctx)
	return ws
}

// Peek returns the workspace for clientID without creating it
func (r *WorkspaceRegistry) Peek(clientID string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Peek(clientID)
}

// Len returns the number of live workspaces
func (r *WorkspaceRegistry) Len() int {
	return r.cache.Len()
}

// Close closes every workspace
func (r *WorkspaceRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Purge()
}
