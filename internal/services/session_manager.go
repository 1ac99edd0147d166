package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gautamkumarcode/propmize-admin/domain"
	"go.uber.org/zap"
)

// SessionConfig selects the storage keys and login endpoint for a deployment
type SessionConfig struct {
	AccessTokenKey  string
	RefreshTokenKey string
	AdminPortal     bool
}

// SessionManagerImpl implements domain.SessionManager for one dashboard client
type SessionManagerImpl struct {
	clientID string
	cfg      SessionConfig
	api      domain.AuthAPI
	tokens   domain.TokenStorage
	audit    domain.AuditLogger
	logger   *zap.Logger

	mu        sync.RWMutex
	user      *domain.User
	listeners []domain.SessionListener
}

var _ domain.SessionManager = (*SessionManagerImpl)(nil)

// NewSessionManager creates a new session manager
func NewSessionManager(
	clientID string,
	cfg SessionConfig,
	api domain.AuthAPI,
	tokens domain.TokenStorage,
	audit domain.AuditLogger,
	logger *zap.Logger,
) *SessionManagerImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AccessTokenKey == "" {
		cfg.AccessTokenKey = "accessToken"
	}
	if cfg.RefreshTokenKey == "" {
		cfg.RefreshTokenKey = "refreshToken"
	}
	return &SessionManagerImpl{
		clientID: clientID,
		cfg:      cfg,
		api:      api,
		tokens:   tokens,
		audit:    audit,
		logger:   logger.With(zap.String("client_id", clientID)),
	}
}

// State implements domain.SessionManager
func (s *SessionManagerImpl) State() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.SessionState{}
	}
	u := *s.user
	return domain.SessionState{User: &u, IsAuthenticated: true}
}

// AddListener implements domain.SessionManager
func (s *SessionManagerImpl) AddListener(l domain.SessionListener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Login implements domain.SessionManager. Tokens are written before the
// user is published so no reader sees a user without credentials.
func (s *SessionManagerImpl) Login(ctx context.Context, user *domain.User, tokens domain.Tokens) error {
	if user == nil || tokens.AccessToken == "" {
		return domain.ErrInvalidResponse
	}

	if err := s.persistTokens(ctx, tokens); err != nil {
		s.logEvent(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent, s.clientID).WithUser(user).WithError(err))
		return err
	}

	u := *user
	s.mu.Lock()
	s.user = &u
	listeners := append([]domain.SessionListener(nil), s.listeners...)
	s.mu.Unlock()

	s.logEvent(ctx, domain.NewAuditEvent(domain.UserLoginEvent, s.clientID).WithUser(&u))

	for _, l := range listeners {
		l.OnLogin(ctx, &u)
	}
	return nil
}

func (s *SessionManagerImpl) persistTokens(ctx context.Context, tokens domain.Tokens) error {
	if err := s.tokens.Set(ctx, s.cfg.AccessTokenKey, tokens.AccessToken); err != nil {
		return fmt.Errorf("failed to persist access token: %w", err)
	}
	if err := s.tokens.Set(ctx, s.cfg.RefreshTokenKey, tokens.RefreshToken); err != nil {
		if rmErr := s.tokens.Remove(ctx, s.cfg.AccessTokenKey); rmErr != nil {
			s.logger.Warn("failed to roll back access token", zap.Error(rmErr))
		}
		return fmt.Errorf("failed to persist refresh token: %w", err)
	}
	return nil
}

// Logout implements domain.SessionManager. Teardown is local only; the
// backend keeps the refresh token until it expires.
func (s *SessionManagerImpl) Logout(ctx context.Context) error {
	s.mu.Lock()
	prev := s.user
	s.user = nil
	listeners := append([]domain.SessionListener(nil), s.listeners...)
	s.mu.Unlock()

	err := s.tokens.Remove(ctx, s.cfg.AccessTokenKey, s.cfg.RefreshTokenKey)

	for _, l := range listeners {
		l.OnLogout(ctx)
	}

	event := domain.NewAuditEvent(domain.UserLogoutEvent, s.clientID).WithUser(prev)
	if err != nil {
		event.WithError(err)
	}
	s.logEvent(ctx, event)

	if err != nil {
		return fmt.Errorf("failed to remove stored tokens: %w", err)
	}
	return nil
}

// LoginWithPassword implements domain.SessionManager
func (s *SessionManagerImpl) LoginWithPassword(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.NewValidationError("email", "Enter email")
	}
	if password == "" {
		return domain.NewValidationError("password", "Enter password")
	}

	login := s.api.Login
	if s.cfg.AdminPortal {
		login = s.api.AdminLogin
	}

	res, err := login(ctx, email, password)
	if err != nil {
		err = domain.WithFallback(err, "Invalid email or password")
		s.logEvent(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent, s.clientID).WithEmail(email).WithError(err))
		return err
	}

	return s.Login(ctx, res.User, res.Tokens)
}

// Bootstrap implements domain.SessionManager. A single profile lookup is
// attempted when an access token is stored. When the backend rejects the
// token the stored tokens are dropped; transport failures keep them so a
// later attempt can restore the session. Either way the session stays
// signed out.
func (s *SessionManagerImpl) Bootstrap(ctx context.Context) error {
	token, err := s.tokens.Get(ctx, s.cfg.AccessTokenKey)
	if err != nil {
		return fmt.Errorf("failed to read stored token: %w", err)
	}
	if token == "" {
		return domain.ErrNoStoredToken
	}

	user, err := s.api.Profile(ctx)
	if err == nil && user == nil {
		err = domain.ErrInvalidResponse
	}
	if err != nil {
		if tokenRejected(err) {
			if rmErr := s.tokens.Remove(ctx, s.cfg.AccessTokenKey, s.cfg.RefreshTokenKey); rmErr != nil {
				s.logger.Warn("failed to clear stale tokens", zap.Error(rmErr))
			}
		}
		s.logEvent(ctx, domain.NewAuditEvent(domain.SessionRestoreFailed, s.clientID).WithError(err))
		return err
	}

	u := *user
	s.mu.Lock()
	s.user = &u
	listeners := append([]domain.SessionListener(nil), s.listeners...)
	s.mu.Unlock()

	s.logEvent(ctx, domain.NewAuditEvent(domain.SessionRestoredEvent, s.clientID).WithUser(&u))

	for _, l := range listeners {
		l.OnLogin(ctx, &u)
	}
	return nil
}

// tokenRejected reports whether a profile lookup failed because of the
// stored credentials rather than the transport
func tokenRejected(err error) bool {
	return domain.IsAuth(err) || domain.IsNotFound(err) || errors.Is(err, domain.ErrInvalidResponse)
}

func (s *SessionManagerImpl) logEvent(ctx context.Context, event *domain.AuditEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogEvent(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("failed to record audit event", zap.String("event", string(event.EventType)), zap.Error(err))
	}
}
