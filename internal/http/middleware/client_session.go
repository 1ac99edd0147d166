package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gautamkumarcode/propmize-admin/domain"
	"github.com/gautamkumarcode/propmize-admin/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Context keys set by the middleware chain
const (
	ClientIDKey  = "client_id"
	WorkspaceKey = "workspace"
	UserKey      = "user"
	UserRoleKey  = "user_role"
)

// WorkspaceResolver hands out the workspace owned by a client id
type WorkspaceResolver interface {
	Get(ctx context.Context, clientID string) *services.Workspace
}

// CookieOptions controls the client-session cookie
type CookieOptions struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// ClientSessionMW identifies the dashboard client behind a request through a
// signed cookie and resolves its workspace.
type ClientSessionMW struct {
	tokens    domain.TokenService
	resolver  WorkspaceResolver
	cookie    CookieOptions
	logger    *zap.Logger
	newClient func() string
}

// NewClientSessionMW creates new client session middleware
func NewClientSessionMW(tokens domain.TokenService, resolver WorkspaceResolver, cookie CookieOptions, logger *zap.Logger) *ClientSessionMW {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientSessionMW{
		tokens:    tokens,
		resolver:  resolver,
		cookie:    cookie,
		logger:    logger,
		newClient: uuid.NewString,
	}
}

// Handle returns the middleware function. A cookie that fails validation is
// replaced with a new client id.
func (mw *ClientSessionMW) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := ""
		if raw, err := c.Cookie(mw.cookie.Name); err == nil && raw != "" {
			claims, err := mw.tokens.ValidateClientToken(raw)
			if err == nil {
				clientID = claims.ClientID
			} else {
				mw.logger.Debug("client cookie rejected", zap.Error(err))
			}
		}

		if clientID == "" {
			clientID = mw.newClient()
			token, err := mw.tokens.IssueClientToken(clientID)
			if err != nil {
				mw.logger.Error("failed to issue client token", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not start session"})
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(mw.cookie.Name, token, int(mw.cookie.TTL.Seconds()), "/", "", mw.cookie.Secure, true)
		}

		c.Set(ClientIDKey, clientID)
		c.Set(WorkspaceKey, mw.resolver.Get(c.Request.Context(), clientID))
		c.Next()
	}
}

// Workspace returns the workspace resolved for the request
func Workspace(c *gin.Context) *services.Workspace {
	v, ok := c.Get(WorkspaceKey)
	if !ok {
		return nil
	}
	ws, _ := v.(*services.Workspace)
	return ws
}
