package middleware

import (
	"net/http"

	"github.com/gautamkumarcode/propmize-admin/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CasbinMW gates routes on the signed-in user's role
type CasbinMW struct {
	policy domain.PolicyService
	audit  domain.AuditLogger
	logger *zap.Logger
}

// NewCasbinMW creates new casbin middleware wrapper
func NewCasbinMW(policy domain.PolicyService, audit domain.AuditLogger, logger *zap.Logger) *CasbinMW {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CasbinMW{policy: policy, audit: audit, logger: logger}
}

// Enforce returns the casbin authorization middleware. It must run after RequireSession.
func (mw *CasbinMW) Enforce() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(UserRoleKey)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": domain.DisplayMessage(domain.ErrNotAuthenticated)})
			return
		}

		path := c.Request.URL.Path
		method := c.Request.Method

		allowed, err := mw.policy.CheckPermission(role, path, method)
		if err != nil {
			mw.logger.Error("authorization check failed", zap.String("path", path), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
			return
		}

		if !allowed {
			if mw.audit != nil {
				event := domain.NewAuditEvent(domain.AccessDeniedEvent, c.GetString(ClientIDKey)).
					WithMetadata("path", path).
					WithMetadata("method", method).
					WithMetadata("role", role)
				if user, ok := c.Get(UserKey); ok {
					event.WithUser(user.(*domain.User))
				}
				_ = mw.audit.LogEvent(c.Request.Context(), event.WithError(domain.ErrInsufficientRole))
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access Denied"})
			return
		}

		c.Next()
	}
}
