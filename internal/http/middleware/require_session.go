package middleware

import (
	"net/http"

	"github.com/gautamkumarcode/propmize-admin/domain"
	"github.com/gin-gonic/gin"
)

// RequireSession rejects requests whose workspace has no signed-in user
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws := Workspace(c)
		if ws == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": domain.DisplayMessage(domain.ErrNotAuthenticated)})
			return
		}

		state := ws.Session.State()
		if !state.IsAuthenticated || state.User == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": domain.DisplayMessage(domain.ErrNotAuthenticated)})
			return
		}

		c.Set(UserKey, state.User)
		c.Set(UserRoleKey, state.User.Role)
		c.Next()
	}
}
