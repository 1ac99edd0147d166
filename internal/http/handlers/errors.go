package handlers

import (
	"errors"
	"net/http"

	"github.com/gautamkumarcode/propmize-admin/domain"
	"github.com/gautamkumarcode/propmize-admin/internal/http/middleware"
	"github.com/gautamkumarcode/propmize-admin/internal/services"
	"github.com/gin-gonic/gin"
)

// statusFor maps an error to its HTTP status
func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case domain.IsAuth(err):
		var authErr *domain.AuthError
		if errors.As(err, &authErr) && authErr.Status == http.StatusTooManyRequests {
			return http.StatusTooManyRequests
		}
		return http.StatusUnauthorized
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case domain.IsNetwork(err), errors.Is(err, domain.ErrInvalidResponse):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrOTPAlreadySent),
		errors.Is(err, domain.ErrOTPNotSent),
		errors.Is(err, domain.ErrHandshakeClosed),
		errors.Is(err, domain.ErrNoHandshake):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotAuthenticated), errors.Is(err, domain.ErrSynchronizerInactive):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotificationNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), gin.H{"error": domain.DisplayMessage(err)})
}

func workspace(c *gin.Context) (*services.Workspace, bool) {
	ws := middleware.Workspace(c)
	if ws == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Client session missing"})
		return nil, false
	}
	return ws, true
}
