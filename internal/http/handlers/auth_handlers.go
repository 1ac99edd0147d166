package handlers

import (
	"net/http"

	"github.com/gautamkumarcode/propmize-admin/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandlers drives the session manager and the OTP sign-in handshake
type AuthHandlers struct {
	logger *zap.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(logger *zap.Logger) *AuthHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandlers{logger: logger}
}

// SendOTPRequest represents the phone step of the handshake
type SendOTPRequest struct {
	Phone string `json:"phone"`
}

// VerifyOTPRequest represents the code step of the handshake
type VerifyOTPRequest struct {
	OTP  string      `json:"otp"`
	Role domain.Role `json:"role,omitempty"`
}

// LoginRequest represents email and password login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session returns the current session state
func (h *AuthHandlers) Session(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ws.Session.State()})
}

// OpenOTP opens a fresh handshake, discarding any previous one
func (h *AuthHandlers) OpenOTP(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	hs, err := ws.OpenHandshake(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": hs.State()})
}

// OTPState returns the open handshake
func (h *AuthHandlers) OTPState(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	hs, err := ws.Handshake()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": hs.State()})
}

// DismissOTP closes the handshake without signing in
func (h *AuthHandlers) DismissOTP(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	ws.DismissHandshake(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// SendOTP submits the phone number
func (h *AuthHandlers) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ws, ok := workspace(c)
	if !ok {
		return
	}
	hs, err := ws.Handshake()
	if err != nil {
		respondError(c, err)
		return
	}

	if err := hs.SubmitPhone(c.Request.Context(), req.Phone); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": hs.State()})
}

// VerifyOTP submits the code and, for new users, the role
func (h *AuthHandlers) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ws, ok := workspace(c)
	if !ok {
		return
	}
	hs, err := ws.Handshake()
	if err != nil {
		respondError(c, err)
		return
	}

	if err := hs.VerifyOTP(c.Request.Context(), req.OTP, req.Role); err != nil {
		respondError(c, err)
		return
	}

	state := ws.Session.State()
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message": "Welcome " + state.User.DisplayName(),
			"session": state,
		},
	})
}

// ChangePhone resets the handshake to the phone step
func (h *AuthHandlers) ChangePhone(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	hs, err := ws.Handshake()
	if err != nil {
		respondError(c, err)
		return
	}
	if err := hs.ChangePhoneNumber(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": hs.State()})
}

// Login handles email and password login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ws, ok := workspace(c)
	if !ok {
		return
	}
	if err := ws.Session.LoginWithPassword(c.Request.Context(), req.Email, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ws.Session.State()})
}

// Logout ends the session for this client
func (h *AuthHandlers) Logout(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	if err := ws.Session.Logout(c.Request.Context()); err != nil {
		h.logger.Warn("logout incomplete", zap.String("client_id", ws.ID), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message": "Logged out successfully",
		},
	})
}
