package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gautamkumarcode/propmize-admin/domain"
)

type sendOTPRequest struct {
	Phone string `json:"phone"`
}

type verifyOTPRequest struct {
	Phone string      `json:"phone"`
	OTP   string      `json:"otp"`
	Role  domain.Role `json:"role,omitempty"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SendOTP implements domain.AuthAPI
func (c *Client) SendOTP(ctx context.Context, phone string) (*domain.OTPIssue, error) {
	var issue domain.OTPIssue
	if err := c.mutate(ctx, "send otp", http.MethodPost, "/auth/send-otp", sendOTPRequest{Phone: phone}, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// VerifyOTP implements domain.AuthAPI. role is sent only when non-empty.
func (c *Client) VerifyOTP(ctx context.Context, phone, otp string, role domain.Role) (*domain.AuthResult, error) {
	var result domain.AuthResult
	req := verifyOTPRequest{Phone: phone, OTP: otp, Role: role}
	if err := c.mutate(ctx, "verify otp", http.MethodPost, "/auth/verify-otp", req, &result); err != nil {
		return nil, err
	}
	return checkAuthResult("verify otp", &result)
}

// Login implements domain.AuthAPI
func (c *Client) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	return c.credentialsLogin(ctx, "login", "/auth/login", email, password)
}

// AdminLogin implements domain.AuthAPI
func (c *Client) AdminLogin(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	return c.credentialsLogin(ctx, "admin login", "/admin/login", email, password)
}

func (c *Client) credentialsLogin(ctx context.Context, op, path, email, password string) (*domain.AuthResult, error) {
	var result domain.AuthResult
	if err := c.mutate(ctx, op, http.MethodPost, path, credentialsRequest{Email: email, Password: password}, &result); err != nil {
		return nil, err
	}
	return checkAuthResult(op, &result)
}

// Profile implements domain.AuthAPI. The backend answers either {user} or the bare user.
func (c *Client) Profile(ctx context.Context) (*domain.User, error) {
	var raw json.RawMessage
	if err := c.query(ctx, "profile", "/auth/profile", &raw); err != nil {
		return nil, err
	}

	var wrapped struct {
		User *domain.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil && wrapped.User.ID != "" {
		return wrapped.User, nil
	}

	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil || user.ID == "" {
		return nil, fmt.Errorf("profile: %w", domain.ErrInvalidResponse)
	}
	return &user, nil
}

func checkAuthResult(op string, result *domain.AuthResult) (*domain.AuthResult, error) {
	if result.User == nil || result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		return nil, fmt.Errorf("%s: %w: missing user or tokens", op, domain.ErrInvalidResponse)
	}
	return result, nil
}

var _ domain.AuthAPI = (*Client)(nil)
