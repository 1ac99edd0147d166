package mocks

import (
	"context"

	"github.com/gautamkumarcode/propmize-admin/domain"
)

// MockAuthAPI implements domain.AuthAPI interface for testing
type MockAuthAPI struct {
	SendOTPFunc    func(ctx context.Context, phone string) (*domain.OTPIssue, error)
	VerifyOTPFunc  func(ctx context.Context, phone, otp string, role domain.Role) (*domain.AuthResult, error)
	LoginFunc      func(ctx context.Context, email, password string) (*domain.AuthResult, error)
	AdminLoginFunc func(ctx context.Context, email, password string) (*domain.AuthResult, error)
	ProfileFunc    func(ctx context.Context) (*domain.User, error)
}

// Compile-time interface compliance verification
var _ domain.AuthAPI = (*MockAuthAPI)(nil)

// NewMockAuthAPI creates a new MockAuthAPI with default behaviors
func NewMockAuthAPI() *MockAuthAPI {
	return &MockAuthAPI{}
}

// SendOTP requests an OTP for the phone number
func (m *MockAuthAPI) SendOTP(ctx context.Context, phone string) (*domain.OTPIssue, error) {
	if m.SendOTPFunc != nil {
		return m.SendOTPFunc(ctx, phone)
	}
	// Default behavior: returning user, no echoed code
	return &domain.OTPIssue{}, nil
}

// VerifyOTP exchanges an OTP for a session
func (m *MockAuthAPI) VerifyOTP(ctx context.Context, phone, otp string, role domain.Role) (*domain.AuthResult, error) {
	if m.VerifyOTPFunc != nil {
		return m.VerifyOTPFunc(ctx, phone, otp, role)
	}
	return &domain.AuthResult{
		User:   &domain.User{ID: "mock-user", Phone: phone, Role: string(domain.RoleAgent)},
		Tokens: domain.Tokens{AccessToken: "mock_access_token", RefreshToken: "mock_refresh_token"},
	}, nil
}

// Login authenticates with email and password
func (m *MockAuthAPI) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return &domain.AuthResult{
		User:   &domain.User{ID: "mock-user", Email: email, Role: string(domain.RoleAgent)},
		Tokens: domain.Tokens{AccessToken: "mock_access_token", RefreshToken: "mock_refresh_token"},
	}, nil
}

// AdminLogin authenticates against the admin endpoint
func (m *MockAuthAPI) AdminLogin(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	if m.AdminLoginFunc != nil {
		return m.AdminLoginFunc(ctx, email, password)
	}
	return &domain.AuthResult{
		User:   &domain.User{ID: "mock-admin", Email: email, Role: string(domain.RoleAdmin)},
		Tokens: domain.Tokens{AccessToken: "mock_admin_access_token", RefreshToken: "mock_admin_refresh_token"},
	}, nil
}

// Profile returns the user behind the stored access token
func (m *MockAuthAPI) Profile(ctx context.Context) (*domain.User, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx)
	}
	return &domain.User{ID: "mock-user", Role: string(domain.RoleAgent)}, nil
}
