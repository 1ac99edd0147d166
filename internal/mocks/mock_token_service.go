package mocks

import (
	"strings"
	"time"

	"github.com/gautamkumarcode/propmize-admin/domain"
)

// MockTokenService implements domain.TokenService interface for testing
type MockTokenService struct {
	IssueClientTokenFunc    func(clientID string) (string, error)
	ValidateClientTokenFunc func(token string) (*domain.ClientClaims, error)
}

// Compile-time interface compliance verification
var _ domain.TokenService = (*MockTokenService)(nil)

// NewMockTokenService creates a new MockTokenService with default behaviors
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

// IssueClientToken signs a client-session token
func (m *MockTokenService) IssueClientToken(clientID string) (string, error) {
	if m.IssueClientTokenFunc != nil {
		return m.IssueClientTokenFunc(clientID)
	}
	// Default behavior: reversible mock token
	return "client_token_" + clientID, nil
}

// ValidateClientToken validates a client-session token
func (m *MockTokenService) ValidateClientToken(token string) (*domain.ClientClaims, error) {
	if m.ValidateClientTokenFunc != nil {
		return m.ValidateClientTokenFunc(token)
	}
	if !strings.HasPrefix(token, "client_token_") {
		return nil, domain.ErrTokenInvalid
	}
	now := time.Now()
	return &domain.ClientClaims{
		ClientID:  strings.TrimPrefix(token, "client_token_"),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Hour).Unix(),
	}, nil
}
