package mocks

import "github.com/gautamkumarcode/propmize-admin/domain"

// MockPolicyService implements domain.PolicyService interface for testing
type MockPolicyService struct {
	AddPolicyFunc       func(role, resource, action string) error
	RemovePolicyFunc    func(role, resource, action string) error
	CheckPermissionFunc func(role, resource, action string) (bool, error)
	GetPoliciesFunc     func() [][]string
}

// Compile-time interface compliance verification
var _ domain.PolicyService = (*MockPolicyService)(nil)

// NewMockPolicyService creates a new MockPolicyService with default behaviors
func NewMockPolicyService() *MockPolicyService {
	return &MockPolicyService{}
}

// AddPolicy adds a new authorization policy
func (m *MockPolicyService) AddPolicy(role, resource, action string) error {
	if m.AddPolicyFunc != nil {
		return m.AddPolicyFunc(role, resource, action)
	}
	// Default behavior: success
	return nil
}

// RemovePolicy removes an authorization policy
func (m *MockPolicyService) RemovePolicy(role, resource, action string) error {
	if m.RemovePolicyFunc != nil {
		return m.RemovePolicyFunc(role, resource, action)
	}
	// Default behavior: success
	return nil
}

// CheckPermission checks if a role has permission for a resource and action
func (m *MockPolicyService) CheckPermission(role, resource, action string) (bool, error) {
	if m.CheckPermissionFunc != nil {
		return m.CheckPermissionFunc(role, resource, action)
	}
	// Default behavior: admins everywhere, agents on notifications only
	if role == "role_admin" {
		return true, nil
	}
	if role == "role_agent" && len(resource) >= len("/notifications") && resource[:len("/notifications")] == "/notifications" {
		return true, nil
	}
	return false, nil
}

// GetPolicies returns all current policies
func (m *MockPolicyService) GetPolicies() [][]string {
	if m.GetPoliciesFunc != nil {
		return m.GetPoliciesFunc()
	}
	return [][]string{
		{"role_admin", "/notifications", "GET|POST|PATCH|DELETE"},
		{"role_admin", "/notifications/*", "GET|POST|PATCH|DELETE"},
		{"role_admin", "/admin/*", "GET|POST|DELETE"},
		{"role_agent", "/notifications", "GET|POST|PATCH|DELETE"},
		{"role_agent", "/notifications/*", "GET|POST|PATCH|DELETE"},
	}
}
