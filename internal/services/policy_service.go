package services

import (
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/gautamkumarcode/propmize-admin/domain"
)

// RoleSubject is the casbin subject for a dashboard role, e.g. "role_agent"
func RoleSubject(role string) string {
	if strings.HasPrefix(role, "role_") {
		return role
	}
	return "role_" + role
}

// DefaultPolicies is the rule set seeded into an empty policy table.
// Agents and admins share the notification surface; only admins manage policies.
var DefaultPolicies = [][]string{
	{"role_admin", "/notifications", "GET|POST|PATCH|DELETE"},
	{"role_admin", "/notifications/*", "GET|POST|PATCH|DELETE"},
	{"role_admin", "/admin/*", "GET|POST|DELETE"},
	{"role_agent", "/notifications", "GET|POST|PATCH|DELETE"},
	{"role_agent", "/notifications/*", "GET|POST|PATCH|DELETE"},
}

// CasbinEnforcerWrapper wraps the real Casbin enforcer to implement our interface
type CasbinEnforcerWrapper struct {
	enforcer *casbin.Enforcer
}

// NewCasbinEnforcerWrapper creates a wrapper for the real Casbin enforcer
func NewCasbinEnforcerWrapper(enforcer *casbin.Enforcer) domain.CasbinEnforcer {
	return &CasbinEnforcerWrapper{enforcer: enforcer}
}

func (w *CasbinEnforcerWrapper) AddPolicy(params ...interface{}) (bool, error) {
	return w.enforcer.AddPolicy(params...)
}

func (w *CasbinEnforcerWrapper) RemovePolicy(params ...interface{}) (bool, error) {
	return w.enforcer.RemovePolicy(params...)
}

func (w *CasbinEnforcerWrapper) Enforce(rvals ...interface{}) (bool, error) {
	return w.enforcer.Enforce(rvals...)
}

func (w *CasbinEnforcerWrapper) GetPolicy() ([][]string, error) {
	return w.enforcer.GetPolicy()
}

func (w *CasbinEnforcerWrapper) SavePolicy() error {
	return w.enforcer.SavePolicy()
}

// PolicyServiceImpl implements domain.PolicyService using Casbin
type PolicyServiceImpl struct {
	enforcer domain.CasbinEnforcer
}

// NewPolicyService creates a new policy service
func NewPolicyService(enforcer *casbin.Enforcer) *PolicyServiceImpl {
	return &PolicyServiceImpl{
		enforcer: NewCasbinEnforcerWrapper(enforcer),
	}
}

// NewPolicyServiceWithEnforcer creates a new policy service with a CasbinEnforcer interface (for testing)
func NewPolicyServiceWithEnforcer(enforcer domain.CasbinEnforcer) *PolicyServiceImpl {
	return &PolicyServiceImpl{
		enforcer: enforcer,
	}
}

func validateRule(role, resource, action string) error {
	switch {
	case strings.TrimSpace(role) == "":
		return domain.NewValidationError("role", "Role is required")
	case !strings.HasPrefix(resource, "/"):
		return domain.NewValidationError("resource", "Resource must be an absolute path")
	case strings.TrimSpace(action) == "":
		return domain.NewValidationError("action", "Action is required")
	}
	return nil
}

// AddPolicy implements domain.PolicyService
func (p *PolicyServiceImpl) AddPolicy(role, resource, action string) error {
	if err := validateRule(role, resource, action); err != nil {
		return err
	}
	_, err := p.enforcer.AddPolicy(RoleSubject(role), resource, action)
	if err != nil {
		return err
	}
	return p.enforcer.SavePolicy()
}

// RemovePolicy implements domain.PolicyService
func (p *PolicyServiceImpl) RemovePolicy(role, resource, action string) error {
	if err := validateRule(role, resource, action); err != nil {
		return err
	}
	_, err := p.enforcer.RemovePolicy(RoleSubject(role), resource, action)
	if err != nil {
		return err
	}
	return p.enforcer.SavePolicy()
}

// CheckPermission implements domain.PolicyService
func (p *PolicyServiceImpl) CheckPermission(role, resource, action string) (bool, error) {
	if role == "" {
		return false, nil
	}
	return p.enforcer.Enforce(RoleSubject(role), resource, action)
}

// GetPolicies implements domain.PolicyService
func (p *PolicyServiceImpl) GetPolicies() [][]string {
	policies, _ := p.enforcer.GetPolicy()
	return policies
}

// SeedDefaults installs DefaultPolicies when no rule exists yet.
// It returns the number of rules added.
func (p *PolicyServiceImpl) SeedDefaults() (int, error) {
	existing, err := p.enforcer.GetPolicy()
	if err != nil {
		return 0, fmt.Errorf("failed to read policies: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	added := 0
	for _, rule := range DefaultPolicies {
		ok, err := p.enforcer.AddPolicy(rule[0], rule[1], rule[2])
		if err != nil {
			return added, fmt.Errorf("failed to add policy %v: %w", rule, err)
		}
		if ok {
			added++
		}
	}
	return added, p.enforcer.SavePolicy()
}
