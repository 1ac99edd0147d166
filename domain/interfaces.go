package domain

import "context"

// AuthAPI defines the marketplace authentication endpoints
type AuthAPI interface {
	SendOTP(ctx context.Context, phone string) (*OTPIssue, error)
	VerifyOTP(ctx context.Context, phone, otp string, role Role) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	AdminLogin(ctx context.Context, email, password string) (*AuthResult, error)
	Profile(ctx context.Context) (*User, error)
}

// NotificationAPI defines the marketplace notification endpoints
type NotificationAPI interface {
	List(ctx context.Context) ([]Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id string) error
}

// TokenStorage is the durable key-value store holding a client's credentials
type TokenStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

// NotificationCache keeps the last known notification set per user
type NotificationCache interface {
	Save(ctx context.Context, userID string, notifications []Notification) error
	Load(ctx context.Context, userID string) ([]Notification, error)
	Clear(ctx context.Context, userID string) error
}

// SessionListener is notified when the session identity changes
type SessionListener interface {
	OnLogin(ctx context.Context, user *User)
	OnLogout(ctx context.Context)
}

// SessionManager owns authentication state for one dashboard client
type SessionManager interface {
	State() SessionState
	Login(ctx context.Context, user *User, tokens Tokens) error
	Logout(ctx context.Context) error
	LoginWithPassword(ctx context.Context, email, password string) error
	Bootstrap(ctx context.Context) error
	AddListener(l SessionListener)
}

// TokenService issues and validates the signed client-session cookie
type TokenService interface {
	IssueClientToken(clientID string) (string, error)
	ValidateClientToken(token string) (*ClientClaims, error)
}

// ClientClaims represents client-session token claims
type ClientClaims struct {
	ClientID  string `json:"client_id"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// PolicyService defines authorization policy operations
type PolicyService interface {
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
	CheckPermission(role, resource, action string) (bool, error)
	GetPolicies() [][]string
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
	SavePolicy() error
}
