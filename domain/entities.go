package domain

import (
	"strconv"
	"time"
)

// Role is the dashboard role a user signs in with
type Role string

const (
	RoleAdmin Role = "admin"
	RoleAgent Role = "agent"
)

// Valid reports whether r is one of the selectable dashboard roles
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleAgent
}

// User represents the identity record returned by the marketplace backend
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DisplayName returns the name shown in greetings, falling back to the phone
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Phone
}

// Tokens is the credential pair issued by the backend
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult represents a successful authentication outcome
type AuthResult struct {
	User   *User  `json:"user"`
	Tokens Tokens `json:"tokens"`
}

// OTPIssue is the backend answer to an OTP request
type OTPIssue struct {
	IsNewUser bool   `json:"isNewUser"`
	OTP       string `json:"otp"`
}

// SessionState is the read-only view of the current session
type SessionState struct {
	User            *User `json:"user"`
	IsAuthenticated bool  `json:"isAuthenticated"`
}

// OTPStep names a position in the OTP handshake
type OTPStep string

const (
	OTPStepIdle   OTPStep = "idle"
	OTPStepSent   OTPStep = "otp_sent"
	OTPStepClosed OTPStep = "closed"
)

// OTPState holds the handshake fields for one modal lifetime
type OTPState struct {
	Step      OTPStep `json:"step"`
	Phone     string  `json:"phone"`
	OTP       string  `json:"otp,omitempty"`
	IsOTPSent bool    `json:"isOtpSent"`
	IsNewUser bool    `json:"isNewUser"`
	Role      Role    `json:"role,omitempty"`
	// ServerIssuedOTP is echoed back by the backend in development deployments.
	ServerIssuedOTP string `json:"serverIssuedOtp,omitempty"`
}

// NotificationType classifies a notification
type NotificationType string

const (
	NotificationInfo     NotificationType = "info"
	NotificationSuccess  NotificationType = "success"
	NotificationWarning  NotificationType = "warning"
	NotificationError    NotificationType = "error"
	NotificationSystem   NotificationType = "system"
	NotificationProperty NotificationType = "property"
	NotificationMessage  NotificationType = "message"
)

// Known metadata keys
const (
	MetaPropertyTitle = "propertyTitle"
	MetaSenderName    = "senderName"
	MetaAmount        = "amount"
	MetaPropertyID    = "propertyId"
)

// Metadata is an open key-value map attached to a notification
type Metadata map[string]interface{}

// String returns the value under key when it is a string
func (m Metadata) String(key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// PropertyTitle returns the propertyTitle entry
func (m Metadata) PropertyTitle() string { return m.String(MetaPropertyTitle) }

// SenderName returns the senderName entry
func (m Metadata) SenderName() string { return m.String(MetaSenderName) }

// PropertyID returns the propertyId entry
func (m Metadata) PropertyID() string { return m.String(MetaPropertyID) }

// Amount returns the amount entry and whether it was numeric
func (m Metadata) Amount() (float64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[MetaAmount].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Notification is a single in-app notification for the current user
type Notification struct {
	ID        string           `json:"_id"`
	UserID    string           `json:"userId"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	ActionURL string           `json:"actionUrl,omitempty"`
	Metadata  Metadata         `json:"metadata,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt *time.Time       `json:"createdAt,omitempty"`
}

// NotificationFilter is a view-level projection over the synchronized set
type NotificationFilter string

const (
	FilterAll    NotificationFilter = "all"
	FilterUnread NotificationFilter = "unread"
)

// ParseNotificationFilter maps query input to a filter, defaulting to all
func ParseNotificationFilter(s string) NotificationFilter {
	if NotificationFilter(s) == FilterUnread {
		return FilterUnread
	}
	return FilterAll
}

// NotificationSnapshot is a complete, consistent view of the notification set
type NotificationSnapshot struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
	Version       uint64         `json:"version"`
}

// ClickAction is the navigation resolved from a notification click
type ClickAction struct {
	NavigateTo string `json:"navigateTo"`
	External   bool   `json:"external"`
}

// MutationResult reports the two phases of an optimistic notification mutation
type MutationResult struct {
	// Applied is true when the local set changed.
	Applied bool
	// Confirmed is true when the backend accepted the change.
	Confirmed bool
	Err       error
}

// OK reports whether the mutation either was a no-op or was confirmed
func (r MutationResult) OK() bool {
	return r.Err == nil
}
