package domain

import (
	"context"
	"time"
)

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// OTP handshake events
	OTPRequestEvent      AuditEventType = "OTP_REQUESTED"
	OTPRequestFailEvent  AuditEventType = "OTP_REQUEST_FAILED"
	OTPVerifyEvent       AuditEventType = "OTP_VERIFIED"
	OTPVerifyFailEvent   AuditEventType = "OTP_VERIFICATION_FAILED"
	OTPHandshakeEndEvent AuditEventType = "OTP_HANDSHAKE_DISMISSED"

	// Session events
	UserLoginEvent        AuditEventType = "USER_LOGIN"
	UserLoginFailureEvent AuditEventType = "USER_LOGIN_FAILED"
	UserLogoutEvent       AuditEventType = "USER_LOGOUT"
	SessionRestoredEvent  AuditEventType = "SESSION_RESTORED"
	SessionRestoreFailed  AuditEventType = "SESSION_RESTORE_FAILED"

	// Notification events
	NotificationMutationFailedEvent AuditEventType = "NOTIFICATION_MUTATION_FAILED"
	NotificationReconciledEvent     AuditEventType = "NOTIFICATION_RECONCILED"

	// Authorization events
	AccessDeniedEvent AuditEventType = "ACCESS_DENIED"
)

// AuditEvent represents a business event that occurred in a dashboard client
type AuditEvent struct {
	EventType AuditEventType         `json:"event_type"`
	ClientID  string                 `json:"client_id,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`
	Phone     string                 `json:"phone,omitempty"`
	Email     string                 `json:"email,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	ErrorMsg  string                 `json:"error_msg,omitempty"`
	Success   bool                   `json:"success"`
}

// AuditLogger defines operations for audit logging
type AuditLogger interface {
	LogEvent(ctx context.Context, event *AuditEvent) error
}

// NewAuditEvent creates a new audit event with common fields populated
func NewAuditEvent(eventType AuditEventType, clientID string) *AuditEvent {
	return &AuditEvent{
		EventType: eventType,
		ClientID:  clientID,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]interface{}),
		Success:   true,
	}
}

// WithError sets error information on the audit event
func (e *AuditEvent) WithError(err error) *AuditEvent {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithUser sets the user fields
func (e *AuditEvent) WithUser(user *User) *AuditEvent {
	if user != nil {
		e.UserID = user.ID
		e.Email = user.Email
		e.Phone = user.Phone
	}
	return e
}

// WithPhone sets the phone field
func (e *AuditEvent) WithPhone(phone string) *AuditEvent {
	e.Phone = phone
	return e
}

// WithEmail sets the email field
func (e *AuditEvent) WithEmail(email string) *AuditEvent {
	e.Email = email
	return e
}

// WithMetadata adds metadata to the event
func (e *AuditEvent) WithMetadata(key string, value interface{}) *AuditEvent {
	e.Metadata[key] = value
	return e
}
