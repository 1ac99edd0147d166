package domain

import (
	"errors"
	"fmt"
)

// Session errors
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoStoredToken    = errors.New("no stored access token")
	ErrInvalidResponse  = errors.New("invalid backend response")
)

// OTP handshake errors
var (
	ErrOTPAlreadySent  = errors.New("otp already sent")
	ErrOTPNotSent      = errors.New("otp not sent")
	ErrHandshakeClosed = errors.New("otp handshake closed")
	ErrNoHandshake     = errors.New("no otp handshake open")
)

// Notification errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrSynchronizerInactive = errors.New("notification synchronizer inactive")
)

// Client session errors
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("malformed token")
)

// Authorization errors
var (
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrInsufficientRole = errors.New("insufficient role permissions")
)

// ValidationError is a client-side input failure detected before any network call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AuthError is a backend rejection of credentials, OTP or token
type AuthError struct {
	Status int
	// ServerMessage is the error string supplied by the backend, if any.
	ServerMessage string
	// Fallback is shown when the backend supplied no message.
	Fallback string
}

func (e *AuthError) Error() string {
	if e.ServerMessage != "" {
		return fmt.Sprintf("backend rejected request (%d): %s", e.Status, e.ServerMessage)
	}
	return fmt.Sprintf("backend rejected request (%d)", e.Status)
}

// NotFoundError is a backend report that the target record is gone or was
// changed underneath the caller (404, 409, 410)
type NotFoundError struct {
	Status        int
	ServerMessage string
	Fallback      string
}

func (e *NotFoundError) Error() string {
	if e.ServerMessage != "" {
		return fmt.Sprintf("backend record not found (%d): %s", e.Status, e.ServerMessage)
	}
	return fmt.Sprintf("backend record not found (%d)", e.Status)
}

// NetworkError is a transport failure, timeout or server-side fault
type NetworkError struct {
	Op       string
	Status   int
	Fallback string
	Err      error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: backend status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// WithFallback returns a copy of err whose display fallback is msg.
// Errors that already carry a server message keep it.
func WithFallback(err error, msg string) error {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		cp := *authErr
		cp.Fallback = msg
		return &cp
	}
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		cp := *notFound
		cp.Fallback = msg
		return &cp
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		cp := *netErr
		cp.Fallback = msg
		return &cp
	}
	return err
}

// DisplayMessage converts any error into the string shown to the user
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.Message
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		if authErr.ServerMessage != "" {
			return authErr.ServerMessage
		}
		if authErr.Fallback != "" {
			return authErr.Fallback
		}
		return "Request was rejected"
	}

	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		if notFound.ServerMessage != "" {
			return notFound.ServerMessage
		}
		if notFound.Fallback != "" {
			return notFound.Fallback
		}
		return "This item no longer exists"
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		if netErr.Fallback != "" {
			return netErr.Fallback
		}
		return "Network error, please try again"
	}

	switch {
	case errors.Is(err, ErrOTPAlreadySent):
		return "OTP already sent. Change the phone number to start over"
	case errors.Is(err, ErrOTPNotSent):
		return "Request an OTP first"
	case errors.Is(err, ErrHandshakeClosed), errors.Is(err, ErrNoHandshake):
		return "Sign-in window is closed"
	case errors.Is(err, ErrNotAuthenticated):
		return "Please sign in"
	case errors.Is(err, ErrSynchronizerInactive):
		return "Please sign in to view notifications"
	}
	return "Something went wrong"
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// IsAuth reports whether err is an AuthError
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsNetwork reports whether err is a NetworkError
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}
