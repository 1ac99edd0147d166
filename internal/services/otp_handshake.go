package services

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/gautamkumarcode/propmize-admin/domain"
	"go.uber.org/zap"
)

// Indian mobile numbers: ten digits, leading 6-9.
var phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

// ValidatePhone returns the validation error shown for a phone entry, or nil
func ValidatePhone(phone string) error {
	if phone == "" {
		return domain.NewValidationError("phone", "Enter phone number")
	}
	if !phonePattern.MatchString(phone) {
		return domain.NewValidationError("phone", "Enter a valid phone number")
	}
	return nil
}

// OTPHandshake drives one sign-in modal from phone entry to an established session.
//
// Steps move Idle -> OtpSent -> Closed. ChangePhoneNumber returns to Idle and
// Dismiss closes without touching the session. Backend calls run outside the
// state lock; a reply that arrives after the handshake was reset or dismissed
// is discarded.
type OTPHandshake struct {
	clientID string
	api      domain.AuthAPI
	session  domain.SessionManager
	audit    domain.AuditLogger
	logger   *zap.Logger

	// op serializes transitions the way a single UI event loop would.
	op sync.Mutex

	mu    sync.Mutex
	state domain.OTPState
	gen   uint64
}

// NewOTPHandshake opens a handshake in the Idle step
func NewOTPHandshake(clientID string, api domain.AuthAPI, session domain.SessionManager, audit domain.AuditLogger, logger *zap.Logger) *OTPHandshake {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OTPHandshake{
		clientID: clientID,
		api:      api,
		session:  session,
		audit:    audit,
		logger:   logger.With(zap.String("client_id", clientID)),
		state:    domain.OTPState{Step: domain.OTPStepIdle},
	}
}

// State returns a copy of the handshake fields
func (h *OTPHandshake) State() domain.OTPState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// SubmitPhone validates phone and requests an OTP for it
func (h *OTPHandshake) SubmitPhone(ctx context.Context, phone string) error {
	h.op.Lock()
	defer h.op.Unlock()

	phone = strings.TrimSpace(phone)

	h.mu.Lock()
	switch h.state.Step {
	case domain.OTPStepClosed:
		h.mu.Unlock()
		return domain.ErrHandshakeClosed
	case domain.OTPStepSent:
		h.mu.Unlock()
		return domain.ErrOTPAlreadySent
	}
	if err := ValidatePhone(phone); err != nil {
		h.mu.Unlock()
		return err
	}
	h.state.Phone = phone
	gen := h.gen
	h.mu.Unlock()

	issue, err := h.api.SendOTP(ctx, phone)
	if err != nil {
		err = domain.WithFallback(err, "Failed to send OTP")
		h.logEvent(ctx, domain.NewAuditEvent(domain.OTPRequestFailEvent, h.clientID).WithPhone(phone).WithError(err))
		return err
	}
	if issue == nil {
		issue = &domain.OTPIssue{}
	}

	h.mu.Lock()
	if h.gen != gen {
		step := h.state.Step
		h.mu.Unlock()
		if step == domain.OTPStepClosed {
			return domain.ErrHandshakeClosed
		}
		return nil
	}
	h.state.Step = domain.OTPStepSent
	h.state.IsOTPSent = true
	h.state.IsNewUser = issue.IsNewUser
	h.state.ServerIssuedOTP = issue.OTP
	h.state.OTP = ""
	h.mu.Unlock()

	h.logEvent(ctx, domain.NewAuditEvent(domain.OTPRequestEvent, h.clientID).
		WithPhone(phone).
		WithMetadata("is_new_user", issue.IsNewUser))
	return nil
}

// VerifyOTP submits the code and, for first-time users, the selected role.
// On success the session is established and the handshake closes.
func (h *OTPHandshake) VerifyOTP(ctx context.Context, otp string, role domain.Role) error {
	h.op.Lock()
	defer h.op.Unlock()

	otp = strings.TrimSpace(otp)

	h.mu.Lock()
	switch h.state.Step {
	case domain.OTPStepClosed:
		h.mu.Unlock()
		return domain.ErrHandshakeClosed
	case domain.OTPStepIdle:
		h.mu.Unlock()
		return domain.ErrOTPNotSent
	}
	h.state.OTP = otp
	if role != "" {
		h.state.Role = role
	}
	if otp == "" {
		h.mu.Unlock()
		return domain.NewValidationError("otp", "Enter OTP")
	}
	isNewUser := h.state.IsNewUser
	if isNewUser {
		if role == "" {
			h.mu.Unlock()
			return domain.NewValidationError("role", "Select a role")
		}
		if !role.Valid() {
			h.mu.Unlock()
			return domain.NewValidationError("role", "Select a valid role")
		}
	} else {
		role = ""
	}
	phone := h.state.Phone
	gen := h.gen
	h.mu.Unlock()

	res, err := h.api.VerifyOTP(ctx, phone, otp, role)
	if err != nil {
		err = domain.WithFallback(err, "Invalid OTP")
		h.logEvent(ctx, domain.NewAuditEvent(domain.OTPVerifyFailEvent, h.clientID).WithPhone(phone).WithError(err))
		return err
	}

	h.mu.Lock()
	stale := h.gen != gen
	h.mu.Unlock()
	if stale {
		// Dismissed or reset while the request was in flight.
		return domain.ErrHandshakeClosed
	}

	if err := h.session.Login(ctx, res.User, res.Tokens); err != nil {
		return err
	}

	h.mu.Lock()
	h.state = domain.OTPState{Step: domain.OTPStepClosed}
	h.gen++
	h.mu.Unlock()

	h.logEvent(ctx, domain.NewAuditEvent(domain.OTPVerifyEvent, h.clientID).WithUser(res.User))
	return nil
}

// ChangePhoneNumber discards the current attempt and returns to Idle
func (h *OTPHandshake) ChangePhoneNumber() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state.Step == domain.OTPStepClosed {
		return domain.ErrHandshakeClosed
	}
	h.state = domain.OTPState{Step: domain.OTPStepIdle}
	h.gen++
	return nil
}

// Dismiss closes the handshake without establishing a session
func (h *OTPHandshake) Dismiss(ctx context.Context) {
	h.mu.Lock()
	if h.state.Step == domain.OTPStepClosed {
		h.mu.Unlock()
		return
	}
	phone := h.state.Phone
	h.state = domain.OTPState{Step: domain.OTPStepClosed}
	h.gen++
	h.mu.Unlock()

	h.logEvent(ctx, domain.NewAuditEvent(domain.OTPHandshakeEndEvent, h.clientID).WithPhone(phone))
}

func (h *OTPHandshake) logEvent(ctx context.Context, event *domain.AuditEvent) {
	if h.audit == nil {
		return
	}
	if err := h.audit.LogEvent(ctx, event); err != nil {
		h.logger.Warn("failed to record audit event", zap.String("event", string(event.EventType)), zap.Error(err))
	}
}
