package services

import (
	"context"
	"errors"
	"testing"

	"github.com/gautamkumarcode/propmize-admin/domain"
	"github.com/gautamkumarcode/propmize-admin/internal/mocks"
)

// createHandshakeForTest wires a handshake to a real session manager over mock storage
func createHandshakeForTest(t *testing.T, api *mocks.MockAuthAPI) (*OTPHandshake, *SessionManagerImpl, *mocks.MockTokenStorage) {
	t.Helper()

	sm, tokens, audit := createSessionManagerForTest(t, api, testSessionConfig)
	return NewOTPHandshake("client-test", api, sm, audit, nil), sm, tokens
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone       string
		expectedMsg string
	}{
		{"9876543210", ""},
		{"6000000000", ""},
		{"7999999999", ""},
		{"", "Enter phone number"},
		{"5876543210", "Enter a valid phone number"},
		{"0876543210", "Enter a valid phone number"},
		{"987654321", "Enter a valid phone number"},
		{"98765432101", "Enter a valid phone number"},
		{"98765abcde", "Enter a valid phone number"},
		{"+919876543210", "Enter a valid phone number"},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			err := ValidatePhone(tt.phone)
			if tt.expectedMsg == "" {
				if err != nil {
					t.Errorf("expected %q to be valid, got %v", tt.phone, err)
				}
				return
			}
			if !domain.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := domain.DisplayMessage(err); got != tt.expectedMsg {
				t.Errorf("expected %q, got %q", tt.expectedMsg, got)
			}
		})
	}
}

func TestOTPHandshake_SubmitPhone(t *testing.T) {
	tests := []struct {
		name         string
		phone        string
		setupMocks   func(*mocks.MockAuthAPI)
		expectedStep domain.OTPStep
		expectedMsg  string
		expectSent   bool
	}{
		{
			name:  "valid phone moves to otp sent",
			phone: "9876543210",
			setupMocks: func(api *mocks.MockAuthAPI) {
				api.SendOTPFunc = func(ctx context.Context, phone string) (*domain.OTPIssue, error) {
					return &domain.OTPIssue{IsNewUser: true, OTP: "123456"}, nil
				}
			},
			expectedStep: domain.OTPStepSent,
			expectSent:   true,
		},
		{
			name:         "invalid phone stays idle without network",
			phone:        "12345",
			setupMocks:   func(api *mocks.MockAuthAPI) {},
			expectedStep: domain.OTPStepIdle,
			expectedMsg:  "Enter a valid phone number",
		},
		{
			name:  "backend failure uses fallback message",
			phone: "9876543210",
			setupMocks: func(api *mocks.MockAuthAPI) {
				api.SendOTPFunc = func(ctx context.Context, phone string) (*domain.OTPIssue, error) {
					return nil, &domain.NetworkError{Op: "send_otp", Err: errors.New("timeout")}
				}
			},
			expectedStep: domain.OTPStepIdle,
			expectedMsg:  "Failed to send OTP",
		},
		{
			name:  "backend rejection shows server text",
			phone: "9876543210",
			setupMocks: func(api *mocks.MockAuthAPI) {
				api.SendOTPFunc = func(ctx context.Context, phone string) (*domain.OTPIssue, error) {
					return nil, &domain.AuthError{Status: 429, ServerMessage: "Too many OTP requests"}
				}
			},
			expectedStep: domain.OTPStepIdle,
			expectedMsg:  "Too many OTP requests",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := mocks.NewMockAuthAPI()
			calls := 0
			tt.setupMocks(api)
			inner := api.SendOTPFunc
			api.SendOTPFunc = func(ctx context.Context, phone string) (*domain.OTPIssue, error) {
				calls++
				if inner != nil {
					return inner(ctx, phone)
				}
				return &domain.OTPIssue{}, nil
			}

			h, _, _ := createHandshakeForTest(t, api)
			err := h.SubmitPhone(context.Background(), tt.phone)

			if tt.expectedMsg != "" {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if got := domain.DisplayMessage(err); got != tt.expectedMsg {
					t.Errorf("expected message %q, got %q", tt.expectedMsg, got)
				}
			} else if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			state := h.State()
			if state.Step != tt.expectedStep {
				t.Errorf("expected step %s, got %s", tt.expectedStep, state.Step)
			}
			if state.IsOTPSent != tt.expectSent {
				t.Errorf("expected isOtpSent=%v", tt.expectSent)
			}
			if domain.IsValidation(err) && calls != 0 {
				t.Error("validation failures must not reach the backend")
			}
			if tt.expectSent && state.ServerIssuedOTP != "123456" {
				t.Errorf("expected server issued otp to be kept, got %q", state.ServerIssuedOTP)
			}
		})
	}
}

func TestOTPHandshake_SubmitPhoneTwice(t *testing.T) {
	h, _, _ := createHandshakeForTest(t, mocks.NewMockAuthAPI())
	ctx := context.Background()

	if err := h.SubmitPhone(ctx, "9876543210"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.SubmitPhone(ctx, "9123456789"); !errors.Is(err, domain.ErrOTPAlreadySent) {
		t.Errorf("expected ErrOTPAlreadySent, got %v", err)
	}
	if h.State().Phone != "9876543210" {
		t.Errorf("expected first phone to be retained, got %s", h.State().Phone)
	}
}

func TestOTPHandshake_VerifyBeforeSend(t *testing.T) {
	h, _, _ := createHandshakeForTest(t, mocks.NewMockAuthAPI())

	if err := h.VerifyOTP(context.Background(), "123456", ""); !errors.Is(err, domain.ErrOTPNotSent) {
		t.Errorf("expected ErrOTPNotSent, got %v", err)
	}
}

func TestOTPHandshake_VerifyValidation(t *testing.T) {
	tests := []struct {
		name        string
		isNewUser   bool
		otp         string
		role        domain.Role
		expectedMsg string
	}{
		{"empty otp", false, " ", "", "Enter OTP"},
		{"new user without role", true, "123456", "", "Select a role"},
		{"new user with unknown role", true, "123456", "buyer", "Select a valid role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := mocks.NewMockAuthAPI()
			api.SendOTPFunc = func(ctx context.Context, phone string) (*domain.OTPIssue, error) {
				return &domain.OTPIssue{IsNewUser: tt.isNewUser}, nil
			}
			api.VerifyOTPFunc = func(ctx context.Context, phone, otp string, role domain.Role) (*domain.AuthResult, error) {
				t.Error("validation failures must not reach the backend")
				return nil, errors.New("unexpected")
			}

			h, _, _ := createHandshakeForTest(t, api)
			_ = h.SubmitPhone(context.Background(), "9876543210")

			err := h.VerifyOTP(context.Background(), tt.otp, tt.role)
			if got := domain.DisplayMessage(err); got != tt.expectedMsg {
				t.Errorf("expected %q, got %q", tt.expectedMsg, got)
			}
			if h.State().Step != domain.OTPStepSent {
				t.Errorf("expected to remain in otp_sent, got %s", h.State().Step)
			}
		})
	}
}

func TestOTPHandshake_RoleOnlyForNewUsers(t *testing.T) {
	tests := []struct {
		name         string
		isNewUser    bool
		role         domain.Role
		expectedRole domain.Role
	}{
		{"returning user never sends role", false, domain.RoleAdmin, ""},
		{"new user sends selected role", true, domain.RoleAgent, domain.RoleAgent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := mocks.NewMockAuthAPI()
			api.SendOTPFunc = func(ctx context.Context, phone string) (*domain.OTPIssue, error) {
				return &domain.OTPIssue{IsNewUser: tt.isNewUser}, nil
			}
			var sentRole domain.Role = "unset"
			api.VerifyOTPFunc = func(ctx context.Context, phone, otp string, role domain.Role) (*domain.AuthResult, error) {
				sentRole = role
				return &domain.AuthResult{
					User:   &domain.User{ID: "u1", Phone: phone},
					Tokens: domain.Tokens{AccessToken: "acc", RefreshToken: "ref"},
				}, nil
			}

			h, _, _ := createHandshakeForTest(t, api)
			ctx := context.Background()
			_ = h.SubmitPhone(ctx, "9876543210")
			if err := h.VerifyOTP(ctx, "123456", tt.role); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sentRole != tt.expectedRole {
				t.Errorf("expected role %q sent, got %q", tt.expectedRole, sentRole)
			}
		})
	}
}

// Wrong code keeps the phone and the step; the right code then signs in and closes.
func TestOTPHandshake_WrongThenRightCode(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	api.SendOTPFunc = func(ctx context.Context, phone string) (*domain.OTPIssue, error) {
		return &domain.OTPIssue{OTP: "123456"}, nil
	}
	api.VerifyOTPFunc = func(ctx context.Context, phone, otp string, role domain.Role) (*domain.AuthResult, error) {
		if otp != "123456" {
			return nil, &domain.AuthError{Status: 400}
		}
		return &domain.AuthResult{
			User:   &domain.User{ID: "u1", Phone: phone, Role: "agent"},
			Tokens: domain.Tokens{AccessToken: "acc", RefreshToken: "ref"},
		}, nil
	}

	h, sm, tokens := createHandshakeForTest(t, api)
	ctx := context.Background()

	if err := h.SubmitPhone(ctx, "9876543210"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.State().ServerIssuedOTP != "123456" {
		t.Fatalf("expected echoed otp, got %q", h.State().ServerIssuedOTP)
	}

	err := h.VerifyOTP(ctx, "000000", "")
	if got := domain.DisplayMessage(err); got != "Invalid OTP" {
		t.Errorf("expected \"Invalid OTP\", got %q", got)
	}
	state := h.State()
	if state.Step != domain.OTPStepSent || state.Phone != "9876543210" {
		t.Errorf("expected otp_sent with phone retained, got %+v", state)
	}
	if sm.State().IsAuthenticated {
		t.Error("wrong code must not establish a session")
	}

	if err := h.VerifyOTP(ctx, "123456", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.State().Step != domain.OTPStepClosed {
		t.Errorf("expected handshake to close, got %s", h.State().Step)
	}
	if !sm.State().IsAuthenticated {
		t.Error("expected session to be established")
	}
	if v, _ := tokens.Value("accessToken"); v != "acc" {
		t.Errorf("expected access token stored, got %q", v)
	}
	if err := h.VerifyOTP(ctx, "123456", ""); !errors.Is(err, domain.ErrHandshakeClosed) {
		t.Errorf("expected ErrHandshakeClosed after success, got %v", err)
	}
}

func TestOTPHandshake_ChangePhoneNumber(t *testing.T) {
	h, _, _ := createHandshakeForTest(t, mocks.NewMockAuthAPI())
	ctx := context.Background()

	_ = h.SubmitPhone(ctx, "9876543210")
	if err := h.ChangePhoneNumber(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := h.State()
	if state.Step != domain.OTPStepIdle || state.Phone != "" || state.IsOTPSent {
		t.Errorf("expected a clean idle state, got %+v", state)
	}
	if err := h.SubmitPhone(ctx, "9123456789"); err != nil {
		t.Errorf("expected a new phone to be accepted, got %v", err)
	}
}

func TestOTPHandshake_Dismiss(t *testing.T) {
	h, sm, _ := createHandshakeForTest(t, mocks.NewMockAuthAPI())
	ctx := context.Background()

	_ = h.SubmitPhone(ctx, "9876543210")
	h.Dismiss(ctx)

	if h.State().Step != domain.OTPStepClosed {
		t.Errorf("expected closed, got %s", h.State().Step)
	}
	if err := h.SubmitPhone(ctx, "9876543210"); !errors.Is(err, domain.ErrHandshakeClosed) {
		t.Errorf("expected ErrHandshakeClosed, got %v", err)
	}
	if err := h.ChangePhoneNumber(); !errors.Is(err, domain.ErrHandshakeClosed) {
		t.Errorf("expected ErrHandshakeClosed, got %v", err)
	}
	if sm.State().IsAuthenticated {
		t.Error("dismissal must not touch the session")
	}
}

func TestOTPHandshake_DismissedWhileSending(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	var h *OTPHandshake
	api.SendOTPFunc = func(ctx context.Context, phone string) (*domain.OTPIssue, error) {
		// Modal closed while the request was in flight.
		h.Dismiss(ctx)
		return &domain.OTPIssue{OTP: "123456"}, nil
	}
	h, _, _ = createHandshakeForTest(t, api)

	err := h.SubmitPhone(context.Background(), "9876543210")
	if !errors.Is(err, domain.ErrHandshakeClosed) {
		t.Errorf("expected ErrHandshakeClosed, got %v", err)
	}
	if h.State().ServerIssuedOTP != "" {
		t.Error("late reply must be discarded")
	}
}
