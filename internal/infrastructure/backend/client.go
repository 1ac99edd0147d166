package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gautamkumarcode/propmize-admin/domain"
	"go.uber.org/zap"
)

// Options configures the marketplace REST client
type Options struct {
	BaseURL        string
	QueryRetries   int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	AccessTokenKey string
}

// Client talks to the marketplace backend on behalf of one dashboard client.
// It implements domain.AuthAPI and domain.NotificationAPI.
type Client struct {
	http   *http.Client
	opts   Options
	tokens domain.TokenStorage
	logger *zap.Logger
}

// NewClient creates a backend client. httpClient is shared between dashboard
// clients; tokens is the calling client's own storage.
func NewClient(httpClient *http.Client, opts Options, tokens domain.TokenStorage, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{
		http:   httpClient,
		opts:   opts,
		tokens: tokens,
		logger: logger,
	}
}

// NewHTTPClient builds the shared transport client used by every Client
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// envelope is the marketplace response wrapper
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (e *envelope) serverMessage() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// query performs a GET with the read retry policy
func (c *Client) query(ctx context.Context, op, path string, out interface{}) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.opts.RetryBaseDelay
	policy.MaxInterval = c.opts.RetryMaxDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0

	retries := c.opts.QueryRetries
	if retries < 0 {
		retries = 0
	}

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := c.do(ctx, op, http.MethodGet, path, nil, out)
		if err == nil {
			return nil
		}
		// Client errors are final, including 429.
		if domain.IsAuth(err) || domain.IsNotFound(err) || errors.Is(err, domain.ErrInvalidResponse) {
			return backoff.Permanent(err)
		}
		c.logger.Debug("backend query failed",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Error(err))
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), ctx))
}

// mutate performs a write request; mutations never retry
func (c *Client) mutate(ctx context.Context, op, method, path string, body, out interface{}) error {
	return c.do(ctx, op, method, path, body, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.tokens != nil && c.opts.AccessTokenKey != "" {
		token, err := c.tokens.Get(ctx, c.opts.AccessTokenKey)
		if err != nil {
			return &domain.NetworkError{Op: op, Err: err}
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &domain.NetworkError{Op: op, Status: resp.StatusCode, Err: err}
	}

	var env envelope
	parseErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= http.StatusInternalServerError {
		return &domain.NetworkError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("server error")}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		msg := ""
		if parseErr == nil {
			msg = env.serverMessage()
		} else {
			msg = plainMessage(raw)
		}
		switch resp.StatusCode {
		case http.StatusNotFound, http.StatusConflict, http.StatusGone:
			return &domain.NotFoundError{Status: resp.StatusCode, ServerMessage: msg}
		}
		return &domain.AuthError{Status: resp.StatusCode, ServerMessage: msg}
	}

	if parseErr != nil {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrInvalidResponse, parseErr)
	}
	if env.Success != nil && !*env.Success {
		return &domain.AuthError{Status: resp.StatusCode, ServerMessage: env.serverMessage()}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s: %w: %v", op, domain.ErrInvalidResponse, err)
		}
	}
	return nil
}

// plainMessage extracts a short text body, mirroring backends that reply with a bare string
func plainMessage(raw []byte) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(raw))
	if text == "" || strings.HasPrefix(text, "<") {
		return ""
	}
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
