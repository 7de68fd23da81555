// Package backend is a typed client for the internship REST backend.
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
	"sync"
	"time"

	"github.com/okian/internboard/pkg/logger"
	"github.com/okian/internboard/pkg/metrics"
)

const (
	defaultTimeout = 10 * time.Second
	defaultSkew    = 30 * time.Second
	maxErrorBody   = 4 << 10
)

// Client talks to the backend over JSON/HTTP. It is safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	timeout  time.Duration
	email    string
	password string
	log      logger.Logger
	now      func() time.Time
	skew     time.Duration

	mu    sync.Mutex
	token string

	// loginMu serializes logins so one expiry costs one login.
	loginMu sync.Mutex
}

// New creates a backend client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		timeout: defaultTimeout,
		log:     logger.Nop(),
		now:     time.Now,
		skew:    defaultSkew,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized backend root.
func (c *Client) BaseURL() string { return c.baseURL }

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// do sends one request. in is JSON-encoded when non-nil; out is decoded from
// a 2xx body when non-nil. auth controls whether a bearer token is attached.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any, auth bool) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
	}

	token := ""
	fromCtx := false
	if auth {
		var err error
		if token, fromCtx, err = c.authToken(ctx); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	status, body, err := c.send(ctx, op, method, path, payload, token)
	if err != nil {
		return err
	}

	// A rejected service token is refreshed once.
	if status == http.StatusUnauthorized && auth && !fromCtx && c.canLogin() {
		c.log.Info(ctx, "backend rejected token, logging in again", logger.String("operation", op))
		if token, err = c.relogin(ctx, token); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if status, body, err = c.send(ctx, op, method, path, payload, token); err != nil {
			return err
		}
	}

	if err := statusError(op, method, path, status, body); err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: %w: decode response: %w", op, ErrUpstream, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, op, method, path string, payload []byte, token string) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordBackendRequest(op, "transport_error", elapsed)
		metrics.RecordErrorByComponent("backend", "transport")
		c.log.Error(ctx, "backend request failed",
			logger.String("operation", op),
			logger.String("method", method),
			logger.String("path", path),
			logger.Error(err))
		return 0, nil, fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordBackendRequest(op, "read_error", elapsed)
		return 0, nil, fmt.Errorf("%s: %w: read body: %w", op, ErrUpstream, err)
	}

	metrics.RecordBackendRequest(op, statusLabel(resp.StatusCode), elapsed)
	c.log.Debug(ctx, "backend request",
		logger.String("operation", op),
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Float64("latency_ms", elapsed))
	return resp.StatusCode, body, nil
}

// statusError maps a non-2xx status onto the package sentinel kinds.
func statusError(op, method, path string, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	var kind error
	switch status {
	case http.StatusNotFound:
		kind = ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = ErrUnauthorized
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = ErrBadRequest
	default:
		kind = ErrUpstream
	}
	return fmt.Errorf("%s: %w: %s %s returned %d%s", op, kind, method, path, status, describe(body))
}

func describe(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Message != "" {
			return ": " + eb.Message
		}
		if eb.Error != "" {
			return ": " + eb.Error
		}
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	if s := strings.TrimSpace(string(body)); s != "" && !strings.HasPrefix(s, "<") {
		return ": " + s
	}
	return ""
}

func statusLabel(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "ok"
	case code == http.StatusNotFound:
		return "not_found"
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return "unauthorized"
	case code >= 400 && code < 500:
		return "client_error"
	default:
		return "server_error"
	}
}

// IsNotFound reports whether err carries ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
