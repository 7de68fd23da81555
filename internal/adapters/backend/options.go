package backend

import (
	"net/http"
	"time"

	"github.com/okian/internboard/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every call. Zero disables the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithToken sets a static bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithCredentials sets the login used when no valid token is held.
func WithCredentials(email, password string) Option {
	return func(c *Client) {
		c.email = email
		c.password = password
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock overrides time.Now for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithExpirySkew sets how early before exp a token is treated as expired.
func WithExpirySkew(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.skew = d
		}
	}
}
