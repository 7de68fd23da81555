package backend

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/okian/internboard/pkg/metrics"
)

type tokenCtxKey struct{}

// ContextWithToken makes calls made with ctx use token instead of the
// client's own credentials.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, token)
}

// TokenFromContext returns the caller token set by ContextWithToken.
func TokenFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(tokenCtxKey{}).(string); ok {
		return v
	}
	return ""
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

// Login exchanges credentials for a bearer token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out loginResponse
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &out, false); err != nil {
		return "", err
	}
	token := out.Token
	if token == "" {
		token = out.AccessToken
	}
	if token == "" {
		return "", fmt.Errorf("login: %w: response carried no token", ErrUpstream)
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return token, nil
}

// Token returns the token currently held by the client.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) canLogin() bool {
	return c.email != "" && c.password != ""
}

// authToken picks the token for a request: the caller's, then a still-valid
// held token, then a fresh login. fromCtx reports the first case.
func (c *Client) authToken(ctx context.Context) (token string, fromCtx bool, err error) {
	if t := TokenFromContext(ctx); t != "" {
		return t, true, nil
	}
	held := c.Token()
	if held != "" && !c.expired(held) {
		return held, false, nil
	}
	if !c.canLogin() {
		// An expired static token is still sent; the backend decides.
		return held, false, nil
	}
	t, err := c.relogin(ctx, held)
	return t, false, err
}

// relogin replaces the stale service token. Callers that saw the same stale
// token while another login was in flight reuse its result.
func (c *Client) relogin(ctx context.Context, stale string) (string, error) {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()
	if held := c.Token(); held != "" && held != stale && !c.expired(held) {
		return held, nil
	}
	metrics.RecordBackendRelogin()
	return c.Login(ctx, c.email, c.password)
}

// expired reads the exp claim without verifying the signature. Tokens that
// are not JWTs, or carry no exp, never expire client-side.
func (c *Client) expired(token string) bool {
	return TokenExpired(token, c.now().Add(c.skew))
}

// TokenExpired reports whether token's exp claim is at or before at.
func TokenExpired(token string, at time.Time) bool {
	claims := &jwt.StandardClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == 0 {
		return false
	}
	return at.Unix() >= claims.ExpiresAt
}
