// Package auth implements the DocuSign JWT Grant flow: a signed RS256
// assertion is exchanged for a short-lived access token which is cached for
// the remainder of the sync.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/ArpitKhatri1/docusign-connector/internal/config"
)

const (
	// tokenLifetime is the requested assertion validity (8 hours).
	tokenLifetime = 28800 * time.Second
	// oauthScope is the scope required for impersonated API access.
	oauthScope = "signature impersonation"
	// grantType is the OAuth 2.0 JWT bearer grant type.
	grantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	// exchangeTimeout bounds the token endpoint round trip.
	exchangeTimeout = 30 * time.Second
)

// HTTPClient interface for making HTTP requests (allows mocking in tests).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Error is an authentication failure. Auth failures are always fatal to a
// sync: no checkpoint may be written after one.
type Error struct {
	// StatusCode is the token endpoint HTTP status, or zero when the
	// failure happened before or without a response.
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("docusign auth: %s (status %d)", e.Message, e.StatusCode)
	}
	return "docusign auth: " + e.Message
}

// Authenticator obtains and caches DocuSign access tokens.
//
// Token refresh goes through a single-flight group so that concurrent
// envelope workers trigger at most one in-flight JWT exchange; readers see
// the updated token atomically.
type Authenticator struct {
	cfg        *config.Config
	httpClient HTTPClient
	logger     *slog.Logger
	tokenURL   string
	now        func() time.Time

	group singleflight.Group
	mu    sync.RWMutex
	token string
}

// Option configures the authenticator.
type Option func(*Authenticator)

// WithHTTPClient sets a custom HTTP client. This is primarily used for
// testing.
func WithHTTPClient(c HTTPClient) Option {
	return func(a *Authenticator) { a.httpClient = c }
}

// WithTokenURL overrides the token endpoint URL. This is primarily used for
// testing.
func WithTokenURL(u string) Option {
	return func(a *Authenticator) { a.tokenURL = u }
}

// WithLogger sets the logger used for auth events.
func WithLogger(l *slog.Logger) Option {
	return func(a *Authenticator) { a.logger = l }
}

// New creates an authenticator for the given configuration.
func New(cfg *config.Config, opts ...Option) *Authenticator {
	a := &Authenticator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: exchangeTimeout},
		logger:     slog.Default(),
		tokenURL:   fmt.Sprintf("https://%s/oauth/token", cfg.OAuthBaseURL),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Token returns the cached access token, performing an exchange on first
// use.
func (a *Authenticator) Token(ctx context.Context) (string, error) {
	a.mu.RLock()
	token := a.token
	a.mu.RUnlock()
	if token != "" {
		return token, nil
	}
	return a.Refresh(ctx)
}

// Refresh forces a new token exchange. Concurrent callers share a single
// in-flight exchange.
func (a *Authenticator) Refresh(ctx context.Context) (string, error) {
	v, err, _ := a.group.Do("token", func() (any, error) {
		token, err := a.exchange(ctx)
		if err != nil {
			return nil, err
		}
		a.mu.Lock()
		a.token = token
		a.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// exchange builds the signed assertion and posts it to the token endpoint.
func (a *Authenticator) exchange(ctx context.Context) (string, error) {
	assertion, err := a.buildAssertion()
	if err != nil {
		return "", err
	}

	form := url.Values{
		"grant_type": {grantType},
		"assertion":  {assertion},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &Error{Message: fmt.Sprintf("failed to create token request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", &Error{Message: fmt.Sprintf("token request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Message: fmt.Sprintf("failed to read token response: %v", err)}
	}

	if resp.StatusCode >= 400 {
		return "", &Error{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("token endpoint returned %s", strings.TrimSpace(string(body))),
		}
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", &Error{Message: fmt.Sprintf("failed to parse token response: %v", err)}
	}
	if tokenResp.AccessToken == "" {
		return "", &Error{Message: "token response did not include access_token"}
	}

	a.logger.Info("access token obtained", slog.String("token", MaskToken(tokenResp.AccessToken)))
	return tokenResp.AccessToken, nil
}

// buildAssertion signs the JWT grant claims with the configured private key.
func (a *Authenticator) buildAssertion() (string, error) {
	pemKey, err := a.cfg.PrivateKeyPEM()
	if err != nil {
		return "", err
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pemKey))
	if err != nil {
		return "", &Error{Message: fmt.Sprintf("failed to parse private key: %v", err)}
	}

	now := a.now()
	claims := jwt.MapClaims{
		"iss":   a.cfg.IntegrationKey,
		"sub":   a.cfg.UserID,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenLifetime).Unix(),
		"aud":   a.cfg.OAuthBaseURL,
		"scope": oauthScope,
	}

	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", &Error{Message: fmt.Sprintf("failed to sign assertion: %v", err)}
	}
	return assertion, nil
}

// MaskToken redacts a token for log output, keeping only the last six
// characters.
func MaskToken(token string) string {
	const visible = 6
	if token == "" {
		return ""
	}
	if len(token) <= visible {
		return token
	}
	return "..." + token[len(token)-visible:]
}

// IsAuthError reports whether err came from the token exchange.
func IsAuthError(err error) bool {
	var authErr *Error
	return errors.As(err, &authErr)
}
