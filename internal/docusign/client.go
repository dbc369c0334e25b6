// Package docusign is a client for the DocuSign eSignature REST API, scoped
// to a single account. It handles bearer authentication, pagination,
// rate-limit and server-error retries, and binary document downloads.
package docusign

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/ArpitKhatri1/docusign-connector/internal/metrics"
)

const (
	// apiVersion is the eSignature REST API version.
	apiVersion = "v2.1"
	// pageSize is the page size for list endpoints.
	pageSize = 100

	// DefaultTimeout bounds JSON API requests.
	DefaultTimeout = 30 * time.Second
	// DefaultDownloadTimeout bounds binary document downloads.
	DefaultDownloadTimeout = 60 * time.Second

	// maxAttempts is the total number of attempts for a JSON request.
	maxAttempts = 3
	// initialBackoff is the first retry delay; it doubles per attempt.
	initialBackoff = time.Second

	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerAccept        = "Accept"
	contentTypeJSON     = "application/json"
)

// TokenSource supplies bearer tokens for API requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client is a DocuSign eSignature API client.
type Client struct {
	baseURL        string
	accountID      string
	tokens         TokenSource
	httpClient     *http.Client
	downloadClient *http.Client
	logger         *slog.Logger
	retryDelay     time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for JSON requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithDownloadClient sets a custom HTTP client for binary downloads.
func WithDownloadClient(c *http.Client) Option {
	return func(cl *Client) { cl.downloadClient = c }
}

// WithLogger sets the logger used for request warnings.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// WithRetryDelay overrides the initial retry backoff. This is primarily
// used for testing.
func WithRetryDelay(d time.Duration) Option {
	return func(cl *Client) { cl.retryDelay = d }
}

// NewClient creates a client for the given API base URL and account.
func NewClient(baseURL, accountID string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:        baseURL,
		accountID:      accountID,
		tokens:         tokens,
		httpClient:     &http.Client{Timeout: DefaultTimeout},
		downloadClient: &http.Client{Timeout: DefaultDownloadTimeout},
		logger:         slog.Default(),
		retryDelay:     initialBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// accountURL composes {base_url}/v2.1/accounts/{account_id}{path}.
func (c *Client) accountURL(path string) string {
	return fmt.Sprintf("%s/%s/accounts/%s%s", c.baseURL, apiVersion, c.accountID, path)
}

// getJSON performs an authenticated GET and decodes the JSON response into
// result. Rate limits (429), server errors (>=500) and network failures are
// retried with exponential backoff; 401 and other client errors surface
// immediately.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, result any) error {
	reqURL := c.accountURL(path)
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	body, err := retry.DoWithData(
		func() ([]byte, error) {
			return c.doJSON(ctx, endpoint, reqURL)
		},
		retry.Context(ctx),
		retry.Attempts(maxAttempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(attempt uint, err error) {
			metrics.APIRetriesTotal.Inc()
			c.logger.Warn("request failed, retrying",
				slog.String("endpoint", endpoint),
				slog.Uint64("attempt", uint64(attempt)+1),
				slog.String("error", err.Error()),
			)
		}),
	)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.IsAuth() {
			c.logger.Error("authentication failed, check the access token",
				slog.String("endpoint", endpoint))
		} else {
			c.logger.Error("API request failed",
				slog.String("endpoint", endpoint),
				slog.String("error", err.Error()),
			)
		}
		return err
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to parse %s response: %w", endpoint, err)
		}
	}
	return nil
}

// doJSON executes a single JSON request attempt.
func (c *Client) doJSON(ctx context.Context, endpoint, reqURL string) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		// Token failures are auth failures; never retried here.
		return nil, retry.Unrecoverable(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set(headerAuthorization, "Bearer "+token)
	req.Header.Set(headerContentType, contentTypeJSON)
	req.Header.Set(headerAccept, contentTypeJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	metrics.APIRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, parseError(resp.StatusCode, body)
	}
	return body, nil
}

// isRetryable selects the outcomes worth another attempt: rate limits,
// server errors, and network failures.
func isRetryable(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	// Network or timeout error.
	return true
}

// getBinary performs an authenticated GET returning the raw response body.
// Binary downloads are not retried.
func (c *Client) getBinary(ctx context.Context, endpoint, path string) ([]byte, error) {
	reqURL := c.accountURL(path)

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(headerAuthorization, "Bearer "+token)

	resp, err := c.downloadClient.Do(req)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	metrics.APIRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, parseError(resp.StatusCode, body)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read document content: %w", err)
	}
	return content, nil
}
