package docusign

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Error represents an error response from the DocuSign API.
type Error struct {
	// StatusCode is the HTTP status code.
	StatusCode int `json:"-"`
	// ErrorCode is the DocuSign error code (e.g. "USER_AUTHENTICATION_FAILED").
	ErrorCode string `json:"errorCode"`
	// Message is a human-readable error message.
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("docusign: %s: %s (status %d)", e.ErrorCode, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("docusign: %s (status %d)", e.Message, e.StatusCode)
}

// IsAuth returns true if the error is an authentication failure.
func (e *Error) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsRateLimited returns true if the error is a rate limit error.
func (e *Error) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Temporary returns true if the request may succeed on retry.
func (e *Error) Temporary() bool {
	return e.IsRateLimited() || e.StatusCode >= 500
}

// parseError parses an error response body into an *Error.
func parseError(statusCode int, body []byte) error {
	apiErr := &Error{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err == nil && apiErr.Message != "" {
		return apiErr
	}

	// Fallback for non-JSON or empty bodies.
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	return &Error{StatusCode: statusCode, Message: msg}
}
