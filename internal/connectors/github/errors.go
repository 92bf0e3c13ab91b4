package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// GitHub-specific errors.
var (
	// ErrEmptyQuery indicates a search was attempted without a query.
	ErrEmptyQuery = errors.New("github: empty search query")

	// ErrInvalidBaseURL indicates the configured API base URL cannot be parsed.
	ErrInvalidBaseURL = errors.New("github: invalid base URL")
)

// RateLimitError represents a rate limit exceeded error with reset time.
type RateLimitError struct {
	ResetAt   time.Time
	Remaining int
	Limit     int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github: rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// APIError represents a GitHub API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}
	return false
}

// IsForbidden checks if the error indicates a forbidden resource.
func IsForbidden(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// isRejected reports a 4xx response that repeating the request will not fix.
func isRejected(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
}

// toProviderError translates client errors into domain provider errors.
func toProviderError(err error, now time.Time) error {
	if err == nil {
		return nil
	}

	var kind error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = domain.ErrTimeout
	case IsRateLimited(err):
		kind = domain.ErrRateLimited
	case IsUnauthorized(err), IsForbidden(err):
		kind = domain.ErrUnauthorized
	case isRejected(err):
		kind = domain.ErrInvalidInput
	default:
		kind = domain.ErrTransport
	}

	pe := domain.NewProviderError(ProviderName, kind, err)
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) && rateLimitErr.ResetAt.After(now) {
		pe.RetryAfter = rateLimitErr.ResetAt.Sub(now)
	}
	return pe
}
