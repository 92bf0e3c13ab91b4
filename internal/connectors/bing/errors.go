package bing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// Bing-specific errors.
var (
	// ErrAPIKeyMissing indicates the provider was built without an API key.
	ErrAPIKeyMissing = errors.New("bing: API key is required")

	// ErrEmptyQuery indicates a search was attempted without a query.
	ErrEmptyQuery = errors.New("bing: empty search query")
)

// APIError represents a non-2xx Bing response.
type APIError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("bing: API error %d", e.StatusCode)
	}
	return fmt.Sprintf("bing: API error %d: %s", e.StatusCode, e.Message)
}

// BackoffError is returned without a request while a 429 backoff window
// is still open.
type BackoffError struct {
	RetryAt time.Time
}

func (e *BackoffError) Error() string {
	return fmt.Sprintf("bing: backing off until %s", e.RetryAt.Format(time.RFC3339))
}

// toProviderError translates client errors into domain provider errors.
func toProviderError(err error, now time.Time) error {
	if err == nil {
		return nil
	}

	pe := domain.NewProviderError(ProviderName, domain.ErrTransport, err)

	var apiErr *APIError
	var backoffErr *BackoffError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		pe.Kind = domain.ErrTimeout
	case errors.Is(err, ErrAPIKeyMissing):
		pe.Kind = domain.ErrProviderNotConfigured
	case errors.As(err, &backoffErr):
		pe.Kind = domain.ErrRateLimited
		if backoffErr.RetryAt.After(now) {
			pe.RetryAfter = backoffErr.RetryAt.Sub(now)
		}
	case errors.As(err, &apiErr):
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized, apiErr.StatusCode == http.StatusForbidden:
			pe.Kind = domain.ErrUnauthorized
		case apiErr.StatusCode == http.StatusTooManyRequests:
			pe.Kind = domain.ErrRateLimited
			pe.RetryAfter = apiErr.RetryAfter
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			// The same request is rejected again.
			pe.Kind = domain.ErrInvalidInput
		}
	}
	return pe
}
