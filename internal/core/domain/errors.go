package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID indicates an entity with the same id is already stored.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOverloaded indicates the admission gate queue is full.
	// Callers should back off and retry later.
	ErrOverloaded = errors.New("overloaded")

	// ErrAllProvidersUnavailable indicates every provider failed and no
	// cached entry existed to fall back on.
	ErrAllProvidersUnavailable = errors.New("all providers unavailable")

	// ErrProviderNotConfigured indicates a provider is missing credentials.
	ErrProviderNotConfigured = errors.New("provider not configured")

	// Provider Errors.

	// ErrTimeout indicates a provider call exceeded its timeout.
	ErrTimeout = errors.New("provider timeout")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnauthorized indicates the provider rejected our credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTransport indicates a network or protocol failure.
	ErrTransport = errors.New("transport error")
)

// ProviderError is a failure reported by a search provider adapter.
// Kind is one of ErrTimeout, ErrRateLimited, ErrUnauthorized or ErrTransport.
type ProviderError struct {
	Provider   string
	Kind       error
	RetryAfter time.Duration
	Err        error
}

// NewProviderError builds a ProviderError.
func NewProviderError(provider string, kind, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: cause}
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsRetryable reports whether a provider error is transient.
// Unauthorized failures and caller errors are never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrProviderNotConfigured) {
		return false
	}
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrTransport)
}

// RetryAfter extracts a provider-suggested wait, or zero.
func RetryAfter(err error) time.Duration {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.RetryAfter
	}
	return 0
}
