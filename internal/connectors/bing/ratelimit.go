package bing

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultRateLimit stays under the S1 tier's 250 transactions per second
// by a wide margin while letting a burst of concurrent queries through.
var DefaultRateLimit = RateLimitConfig{RequestsPerSecond: 10, BurstSize: 20}

// defaultBackoff is used when a 429 carries no Retry-After.
const defaultBackoff = 60 * time.Second

// RateLimiter provides rate limiting for Bing requests.
// It uses a token bucket with a backoff window for 429 responses.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.BurstSize < 1 {
		cfg.BurstSize = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// Wait blocks until a request can be made. It returns a BackoffError when a
// previous 429 asked for a longer wait than the context allows.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		if deadline, ok := ctx.Deadline(); ok && deadline.Before(retryAt) {
			return &BackoffError{RetryAt: retryAt}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAt)):
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimitError sets a backoff window after a 429 response.
func (r *RateLimiter) RecordRateLimitError(retryAfter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if retryAfter <= 0 {
		retryAfter = defaultBackoff
	}
	r.retryAt = time.Now().Add(retryAfter)
}

// RetryAt returns the end of the current backoff window.
func (r *RateLimiter) RetryAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retryAt
}
