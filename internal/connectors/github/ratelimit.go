package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// SearchRateAuthenticated is the authenticated search quota per minute.
	SearchRateAuthenticated = 30

	// SearchRateUnauthenticated is the anonymous search quota per minute.
	SearchRateUnauthenticated = 10

	// HeaderRateLimit is the rate limit header.
	HeaderRateLimit = "X-RateLimit-Limit"

	// HeaderRateRemaining is the remaining requests header.
	HeaderRateRemaining = "X-RateLimit-Remaining"

	// HeaderRateReset is the reset timestamp header (Unix seconds).
	HeaderRateReset = "X-RateLimit-Reset"

	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"
)

// RateLimiter implements dual-strategy rate limiting for the search API.
type RateLimiter struct {
	mu        sync.Mutex
	remaining int           // From API header
	limit     int           // From API header
	resetTime time.Time     // From API header
	bucket    *rate.Limiter // Proactive throttling
}

// NewRateLimiter creates a rate limiter for a per-minute quota. The bucket
// holds a full minute of requests so short bursts are not delayed.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &RateLimiter{
		remaining: perMinute, // Assume full quota initially
		limit:     perMinute,
		bucket:    rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute),
	}
}

// Wait blocks until it's safe to make a request. When the quota is
// exhausted and the reset lies beyond the context deadline it returns a
// RateLimitError instead of waiting.
func (r *RateLimiter) Wait(ctx context.Context) error {
	// 1. Check token bucket (proactive throttling)
	if err := r.bucket.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return r.limitError()
	}

	// 2. Check API limit (reactive)
	r.mu.Lock()
	remaining := r.remaining
	resetTime := r.resetTime
	r.mu.Unlock()

	if remaining > 0 || !time.Now().Before(resetTime) {
		return nil
	}
	if deadline, ok := ctx.Deadline(); ok && deadline.Before(resetTime) {
		return r.limitError()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Until(resetTime)):
		return nil
	}
}

// UpdateFromResponse updates rate limit state from response headers.
func (r *RateLimiter) UpdateFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if remaining := resp.Header.Get(HeaderRateRemaining); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			r.remaining = val
		}
	}

	if limit := resp.Header.Get(HeaderRateLimit); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			r.limit = val
		}
	}

	if reset := resp.Header.Get(HeaderRateReset); reset != "" {
		if val, err := strconv.ParseInt(reset, 10, 64); err == nil {
			r.resetTime = time.Unix(val, 0)
		}
	}
}

// Exhaust records a rejected request: no quota is left until resetAt.
func (r *RateLimiter) Exhaust(resetAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remaining = 0
	if resetAt.After(r.resetTime) {
		r.resetTime = resetAt
	}
}

// Remaining returns the current remaining requests.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// Limit returns the rate limit.
func (r *RateLimiter) Limit() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limit
}

// ResetTime returns the rate limit reset time.
func (r *RateLimiter) ResetTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetTime
}

func (r *RateLimiter) limitError() *RateLimitError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &RateLimitError{
		ResetAt:   r.resetTime,
		Remaining: r.remaining,
		Limit:     r.limit,
	}
}
