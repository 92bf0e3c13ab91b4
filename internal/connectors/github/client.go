package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

const (
	// DefaultTimeout is the default HTTP request timeout. Provider calls
	// are normally bounded tighter by their context.
	DefaultTimeout = 30 * time.Second

	// MaxPerPage caps results per search request.
	MaxPerPage = 30
)

// Client wraps the go-github client with rate limiting and error mapping.
type Client struct {
	gh          *gh.Client
	rateLimiter *RateLimiter
}

// NewClient creates a GitHub API client from settings. An empty token
// gives an anonymous client with the lower search quota.
func NewClient(ctx context.Context, cfg domain.GitHubSettings) (*Client, error) {
	var (
		httpClient *http.Client
		perMinute  = SearchRateUnauthenticated
	)
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.Token},
		)
		httpClient = oauth2.NewClient(ctx, ts)
		perMinute = SearchRateAuthenticated
	} else {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = DefaultTimeout

	client := &Client{
		gh:          gh.NewClient(httpClient),
		rateLimiter: NewRateLimiter(perMinute),
	}
	if err := client.setBaseURL(cfg.BaseURL); err != nil {
		return nil, err
	}
	return client, nil
}

// NewClientWithHTTPClient creates a GitHub client with a custom http.Client
// and API base URL. An empty baseURL keeps the public API.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, perMinute int) (*Client, error) {
	client := &Client{
		gh:          gh.NewClient(httpClient),
		rateLimiter: NewRateLimiter(perMinute),
	}
	if err := client.setBaseURL(baseURL); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) setBaseURL(raw string) error {
	if raw == "" || raw == domain.DefaultGitHubBaseURL {
		return nil
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, raw)
	}
	c.gh.BaseURL = u
	return nil
}

// GitHub returns the underlying go-github client.
func (c *Client) GitHub() *gh.Client {
	return c.gh
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// SearchRepositories runs one repository search sorted by stars.
func (c *Client) SearchRepositories(ctx context.Context, query string, perPage int) ([]*gh.Repository, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if perPage < 1 || perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.SearchOptions{
		Sort:        "stars",
		Order:       "desc",
		ListOptions: gh.ListOptions{PerPage: perPage},
	}
	result, resp, err := c.gh.Search.Repositories(ctx, query, opts)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, c.wrapError(err, "search repositories")
	}

	repos := result.Repositories
	if len(repos) > perPage {
		repos = repos[:perPage]
	}
	return repos, nil
}

// updateRateLimitFromResponse updates the rate limiter from GitHub response headers.
func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		c.rateLimiter.Exhaust(rateLimitErr.Rate.Reset.Time)
		return &RateLimitError{
			ResetAt:   rateLimitErr.Rate.Reset.Time,
			Remaining: rateLimitErr.Rate.Remaining,
			Limit:     rateLimitErr.Rate.Limit,
		}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		resetAt := time.Now()
		if abuseErr.RetryAfter != nil {
			resetAt = resetAt.Add(*abuseErr.RetryAfter)
		}
		c.rateLimiter.Exhaust(resetAt)
		return &RateLimitError{ResetAt: resetAt, Limit: c.rateLimiter.Limit()}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
		if ghErr.Response.Request != nil && ghErr.Response.Request.URL != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return apiErr
	}

	return fmt.Errorf("%s: %w", operation, err)
}
