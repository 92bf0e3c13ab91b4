package bing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/logger"
)

// ProviderName identifies Bing results and errors.
const ProviderName = "bing"

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second
	DefaultCount   = 10
	MaxCount       = 50

	// headerAPIKey carries the subscription key.
	//nolint:gosec // G101: header name, not a credential.
	headerAPIKey = "Ocp-Apim-Subscription-Key"

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 512
)

// Ensure Provider implements the interface.
var _ driven.SearchProvider = (*Provider)(nil)

// Provider is the general web-search provider.
type Provider struct {
	client      *http.Client
	endpoint    *url.URL
	apiKey      string
	market      string
	count       int
	rateLimiter *RateLimiter
	now         func() time.Time
}

// searchResponse is the subset of the v7 response we read.
type searchResponse struct {
	WebPages struct {
		Value []webPage `json:"value"`
	} `json:"webPages"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type webPage struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// NewProvider creates a Bing provider from settings.
func NewProvider(cfg domain.BingSettings) (*Provider, error) {
	return NewProviderWithHTTPClient(cfg, &http.Client{Timeout: DefaultTimeout})
}

// NewProviderWithHTTPClient creates a Bing provider with a custom http.Client.
func NewProviderWithHTTPClient(cfg domain.BingSettings, httpClient *http.Client) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyMissing
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = domain.DefaultBingEndpoint
	}
	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil || endpoint.Host == "" {
		return nil, fmt.Errorf("bing: invalid endpoint %q", cfg.Endpoint)
	}
	if cfg.Count <= 0 {
		cfg.Count = DefaultCount
	}
	if cfg.Count > MaxCount {
		cfg.Count = MaxCount
	}

	return &Provider{
		client:      httpClient,
		endpoint:    endpoint,
		apiKey:      cfg.APIKey,
		market:      cfg.Market,
		count:       cfg.Count,
		rateLimiter: NewRateLimiter(DefaultRateLimit),
		now:         time.Now,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return ProviderName
}

// RateLimiter returns the rate limiter for external access.
func (p *Provider) RateLimiter() *RateLimiter {
	return p.rateLimiter
}

// Search returns web pages matching query, best keyword match first.
func (p *Provider) Search(ctx context.Context, query string, timeout time.Duration) ([]domain.SearchResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := p.now()
	pages, err := p.search(ctx, query)
	if err != nil {
		return nil, toProviderError(err, p.now())
	}

	fetched := p.now()
	words := keywords(query)
	results := make([]domain.SearchResult, 0, len(pages))
	for _, page := range pages {
		results = append(results, domain.SearchResult{
			Source:         ProviderName,
			URL:            page.URL,
			Title:          page.Name,
			Snippet:        page.Snippet,
			RelevanceScore: relevance(page, words),
			FetchedAt:      fetched,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})

	logger.Debug("Bing: %d pages for %q in %s", len(results), query, fetched.Sub(start))
	return results, nil
}

func (p *Provider) search(ctx context.Context, query string) ([]webPage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := *p.endpoint
	params := u.Query()
	params.Set("q", query)
	params.Set("count", strconv.Itoa(p.count))
	if p.market != "" {
		params.Set("mkt", p.market)
	}

	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(headerAPIKey, p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.apiError(resp)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if body.Error != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: body.Error.Message}
	}
	return body.WebPages.Value, nil
}

// apiError builds an APIError and records a backoff window on 429.
func (p *Provider) apiError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(raw)),
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		p.rateLimiter.RecordRateLimitError(apiErr.RetryAfter)
	}
	return apiErr
}

func parseRetryAfter(v string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// keywords returns the distinct lowercase whitespace-separated words of query.
func keywords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	seen := make(map[string]struct{}, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// relevance scores 2 per keyword in the title and 1 per keyword in the
// snippet, normalised into [0, 1].
func relevance(page webPage, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	title := strings.ToLower(page.Name)
	snippet := strings.ToLower(page.Snippet)
	score := 0
	for _, k := range keywords {
		if strings.Contains(title, k) {
			score += 2
		}
		if strings.Contains(snippet, k) {
			score++
		}
	}
	return float64(score) / float64(3*len(keywords))
}
