package domain

import (
	"fmt"
	"time"
)

// CacheSettings configures the two cache partitions.
type CacheSettings struct {
	// ContextCapacity bounds the selection cache partition.
	ContextCapacity int

	// SearchCapacity bounds the search-result cache partition.
	SearchCapacity int

	// ContextTTL is the lifetime of cached selections.
	ContextTTL time.Duration

	// SearchTTL is the lifetime of cached search results.
	// Must be strictly shorter than ContextTTL: the web changes faster.
	SearchTTL time.Duration

	// Shards splits each partition into independently locked segments.
	Shards int
}

// RouterSettings configures admission, timeouts and retries.
type RouterSettings struct {
	// MaxConcurrentRequests is the admission ceiling for provider dispatch.
	MaxConcurrentRequests int

	// MaxQueueDepth is how many requests may wait at the gate.
	// Zero means unbounded.
	MaxQueueDepth int

	// ProviderTimeout bounds every single provider call.
	ProviderTimeout time.Duration

	// RetryCount is the number of retries per provider after the first call.
	RetryCount int

	// RetryBackoffMin and RetryBackoffMax bound the exponential backoff.
	RetryBackoffMin time.Duration
	RetryBackoffMax time.Duration
}

// SelectionSettings configures the Context Selector and Aggregator.
type SelectionSettings struct {
	// K is the default number of contexts returned by a selection.
	K int

	// MaxResults truncates aggregated search results.
	MaxResults int

	// HalfLife is the recency decay half-life.
	HalfLife time.Duration

	// MinScore drops candidates scoring below it. Zero keeps all.
	MinScore float64

	// Strategy picks the weight profile. Empty means hybrid.
	Strategy SelectionStrategy
}

// GitHubSettings configures the code-search provider.
type GitHubSettings struct {
	Token   string
	BaseURL string
	PerPage int
}

// IsConfigured reports whether the provider can be used. GitHub search
// works unauthenticated at a lower rate limit.
func (g GitHubSettings) IsConfigured() bool {
	return true
}

// BingSettings configures the general web-search provider.
type BingSettings struct {
	APIKey   string
	Endpoint string
	Market   string
	Count    int
}

// IsConfigured reports whether an API key is present.
func (b BingSettings) IsConfigured() bool {
	return b.APIKey != ""
}

// ProviderSettings groups provider credentials and endpoints.
type ProviderSettings struct {
	GitHub GitHubSettings
	Bing   BingSettings
}

// Settings is the full configuration surface of the core.
type Settings struct {
	Cache     CacheSettings
	Router    RouterSettings
	Selection SelectionSettings
	Providers ProviderSettings

	// ContextsFile is an optional TOML file loaded at start.
	ContextsFile string
}

// Default endpoints.
const (
	DefaultGitHubBaseURL = "https://api.github.com/"
	DefaultBingEndpoint  = "https://api.bing.microsoft.com/v7.0/search"
)

// DefaultSettings returns sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		Cache: CacheSettings{
			ContextCapacity: 512,
			SearchCapacity:  256,
			ContextTTL:      10 * time.Minute,
			SearchTTL:       5 * time.Minute,
			Shards:          1,
		},
		Router: RouterSettings{
			MaxConcurrentRequests: 8,
			MaxQueueDepth:         64,
			ProviderTimeout:       10 * time.Second,
			RetryCount:            1,
			RetryBackoffMin:       200 * time.Millisecond,
			RetryBackoffMax:       2 * time.Second,
		},
		Selection: SelectionSettings{
			K:          5,
			MaxResults: 10,
			HalfLife:   7 * 24 * time.Hour,
			Strategy:   StrategyHybrid,
		},
		Providers: ProviderSettings{
			GitHub: GitHubSettings{BaseURL: DefaultGitHubBaseURL, PerPage: 10},
			Bing:   BingSettings{Endpoint: DefaultBingEndpoint, Market: "en-US", Count: 10},
		},
	}
}

// Validate checks cross-field constraints.
func (s Settings) Validate() error {
	switch {
	case s.Cache.ContextCapacity <= 0:
		return fmt.Errorf("%w: cache.context_capacity must be positive", ErrInvalidInput)
	case s.Cache.SearchCapacity <= 0:
		return fmt.Errorf("%w: cache.search_capacity must be positive", ErrInvalidInput)
	case s.Cache.SearchTTL <= 0:
		return fmt.Errorf("%w: cache.search_ttl must be positive", ErrInvalidInput)
	case s.Cache.SearchTTL >= s.Cache.ContextTTL:
		return fmt.Errorf("%w: cache.search_ttl (%s) must be shorter than cache.context_ttl (%s)",
			ErrInvalidInput, s.Cache.SearchTTL, s.Cache.ContextTTL)
	case s.Router.MaxConcurrentRequests <= 0:
		return fmt.Errorf("%w: router.max_concurrent_requests must be positive", ErrInvalidInput)
	case s.Router.MaxQueueDepth < 0:
		return fmt.Errorf("%w: router.max_queue_depth must be non-negative", ErrInvalidInput)
	case s.Router.ProviderTimeout <= 0:
		return fmt.Errorf("%w: router.provider_timeout must be positive", ErrInvalidInput)
	case s.Router.RetryCount < 0:
		return fmt.Errorf("%w: router.retry_count must be non-negative", ErrInvalidInput)
	case s.Router.RetryBackoffMin > s.Router.RetryBackoffMax:
		return fmt.Errorf("%w: router.retry_backoff_min exceeds router.retry_backoff_max", ErrInvalidInput)
	case s.Selection.K <= 0:
		return fmt.Errorf("%w: selection.k must be positive", ErrInvalidInput)
	case s.Selection.MaxResults <= 0:
		return fmt.Errorf("%w: selection.max_results must be positive", ErrInvalidInput)
	}
	if _, err := ParseSelectionStrategy(string(s.Selection.Strategy)); err != nil {
		return fmt.Errorf("selection.strategy: %w", err)
	}
	return nil
}
