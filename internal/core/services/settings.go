package services

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyContextCapacity = "cache.context_capacity"
	keySearchCapacity  = "cache.search_capacity"
	keyContextTTL      = "cache.context_ttl"
	keySearchTTL       = "cache.search_ttl"
	keyCacheShards     = "cache.shards"

	keyMaxConcurrent   = "router.max_concurrent_requests"
	keyMaxQueueDepth   = "router.max_queue_depth"
	keyProviderTimeout = "router.provider_timeout"
	keyRetryCount      = "router.retry_count"
	keyBackoffMin      = "router.retry_backoff_min"
	keyBackoffMax      = "router.retry_backoff_max"

	keySelectionK   = "selection.k"
	keyMaxResults   = "selection.max_results"
	keyHalfLife     = "selection.half_life"
	keyMinScore     = "selection.min_score"
	keyStrategy     = "selection.strategy"
	keyContextsFile = "contexts.file"

	keyGitHubToken   = "providers.github.token"
	keyGitHubBaseURL = "providers.github.base_url"
	keyGitHubPerPage = "providers.github.per_page"
	keyBingAPIKey    = "providers.bing.api_key"
	keyBingEndpoint  = "providers.bing.endpoint"
	keyBingMarket    = "providers.bing.market"
	keyBingCount     = "providers.bing.count"
)

// Environment variables that override stored credentials.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvGitHubToken  = "GITHUB_TOKEN"
	EnvGitHubAPIKey = "GITHUB_API_KEY"
	EnvBingAPIKey   = "BING_API_KEY"
	EnvBingURL      = "BING_SEARCH_URL"
)

// SettingsService maps configuration keys to domain settings.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get retrieves current settings. Unset or unparseable keys take their
// defaults; provider credentials in the environment win over the file.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := &domain.Settings{
		Cache: domain.CacheSettings{
			ContextCapacity: s.getInt(keyContextCapacity, d.Cache.ContextCapacity),
			SearchCapacity:  s.getInt(keySearchCapacity, d.Cache.SearchCapacity),
			ContextTTL:      s.getDuration(keyContextTTL, d.Cache.ContextTTL),
			SearchTTL:       s.getDuration(keySearchTTL, d.Cache.SearchTTL),
			Shards:          s.getInt(keyCacheShards, d.Cache.Shards),
		},
		Router: domain.RouterSettings{
			MaxConcurrentRequests: s.getInt(keyMaxConcurrent, d.Router.MaxConcurrentRequests),
			MaxQueueDepth:         s.getInt(keyMaxQueueDepth, d.Router.MaxQueueDepth),
			ProviderTimeout:       s.getDuration(keyProviderTimeout, d.Router.ProviderTimeout),
			RetryCount:            s.getInt(keyRetryCount, d.Router.RetryCount),
			RetryBackoffMin:       s.getDuration(keyBackoffMin, d.Router.RetryBackoffMin),
			RetryBackoffMax:       s.getDuration(keyBackoffMax, d.Router.RetryBackoffMax),
		},
		Selection: domain.SelectionSettings{
			K:          s.getInt(keySelectionK, d.Selection.K),
			MaxResults: s.getInt(keyMaxResults, d.Selection.MaxResults),
			HalfLife:   s.getDuration(keyHalfLife, d.Selection.HalfLife),
			MinScore:   s.getFloat(keyMinScore, d.Selection.MinScore),
			Strategy:   domain.SelectionStrategy(strings.ToLower(s.getString(keyStrategy, string(d.Selection.Strategy)))),
		},
		Providers: domain.ProviderSettings{
			GitHub: domain.GitHubSettings{
				Token:   s.configStore.GetString(keyGitHubToken),
				BaseURL: s.getString(keyGitHubBaseURL, d.Providers.GitHub.BaseURL),
				PerPage: s.getInt(keyGitHubPerPage, d.Providers.GitHub.PerPage),
			},
			Bing: domain.BingSettings{
				APIKey:   s.configStore.GetString(keyBingAPIKey),
				Endpoint: s.getString(keyBingEndpoint, d.Providers.Bing.Endpoint),
				Market:   s.getString(keyBingMarket, d.Providers.Bing.Market),
				Count:    s.getInt(keyBingCount, d.Providers.Bing.Count),
			},
		},
		ContextsFile: s.configStore.GetString(keyContextsFile),
	}
	s.applyEnv(settings)

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("load settings from %s: %w", s.configStore.Path(), err)
	}
	return settings, nil
}

// Save validates and persists settings. Credentials that came from the
// environment are written only if the caller set them explicitly.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyContextCapacity, settings.Cache.ContextCapacity},
		{keySearchCapacity, settings.Cache.SearchCapacity},
		{keyContextTTL, settings.Cache.ContextTTL.String()},
		{keySearchTTL, settings.Cache.SearchTTL.String()},
		{keyCacheShards, settings.Cache.Shards},
		{keyMaxConcurrent, settings.Router.MaxConcurrentRequests},
		{keyMaxQueueDepth, settings.Router.MaxQueueDepth},
		{keyProviderTimeout, settings.Router.ProviderTimeout.String()},
		{keyRetryCount, settings.Router.RetryCount},
		{keyBackoffMin, settings.Router.RetryBackoffMin.String()},
		{keyBackoffMax, settings.Router.RetryBackoffMax.String()},
		{keySelectionK, settings.Selection.K},
		{keyMaxResults, settings.Selection.MaxResults},
		{keyHalfLife, settings.Selection.HalfLife.String()},
		{keyMinScore, settings.Selection.MinScore},
		{keyStrategy, string(settings.Selection.Strategy)},
		{keyGitHubBaseURL, settings.Providers.GitHub.BaseURL},
		{keyGitHubPerPage, settings.Providers.GitHub.PerPage},
		{keyBingEndpoint, settings.Providers.Bing.Endpoint},
		{keyBingMarket, settings.Providers.Bing.Market},
		{keyBingCount, settings.Providers.Bing.Count},
	}
	if settings.ContextsFile != "" {
		values = append(values, struct {
			key   string
			value any
		}{keyContextsFile, settings.ContextsFile})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.Providers.GitHub.Token != "" && settings.Providers.GitHub.Token != s.envGitHubToken() {
		if err := s.configStore.Set(keyGitHubToken, settings.Providers.GitHub.Token); err != nil {
			return fmt.Errorf("save github token: %w", err)
		}
	}
	if settings.Providers.Bing.APIKey != "" && settings.Providers.Bing.APIKey != s.getenv(EnvBingAPIKey) {
		if err := s.configStore.Set(keyBingAPIKey, settings.Providers.Bing.APIKey); err != nil {
			return fmt.Errorf("save bing api_key: %w", err)
		}
	}

	return s.configStore.Save()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

func (s *SettingsService) applyEnv(settings *domain.Settings) {
	if tok := s.envGitHubToken(); tok != "" {
		settings.Providers.GitHub.Token = tok
	}
	if key := s.getenv(EnvBingAPIKey); key != "" {
		settings.Providers.Bing.APIKey = key
	}
	if endpoint := s.getenv(EnvBingURL); endpoint != "" {
		settings.Providers.Bing.Endpoint = endpoint
	}
}

func (s *SettingsService) envGitHubToken() string {
	if tok := s.getenv(EnvGitHubToken); tok != "" {
		return tok
	}
	return s.getenv(EnvGitHubAPIKey)
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt returns the stored value when the key exists, so an explicit
// zero (unbounded queue, no retries) is honoured.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
