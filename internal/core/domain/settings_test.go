package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettings_Valid(t *testing.T) {
	s := DefaultSettings()

	assert.NoError(t, s.Validate())
	assert.Less(t, s.Cache.SearchTTL, s.Cache.ContextTTL)
	assert.Equal(t, DefaultGitHubBaseURL, s.Providers.GitHub.BaseURL)
	assert.Equal(t, DefaultBingEndpoint, s.Providers.Bing.Endpoint)
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{"zero context capacity", func(s *Settings) { s.Cache.ContextCapacity = 0 }},
		{"zero search capacity", func(s *Settings) { s.Cache.SearchCapacity = 0 }},
		{"zero search ttl", func(s *Settings) { s.Cache.SearchTTL = 0 }},
		{"search ttl equals context ttl", func(s *Settings) { s.Cache.SearchTTL = s.Cache.ContextTTL }},
		{"search ttl longer", func(s *Settings) { s.Cache.SearchTTL = s.Cache.ContextTTL + time.Minute }},
		{"zero concurrency", func(s *Settings) { s.Router.MaxConcurrentRequests = 0 }},
		{"negative queue", func(s *Settings) { s.Router.MaxQueueDepth = -1 }},
		{"zero timeout", func(s *Settings) { s.Router.ProviderTimeout = 0 }},
		{"negative retries", func(s *Settings) { s.Router.RetryCount = -1 }},
		{"inverted backoff", func(s *Settings) { s.Router.RetryBackoffMin = 5 * time.Second }},
		{"zero k", func(s *Settings) { s.Selection.K = 0 }},
		{"zero max results", func(s *Settings) { s.Selection.MaxResults = 0 }},
		{"unknown strategy", func(s *Settings) { s.Selection.Strategy = "alphabetical" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			assert.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}

func TestProviderSettings_IsConfigured(t *testing.T) {
	assert.True(t, GitHubSettings{}.IsConfigured())
	assert.False(t, BingSettings{}.IsConfigured())
	assert.True(t, BingSettings{APIKey: "k"}.IsConfigured())
}
