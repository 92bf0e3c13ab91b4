package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/services"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GITHUB_TOKEN", "GITHUB_API_KEY", "BING_API_KEY", "BING_SEARCH_URL"} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestBuildServices_LoadsContextsFile(t *testing.T) {
	clearProviderEnv(t)
	dir := t.TempDir()
	contextsPath := filepath.Join(dir, "contexts.toml")
	configPath := filepath.Join(dir, "config.toml")

	writeFile(t, contextsPath, `
[[contexts]]
id = "triage"
domain = "medical"
content = "Emergency triage protocol"
priority = 9

[[contexts]]
id = "contracts"
domain = "legal"
content = "Contract review checklist"
priority = 4
`)
	writeFile(t, configPath, `
[selection]
k = 2

[contexts]
file = "`+filepath.ToSlash(contextsPath)+`"
`)

	svc, err := buildServices(context.Background(), configPath)
	require.NoError(t, err)
	require.NotNil(t, svc.Query)
	require.NotNil(t, svc.Router)
	require.NotNil(t, svc.Selector)
	require.NotNil(t, svc.Contexts.Service)
	require.NotNil(t, svc.Contexts.Loader)
	require.NotNil(t, svc.Settings)

	assert.Equal(t, 2, svc.Query.Stats().Contexts)

	settings, err := svc.Settings.Get()
	require.NoError(t, err)
	assert.Equal(t, 2, settings.Selection.K)

	resp, err := svc.Query.Query(context.Background(), "chest pain triage", domain.QueryOptions{SkipSearch: true})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Contexts)
	assert.Equal(t, "triage", resp.Contexts[0].Context.ID)
}

func TestBuildServices_MissingConfigUsesDefaults(t *testing.T) {
	clearProviderEnv(t)
	configPath := filepath.Join(t.TempDir(), "absent", "config.toml")

	svc, err := buildServices(context.Background(), configPath)
	require.NoError(t, err)

	settings, err := svc.Settings.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings().Selection, settings.Selection)
	assert.Equal(t, 0, svc.Query.Stats().Contexts)
	assert.Equal(t, domain.DefaultSettings().Router.MaxConcurrentRequests, svc.Query.Stats().Gate.Limit)
}

func TestBuildServices_MissingContextsFileIsNotFatal(t *testing.T) {
	clearProviderEnv(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	writeFile(t, configPath, `
[contexts]
file = "`+filepath.ToSlash(filepath.Join(dir, "later.toml"))+`"
`)

	svc, err := buildServices(context.Background(), configPath)

	require.NoError(t, err)
	assert.Equal(t, 0, svc.Query.Stats().Contexts)
}

func TestBuildServices_InvalidSettings(t *testing.T) {
	clearProviderEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, configPath, `
[cache]
context_ttl = "1m"
search_ttl = "5m"
`)

	_, err := buildServices(context.Background(), configPath)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBuildServices_BrokenConfig(t *testing.T) {
	clearProviderEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, configPath, "[cache\n")

	_, err := buildServices(context.Background(), configPath)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestBuildRegistry(t *testing.T) {
	t.Run("code search only without bing key", func(t *testing.T) {
		registry, err := buildRegistry(context.Background(), domain.DefaultSettings().Providers)
		require.NoError(t, err)
		assert.Equal(t, []string{services.ProviderGitHub}, registry.Providers())
	})

	t.Run("both providers with bing key", func(t *testing.T) {
		cfg := domain.DefaultSettings().Providers
		cfg.Bing.APIKey = "key"
		cfg.GitHub.Token = "token"

		registry, err := buildRegistry(context.Background(), cfg)
		require.NoError(t, err)
		assert.Equal(t, []string{services.ProviderBing, services.ProviderGitHub}, registry.Providers())
	})

	t.Run("invalid bing endpoint", func(t *testing.T) {
		cfg := domain.DefaultSettings().Providers
		cfg.Bing.APIKey = "key"
		cfg.Bing.Endpoint = "not a url"

		_, err := buildRegistry(context.Background(), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bing provider")
	})

	t.Run("invalid github base url", func(t *testing.T) {
		cfg := domain.DefaultSettings().Providers
		cfg.GitHub.BaseURL = "://bad"

		_, err := buildRegistry(context.Background(), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "github provider")
	})
}
