package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "sercha-context", rootCmd.Use)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	cfg := rootCmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfg)
	assert.Equal(t, "", cfg.DefValue)

	v := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, v)
	assert.Equal(t, "v", v.Shorthand)
}

func TestRootCmd_Subcommands(t *testing.T) {
	for _, name := range []string{"search", "select", "query", "context", "stats", "settings", "mcp", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestBootstrap_RunsWithConfigPath(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	wired := &Services{Query: queryService, Settings: settingsService}
	SetServices(nil)

	var gotPath string
	SetBootstrap(func(_ context.Context, path string) (*Services, error) {
		gotPath = path
		return wired, nil
	})
	defer SetBootstrap(nil)

	out, err := runCommand("--config", "/tmp/custom.toml", "stats")

	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.toml", gotPath)
	assert.Contains(t, out, "Contexts stored: 0")
	assert.Nil(t, contextService, "services left out by bootstrap stay nil")
}

func TestBootstrap_Error(t *testing.T) {
	SetServices(nil)
	SetBootstrap(func(context.Context, string) (*Services, error) {
		return nil, errors.New("bad config")
	})
	defer SetBootstrap(nil)

	_, err := runCommand("stats")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "initialise services")
	assert.Contains(t, err.Error(), "bad config")
}

func TestBootstrap_SkippedWhenServicesSet(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetBootstrap(func(context.Context, string) (*Services, error) {
		t.Fatal("bootstrap must not run when services are injected")
		return nil, nil
	})
	defer SetBootstrap(nil)

	_, err := runCommand("stats")

	assert.NoError(t, err)
}

func TestSetServices(t *testing.T) {
	defer SetServices(nil)

	var router driving.SearchRouter = &nopRouter{}
	SetServices(&Services{Router: router})
	assert.Equal(t, router, searchRouter)
	assert.Nil(t, queryService)

	SetServices(nil)
	assert.Nil(t, searchRouter)
}

type nopRouter struct{}

func (nopRouter) Route(context.Context, string) (*domain.RouteResult, error) { return nil, nil }
