package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sercha-context/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-context/internal/cache"
	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/core/services"
)

// Ensure stubProvider implements the interface.
var _ driven.SearchProvider = (*stubProvider)(nil)

type stubProvider struct {
	name    string
	results []domain.SearchResult
	err     error
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Search(_ context.Context, _ string, _ time.Duration) ([]domain.SearchResult, error) {
	return p.results, p.err
}

type testEnv struct {
	store    *memory.ContextStore
	config   *memory.ConfigStore
	github   *stubProvider
	bing     *stubProvider
	contexts *services.ContextService
}

// setupTestServices wires real services over an in-memory store and
// stub providers. The returned cleanup restores the unset state.
func setupTestServices() (*testEnv, func()) {
	env := &testEnv{
		store:  memory.NewContextStore(),
		config: memory.NewConfigStore(),
		github: &stubProvider{name: services.ProviderGitHub, results: []domain.SearchResult{{
			Source:         "github",
			URL:            "https://github.com/tokio-rs/tokio",
			Title:          "tokio-rs/tokio",
			Snippet:        "A runtime for writing reliable asynchronous applications with Rust",
			RelevanceScore: 1,
		}}},
		bing: &stubProvider{name: services.ProviderBing, results: []domain.SearchResult{{
			Source:         "bing",
			URL:            "https://example.com/weather",
			Title:          "Weather forecast",
			Snippet:        "Sunny tomorrow",
			RelevanceScore: 0.8,
		}}},
	}

	settings := domain.DefaultSettings()
	classifier := services.NewClassifier()
	registry := services.NewProviderRegistry()
	registry.Register(env.github)
	registry.Register(env.bing)

	caches := cache.NewPartitions(settings.Cache, time.Now)
	gate := services.NewGate(settings.Router.MaxConcurrentRequests, settings.Router.MaxQueueDepth)
	router := services.NewSearchRouter(classifier, registry, caches.Search, gate, settings.Router, caches.SearchTTL())
	selector := services.NewContextSelector(env.store, classifier, caches.Contexts, caches.ContextTTL(), settings.Selection)
	env.contexts = services.NewContextService(env.store)

	SetServices(&Services{
		Contexts: ContextServices{
			Service: env.contexts,
			Loader:  services.NewContextLoader(env.contexts),
		},
		Router:   router,
		Selector: selector,
		Query: services.NewQueryService(classifier, router, services.NewAggregator(settings.Selection.MaxResults),
			selector, env.store, caches, gate),
		Settings: services.NewSettingsService(env.config),
	})

	return env, func() {
		SetServices(nil)
		resetFlags()
	}
}

// runCommand executes the root command with args and returns its output.
func runCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags()
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores flag variables and clears Changed so one test's
// flags never leak into the next.
func resetFlags() {
	var clearFlags func(cmd *cobra.Command)
	clearFlags = func(cmd *cobra.Command) {
		reset := func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue) //nolint:errcheck // slice defaults are restored below
			f.Changed = false
		}
		cmd.Flags().VisitAll(reset)
		cmd.PersistentFlags().VisitAll(reset)
		for _, c := range cmd.Commands() {
			clearFlags(c)
		}
	}
	clearFlags(rootCmd)

	contextTags, contextMeta = nil, nil
}

func domainContextExpiring(id string, at time.Time) domain.Context {
	return domain.Context{ID: id, Content: "expiring " + id, ExpiresAt: &at}
}
