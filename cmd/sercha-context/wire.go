package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/sercha-context/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-context/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-context/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-context/internal/cache"
	"github.com/custodia-labs/sercha-context/internal/connectors/bing"
	"github.com/custodia-labs/sercha-context/internal/connectors/github"
	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/services"
	"github.com/custodia-labs/sercha-context/internal/logger"
)

// buildServices wires the application from the config file at configPath.
func buildServices(ctx context.Context, configPath string) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(configPath)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	if err := configStore.Load(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, err
	}

	registry, err := buildRegistry(ctx, settings.Providers)
	if err != nil {
		return nil, err
	}

	classifier := services.NewClassifier()
	store := memory.NewContextStore()
	caches := cache.NewPartitions(settings.Cache, time.Now)
	gate := services.NewGate(settings.Router.MaxConcurrentRequests, settings.Router.MaxQueueDepth)
	router := services.NewSearchRouter(classifier, registry, caches.Search, gate, settings.Router, caches.SearchTTL())
	selector := services.NewContextSelector(store, classifier, caches.Contexts, caches.ContextTTL(), settings.Selection)
	contexts := services.NewContextService(store)
	loader := services.NewContextLoader(contexts)
	query := services.NewQueryService(classifier, router, services.NewAggregator(settings.Selection.MaxResults),
		selector, store, caches, gate)

	if settings.ContextsFile != "" {
		n, err := loader.LoadFile(ctx, settings.ContextsFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Warn("Contexts file %s does not exist yet", settings.ContextsFile)
		case err != nil:
			return nil, fmt.Errorf("load contexts: %w", err)
		default:
			logger.Debug("Loaded %d contexts from %s", n, settings.ContextsFile)
		}
	}

	return &cli.Services{
		Contexts: cli.ContextServices{Service: contexts, Loader: loader},
		Router:   router,
		Selector: selector,
		Query:    query,
		Settings: settingsService,
	}, nil
}

// buildRegistry registers the code-search provider and, when an API key
// is configured, the web-search provider.
func buildRegistry(ctx context.Context, cfg domain.ProviderSettings) (*services.ProviderRegistry, error) {
	registry := services.NewProviderRegistry()

	client, err := github.NewClient(ctx, cfg.GitHub)
	if err != nil {
		return nil, fmt.Errorf("github provider: %w", err)
	}
	registry.Register(github.NewProvider(client, cfg.GitHub.PerPage))

	if cfg.Bing.IsConfigured() {
		provider, err := bing.NewProvider(cfg.Bing)
		if err != nil {
			return nil, fmt.Errorf("bing provider: %w", err)
		}
		registry.Register(provider)
	} else {
		logger.Debug("Bing API key not set; general queries fall back to code search")
	}
	return registry, nil
}
