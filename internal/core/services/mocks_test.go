package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-context/internal/cache"
	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
)

// Ensure mockProvider implements the interface.
var _ driven.SearchProvider = (*mockProvider)(nil)

// mockProvider is a scripted SearchProvider. Each call pops the next
// scripted response; the last one repeats.
type mockProvider struct {
	name string

	mu        sync.Mutex
	responses []mockResponse
	calls     int
	queries   []string
	block     bool
}

type mockResponse struct {
	results []domain.SearchResult
	err     error
}

func newMockProvider(name string, responses ...mockResponse) *mockProvider {
	return &mockProvider{name: name, responses: responses}
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Search(ctx context.Context, query string, _ time.Duration) ([]domain.SearchResult, error) {
	m.mu.Lock()
	m.calls++
	m.queries = append(m.queries, query)
	block := m.block
	var resp mockResponse
	if len(m.responses) > 0 {
		idx := m.calls - 1
		if idx >= len(m.responses) {
			idx = len(m.responses) - 1
		}
		resp = m.responses[idx]
	}
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return resp.results, resp.err
}

func (m *mockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func ok(results ...domain.SearchResult) mockResponse {
	return mockResponse{results: results}
}

func fail(provider string, kind error) mockResponse {
	return mockResponse{err: domain.NewProviderError(provider, kind, nil)}
}

func result(source, url string, score float64) domain.SearchResult {
	return domain.SearchResult{
		Source:         source,
		URL:            url,
		Title:          "title " + url,
		Snippet:        "snippet " + url,
		RelevanceScore: score,
		FetchedAt:      time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// testClock is a manually advanced clock shared by caches and services.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// routerFixture wires a router with two scripted providers.
type routerFixture struct {
	router *SearchRouter
	github *mockProvider
	bing   *mockProvider
	cache  *cache.LRU[string, domain.CachedSearch]
	clock  *testClock
	sleeps []time.Duration
}

func newRouterFixture(github, bing *mockProvider, cfg domain.RouterSettings) *routerFixture {
	f := &routerFixture{github: github, bing: bing, clock: newTestClock()}
	f.cache = cache.New[string, domain.CachedSearch](8, cache.Options{Now: f.clock.Now})

	registry := NewProviderRegistry()
	if github != nil {
		registry.Register(github)
	}
	if bing != nil {
		registry.Register(bing)
	}

	f.router = NewSearchRouter(NewClassifier(), registry, f.cache, NewGate(cfg.MaxConcurrentRequests, cfg.MaxQueueDepth), cfg, time.Minute)
	f.router.now = f.clock.Now
	var mu sync.Mutex
	f.router.sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		f.sleeps = append(f.sleeps, d)
		mu.Unlock()
		return ctx.Err()
	}
	return f
}

func testRouterSettings() domain.RouterSettings {
	return domain.RouterSettings{
		MaxConcurrentRequests: 4,
		MaxQueueDepth:         8,
		ProviderTimeout:       time.Second,
		RetryCount:            1,
		RetryBackoffMin:       100 * time.Millisecond,
		RetryBackoffMax:       time.Second,
	}
}
