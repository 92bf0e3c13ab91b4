package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-context/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-context/internal/cache"
	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
)

// Ensure stubRouter implements the interface.
var _ driving.SearchRouter = (*stubRouter)(nil)

type stubRouter struct {
	route *domain.RouteResult
	err   error
	calls int
}

func (r *stubRouter) Route(_ context.Context, query string) (*domain.RouteResult, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	out := *r.route
	out.Query = query
	return &out, nil
}

type pipelineFixture struct {
	svc    *QueryService
	router *stubRouter
	store  *memory.ContextStore
	caches *cache.Partitions
	gate   *Gate
}

func newPipelineFixture(t *testing.T, router *stubRouter) *pipelineFixture {
	t.Helper()
	clock := newTestClock()
	store := memory.NewContextStore(memory.WithClock(clock.Now))
	caches := cache.NewPartitions(domain.DefaultSettings().Cache, clock.Now)
	gate := NewGate(2, 4)
	classifier := NewClassifier()
	selector := NewContextSelector(store, classifier, caches.Contexts, caches.ContextTTL(), domain.DefaultSettings().Selection)
	selector.now = clock.Now

	var r driving.SearchRouter
	if router != nil {
		r = router
	}
	svc := NewQueryService(classifier, r, NewAggregator(3), selector, store, caches, gate)
	return &pipelineFixture{svc: svc, router: router, store: store, caches: caches, gate: gate}
}

func TestQueryService_Query(t *testing.T) {
	router := &stubRouter{route: &domain.RouteResult{
		Provider: "github",
		State:    domain.RouteSucceeded,
		Results: []domain.SearchResult{
			result("github", "https://github.com/tokio-rs/tokio", 0.9),
			result("github", "https://github.com/tokio-rs/tokio/", 0.5),
			result("github", "https://github.com/async-rs/async-std", 0.7),
			result("github", "https://github.com/smol-rs/smol", 0.6),
			result("github", "https://github.com/rust-lang/futures-rs", 0.4),
		},
	}}
	f := newPipelineFixture(t, router)
	_, err := f.store.Add(context.Background(), domain.Context{
		ID: "guide", Domain: "technical", Content: "rust async guide", Priority: 8,
	})
	require.NoError(t, err)

	resp, err := f.svc.Query(context.Background(), "  how to use async in Rust ", domain.QueryOptions{K: 2})
	require.NoError(t, err)

	assert.Equal(t, "how to use async in Rust", resp.Query)
	assert.Equal(t, domain.CategoryCodeTechnical, resp.Classification.Category)
	require.NotNil(t, resp.Route)
	assert.Equal(t, "github", resp.Route.Provider)

	require.Len(t, resp.Results, 3, "deduplicated and truncated")
	assert.Equal(t, "https://github.com/tokio-rs/tokio", resp.Results[0].URL)
	assert.Equal(t, 0.9, resp.Results[0].RelevanceScore)

	require.Len(t, resp.Contexts, 2)
	assert.Equal(t, "guide", resp.Contexts[0].Context.ID)
	assert.Equal(t, domain.OriginStore, resp.Contexts[0].Origin)
	assert.Equal(t, domain.OriginSearch, resp.Contexts[1].Origin)
	assert.Empty(t, resp.SearchError)
}

func TestQueryService_SearchFailureDegrades(t *testing.T) {
	router := &stubRouter{err: errors.Join(domain.ErrAllProvidersUnavailable,
		domain.NewProviderError("github", domain.ErrTransport, nil))}
	f := newPipelineFixture(t, router)
	_, err := f.store.Add(context.Background(), domain.Context{ID: "c", Content: "rust async"})
	require.NoError(t, err)

	resp, err := f.svc.Query(context.Background(), "rust async", domain.QueryOptions{})
	require.NoError(t, err)

	assert.Nil(t, resp.Route)
	assert.Empty(t, resp.Results)
	assert.Contains(t, resp.SearchError, "all providers unavailable")
	require.Len(t, resp.Contexts, 1)
	assert.Equal(t, "c", resp.Contexts[0].Context.ID)
}

func TestQueryService_OverloadedFails(t *testing.T) {
	router := &stubRouter{err: fmt.Errorf("route: %w", domain.ErrOverloaded)}
	f := newPipelineFixture(t, router)

	_, err := f.svc.Query(context.Background(), "rust async", domain.QueryOptions{})
	assert.ErrorIs(t, err, domain.ErrOverloaded)
}

func TestQueryService_CancelledFails(t *testing.T) {
	router := &stubRouter{err: context.Canceled}
	f := newPipelineFixture(t, router)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Query(ctx, "rust async", domain.QueryOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueryService_SkipSearch(t *testing.T) {
	router := &stubRouter{route: &domain.RouteResult{}}
	f := newPipelineFixture(t, router)

	resp, err := f.svc.Query(context.Background(), "anything", domain.QueryOptions{SkipSearch: true})
	require.NoError(t, err)
	assert.Equal(t, 0, router.calls)
	assert.Nil(t, resp.Route)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Contexts)
}

func TestQueryService_NoRouter(t *testing.T) {
	f := newPipelineFixture(t, nil)

	resp, err := f.svc.Query(context.Background(), "anything", domain.QueryOptions{})
	require.NoError(t, err)
	assert.Nil(t, resp.Route)
}

func TestQueryService_EmptyQuery(t *testing.T) {
	f := newPipelineFixture(t, &stubRouter{route: &domain.RouteResult{}})

	_, err := f.svc.Query(context.Background(), "   ", domain.QueryOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, f.router.calls)
}

func TestQueryService_Stats(t *testing.T) {
	f := newPipelineFixture(t, nil)
	ctx := context.Background()
	_, err := f.store.Add(ctx, domain.Context{ID: "c", Content: "alpha"})
	require.NoError(t, err)

	_, err = f.svc.Query(ctx, "alpha", domain.QueryOptions{})
	require.NoError(t, err)
	_, err = f.svc.Query(ctx, "alpha", domain.QueryOptions{})
	require.NoError(t, err)

	st := f.svc.Stats()
	assert.Equal(t, 1, st.Contexts)
	assert.Equal(t, uint64(1), st.ContextCache.Hits)
	assert.Equal(t, 1, st.ContextCache.Entries)
	assert.Equal(t, 2, st.Gate.Limit)
	assert.Equal(t, 0, st.Gate.InFlight)

	empty := NewQueryService(NewClassifier(), nil, NewAggregator(0), nil, nil, nil, nil)
	assert.Equal(t, domain.PipelineStats{}, empty.Stats())
}
