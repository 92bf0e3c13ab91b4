package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	response *domain.QueryResponse
	stats    domain.PipelineStats
	err      error
	lastOpts domain.QueryOptions
}

func (m *mockQueryService) Query(
	_ context.Context,
	query string,
	opts domain.QueryOptions,
) (*domain.QueryResponse, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.response == nil {
		return &domain.QueryResponse{Query: query}, nil
	}
	out := *m.response
	return &out, nil
}

func (m *mockQueryService) Stats() domain.PipelineStats {
	return m.stats
}

// mockSearchRouter is a mock implementation of driving.SearchRouter.
type mockSearchRouter struct {
	result *domain.RouteResult
	err    error
}

func (m *mockSearchRouter) Route(_ context.Context, _ string) (*domain.RouteResult, error) {
	return m.result, m.err
}

// mockContextSelector is a mock implementation of driving.ContextSelector.
type mockContextSelector struct {
	scored   []domain.ScoredContext
	err      error
	lastK    int
	lastOpts driving.SelectOptions
}

func (m *mockContextSelector) Select(ctx context.Context, query string, k int) ([]domain.ScoredContext, error) {
	return m.SelectWithResults(ctx, query, k, driving.SelectOptions{})
}

func (m *mockContextSelector) SelectWithResults(
	_ context.Context,
	_ string,
	k int,
	opts driving.SelectOptions,
) ([]domain.ScoredContext, error) {
	m.lastK = k
	m.lastOpts = opts
	return m.scored, m.err
}

// mockContextService is a mock implementation of driving.ContextService.
type mockContextService struct {
	contexts []domain.Context
	context  *domain.Context
	added    []domain.Context
	err      error
}

func (m *mockContextService) Add(_ context.Context, c domain.Context) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if c.ID == "" {
		c.ID = "generated"
	}
	c.Version = 1
	m.added = append(m.added, c)
	m.context = &c
	return c.ID, nil
}

func (m *mockContextService) Get(_ context.Context, _ string) (*domain.Context, error) {
	return m.context, m.err
}

func (m *mockContextService) Update(
	_ context.Context,
	_ string,
	_ domain.ContextMutator,
) (*domain.Context, error) {
	return m.context, m.err
}

func (m *mockContextService) ListByDomain(_ context.Context, _ string) ([]domain.Context, error) {
	return m.contexts, m.err
}

func (m *mockContextService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockContextService) PurgeExpired(_ context.Context) (int, error) {
	return 0, m.err
}

func (m *mockContextService) PromoteSearch(
	_ context.Context,
	_, _ string,
	_ []domain.SearchResult,
) (*domain.Context, error) {
	return m.context, m.err
}
