package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-context/internal/cache"
	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-context/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryService runs the full pipeline: classify, route, aggregate and
// select.
type QueryService struct {
	classifier driving.Classifier
	router     driving.SearchRouter
	aggregator *Aggregator
	selector   driving.ContextSelector
	store      driven.ContextStore
	caches     *cache.Partitions
	gate       *Gate
}

// NewQueryService creates a query pipeline. caches and gate are only
// read for Stats and may be nil.
func NewQueryService(
	classifier driving.Classifier,
	router driving.SearchRouter,
	aggregator *Aggregator,
	selector driving.ContextSelector,
	store driven.ContextStore,
	caches *cache.Partitions,
	gate *Gate,
) *QueryService {
	return &QueryService{
		classifier: classifier,
		router:     router,
		aggregator: aggregator,
		selector:   selector,
		store:      store,
		caches:     caches,
		gate:       gate,
	}
}

// Query answers a query with ranked search results and ranked contexts.
// A routing failure does not fail the query: contexts are still ranked
// and the error is reported in SearchError. Caller cancellation and
// selection failures do fail it.
func (s *QueryService) Query(
	ctx context.Context, query string, opts domain.QueryOptions,
) (*domain.QueryResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	logger.Section("Query Pipeline")
	logger.Debug("Query: %q (k=%d, domain=%q, skip_search=%t)", query, opts.K, opts.Domain, opts.SkipSearch)

	resp := &domain.QueryResponse{
		Query:          query,
		Classification: s.classifier.Classify(query),
		Results:        []domain.SearchResult{},
	}

	if !opts.SkipSearch && s.router != nil {
		route, err := s.router.Route(ctx, query)
		switch {
		case err == nil:
			resp.Route = route
			resp.Results = s.aggregator.Aggregate(route.Results)
		case ctx.Err() != nil:
			return nil, fmt.Errorf("query: %w", ctx.Err())
		case errors.Is(err, domain.ErrOverloaded):
			return nil, fmt.Errorf("query: %w", err)
		default:
			logger.Warn("Search unavailable, ranking stored contexts only: %v", err)
			resp.SearchError = err.Error()
		}
	}

	contexts, err := s.selector.SelectWithResults(ctx, query, opts.K, driving.SelectOptions{
		Domain:   opts.Domain,
		Strategy: opts.Strategy,
		Results:  resp.Results,
	})
	if err != nil {
		return nil, fmt.Errorf("select contexts: %w", err)
	}
	resp.Contexts = contexts

	logger.Info("Query %q: %d results, %d contexts", query, len(resp.Results), len(resp.Contexts))
	return resp, nil
}

// Stats reports store, cache and gate statistics.
func (s *QueryService) Stats() domain.PipelineStats {
	var st domain.PipelineStats
	if s.store != nil {
		st.Contexts = s.store.Count()
	}
	if s.caches != nil {
		st.ContextCache = s.caches.Contexts.Stats()
		st.SearchCache = s.caches.Search.Stats()
	}
	if s.gate != nil {
		st.Gate = s.gate.Stats()
	}
	return st
}
