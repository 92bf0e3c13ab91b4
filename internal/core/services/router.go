package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-context/internal/cache"
	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-context/internal/logger"
)

// Ensure SearchRouter implements the interface.
var _ driving.SearchRouter = (*SearchRouter)(nil)

// SearchRouter answers queries from the search cache or from the
// providers preferred for the query's category.
type SearchRouter struct {
	classifier driving.Classifier
	registry   *ProviderRegistry
	cache      *cache.LRU[string, domain.CachedSearch]
	gate       *Gate
	cfg        domain.RouterSettings
	ttl        time.Duration
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewSearchRouter creates a router. ttl is the search-result cache TTL.
func NewSearchRouter(
	classifier driving.Classifier,
	registry *ProviderRegistry,
	searchCache *cache.LRU[string, domain.CachedSearch],
	gate *Gate,
	cfg domain.RouterSettings,
	ttl time.Duration,
) *SearchRouter {
	return &SearchRouter{
		classifier: classifier,
		registry:   registry,
		cache:      searchCache,
		gate:       gate,
		cfg:        cfg,
		ttl:        ttl,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// Route returns search results for query.
func (r *SearchRouter) Route(ctx context.Context, query string) (*domain.RouteResult, error) {
	key := normalizeQuery(query)
	if key == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	logger.Section("Search Router")

	if res, ok := r.fromCache(key, query); ok {
		return res, nil
	}

	r.transition(query, domain.RouteClassifying, "")
	class := r.classifier.Classify(query)
	logger.Debug("Category: %s (confidence %.2f, indicators %v)", class.Category, class.Confidence, class.Indicators)

	if err := r.gate.Acquire(ctx); err != nil {
		if errors.Is(err, domain.ErrOverloaded) {
			logger.Warn("Admission gate full, rejecting %q", query)
		}
		return nil, fmt.Errorf("route: %w", err)
	}
	defer r.gate.Release()

	// Another request may have filled the entry while this one was queued.
	if res, ok := r.fromCache(key, query); ok {
		res.Classification = class
		return res, nil
	}

	result := &domain.RouteResult{Query: query, Classification: class}
	providers := r.registry.Order(class.Category)

	var errs []error
	answeredEmpty := ""
	for _, p := range providers {
		results, err := r.dispatch(ctx, p, query, result)
		if err != nil {
			if ctx.Err() != nil {
				r.transition(query, domain.RouteFailed, ctx.Err().Error())
				return nil, fmt.Errorf("route: %w", ctx.Err())
			}
			errs = append(errs, err)
			continue
		}
		if len(results) == 0 {
			logger.Debug("Provider %s returned no results, trying next", p.Name())
			if answeredEmpty == "" {
				answeredEmpty = p.Name()
			}
			continue
		}
		r.store(key, results, p.Name(), class.Category)
		result.Results = results
		result.Provider = p.Name()
		result.State = domain.RouteSucceeded
		r.transition(query, domain.RouteSucceeded, p.Name())
		return result, nil
	}

	if answeredEmpty != "" {
		r.store(key, []domain.SearchResult{}, answeredEmpty, class.Category)
		result.Results = []domain.SearchResult{}
		result.Provider = answeredEmpty
		result.State = domain.RouteSucceeded
		r.transition(query, domain.RouteSucceeded, answeredEmpty+" (empty)")
		return result, nil
	}

	if stale, _, ok := r.cache.GetStale(key); ok {
		result.Results = cloneResults(stale.Results)
		result.Provider = stale.Provider
		result.Stale = true
		result.State = domain.RouteDegraded
		r.transition(query, domain.RouteDegraded, fmt.Sprintf("serving entry stored %s", stale.StoredAt.Format(time.RFC3339)))
		return result, nil
	}

	result.State = domain.RouteFailed
	r.transition(query, domain.RouteFailed, fmt.Sprintf("%d provider errors", len(errs)))
	if len(providers) == 0 {
		errs = append(errs, domain.ErrProviderNotConfigured)
	}
	logger.Error("Search failed for %q: %v", query, errors.Join(errs...))
	return nil, errors.Join(append([]error{domain.ErrAllProvidersUnavailable}, errs...)...)
}

// dispatch calls one provider, retrying transient failures with
// exponential backoff. Each attempt gets its own timeout.
func (r *SearchRouter) dispatch(
	ctx context.Context, p driven.SearchProvider, query string, result *domain.RouteResult,
) ([]domain.SearchResult, error) {
	var lastErr error
	for attempt := 0; attempt <= r.cfg.RetryCount; attempt++ {
		if attempt > 0 {
			wait := r.backoff(attempt, domain.RetryAfter(lastErr))
			r.transition(query, domain.RouteRetrying, fmt.Sprintf("%s in %s", p.Name(), wait))
			if err := r.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
		r.transition(query, domain.RouteDispatching, fmt.Sprintf("%s attempt %d", p.Name(), attempt+1))

		start := time.Now()
		results, err := r.call(ctx, p, query)
		rec := domain.RouteAttempt{Provider: p.Name(), Attempt: attempt + 1, Duration: time.Since(start)}
		if err != nil {
			rec.Error = err.Error()
		}
		result.Attempts = append(result.Attempts, rec)

		if err == nil {
			return results, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		logger.Warn("Provider %s attempt %d failed: %v", p.Name(), attempt+1, err)
		if !domain.IsRetryable(err) {
			break
		}
	}
	return nil, lastErr
}

func (r *SearchRouter) call(ctx context.Context, p driven.SearchProvider, query string) ([]domain.SearchResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.ProviderTimeout)
	defer cancel()

	results, err := p.Search(callCtx, query, r.cfg.ProviderTimeout)
	if err == nil {
		return results, nil
	}
	// A bare deadline from the per-call context is a provider timeout.
	var pe *domain.ProviderError
	if !errors.As(err, &pe) && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return nil, domain.NewProviderError(p.Name(), domain.ErrTimeout, err)
	}
	return nil, err
}

// backoff returns min * 2^(attempt-1), at least retryAfter, clamped to
// the configured bounds.
func (r *SearchRouter) backoff(attempt int, retryAfter time.Duration) time.Duration {
	d := r.cfg.RetryBackoffMin << (attempt - 1)
	if d <= 0 || d > r.cfg.RetryBackoffMax {
		d = r.cfg.RetryBackoffMax
	}
	if retryAfter > d {
		d = min(retryAfter, r.cfg.RetryBackoffMax)
	}
	if d < r.cfg.RetryBackoffMin {
		d = r.cfg.RetryBackoffMin
	}
	return d
}

func (r *SearchRouter) fromCache(key, query string) (*domain.RouteResult, bool) {
	cached, ok := r.cache.Get(key)
	if !ok {
		logger.Debug("Search cache miss: %q", key)
		return nil, false
	}
	logger.Debug("Search cache hit: %q (%d results from %s)", key, len(cached.Results), cached.Provider)
	return &domain.RouteResult{
		Query:          query,
		Classification: domain.ClassificationResult{Category: cached.Category},
		Results:        cloneResults(cached.Results),
		Provider:       cached.Provider,
		FromCache:      true,
		State:          domain.RouteSucceeded,
	}, true
}

func (r *SearchRouter) store(key string, results []domain.SearchResult, provider string, category domain.Category) {
	r.cache.Put(key, domain.CachedSearch{
		Results:  cloneResults(results),
		Provider: provider,
		Category: category,
		StoredAt: r.now(),
	}, r.ttl)
}

func (r *SearchRouter) transition(query string, state domain.RouteState, detail string) {
	attrs := []any{"query", query, "state", string(state)}
	if detail != "" {
		attrs = append(attrs, "detail", detail)
	}
	logger.Slog().Debug("route transition", attrs...)
}

func cloneResults(in []domain.SearchResult) []domain.SearchResult {
	out := make([]domain.SearchResult, len(in))
	copy(out, in)
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
