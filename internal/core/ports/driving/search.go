package driving

import (
	"context"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// Classifier maps a query to a routing category and a domain label.
// Implementations are pure and never fail.
type Classifier interface {
	// Classify returns the routing category of a query.
	Classify(query string) domain.ClassificationResult

	// ClassifyDomain returns the best matching domain label for text.
	ClassifyDomain(text string) string
}

// SearchRouter answers a query from the search cache or the providers
// preferred for its category, falling back and degrading as needed.
type SearchRouter interface {
	// Route returns ranked search results for query.
	// Fails with domain.ErrOverloaded when the admission queue is full and
	// domain.ErrAllProvidersUnavailable when every provider failed and no
	// cached entry exists.
	Route(ctx context.Context, query string) (*domain.RouteResult, error)
}

// ContextSelector ranks stored contexts against a query.
type ContextSelector interface {
	// Select returns at most k contexts, best first.
	Select(ctx context.Context, query string, k int) ([]domain.ScoredContext, error)

	// SelectWithResults ranks stored contexts together with ephemeral
	// candidates built from aggregated search results.
	SelectWithResults(ctx context.Context, query string, k int, opts SelectOptions) ([]domain.ScoredContext, error)
}

// SelectOptions configures SelectWithResults.
type SelectOptions struct {
	// Domain overrides the classified query domain when non-empty.
	Domain string

	// Strategy overrides the configured selection strategy when non-empty.
	Strategy domain.SelectionStrategy

	// Results are aggregated search results merged in as candidates.
	Results []domain.SearchResult
}

// QueryService runs the full pipeline: classify, route, aggregate, select.
type QueryService interface {
	// Query returns both ranked search results and ranked contexts.
	Query(ctx context.Context, query string, opts domain.QueryOptions) (*domain.QueryResponse, error)

	// Stats reports cache, gate and store statistics.
	Stats() domain.PipelineStats
}
