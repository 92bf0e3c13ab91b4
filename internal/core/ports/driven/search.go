package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// SearchProvider is an external search backend (code search, web search).
// The router is polymorphic over this capability; new backends register
// an adapter implementing it.
type SearchProvider interface {
	// Name returns the provider identifier used for SearchResult.Source,
	// routing order and logging (e.g. "github", "bing").
	Name() string

	// Search runs query against the backend. The call must return within
	// timeout or when ctx is cancelled, whichever comes first.
	// Failures are *domain.ProviderError values whose kind is one of
	// ErrTimeout, ErrRateLimited, ErrUnauthorized or ErrTransport.
	Search(ctx context.Context, query string, timeout time.Duration) ([]domain.SearchResult, error)
}
