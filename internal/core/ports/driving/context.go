package driving

import (
	"context"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// ContextService manages stored contexts.
type ContextService interface {
	// Add validates and stores a context. An empty id is generated.
	Add(ctx context.Context, c domain.Context) (string, error)

	// Get retrieves a context by id.
	Get(ctx context.Context, id string) (*domain.Context, error)

	// Update applies mutator atomically and returns the new version.
	Update(ctx context.Context, id string, mutator domain.ContextMutator) (*domain.Context, error)

	// ListByDomain returns contexts of a domain. An empty domain lists all.
	ListByDomain(ctx context.Context, domainLabel string) ([]domain.Context, error)

	// Delete removes a context.
	Delete(ctx context.Context, id string) error

	// PurgeExpired removes expired contexts and returns how many.
	PurgeExpired(ctx context.Context) (int, error)

	// PromoteSearch stores aggregated search results as a new context.
	PromoteSearch(ctx context.Context, query, domainLabel string, results []domain.SearchResult) (*domain.Context, error)
}

// ContextLoader imports contexts from definition files.
type ContextLoader interface {
	// LoadFile upserts every context defined in a TOML file and returns
	// how many were added or changed.
	LoadFile(ctx context.Context, path string) (int, error)

	// Watch reloads path whenever it changes until ctx is cancelled.
	Watch(ctx context.Context, path string) error
}
