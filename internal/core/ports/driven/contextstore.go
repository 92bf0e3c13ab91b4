package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// ContextStore holds every known context for the lifetime of the process.
// Returned contexts are copies; callers never share memory with the store.
type ContextStore interface {
	// Add stores a new context and returns its id.
	// Version is set to 1 and timestamps are initialised when zero.
	// Returns domain.ErrDuplicateID if the id is already present.
	Add(ctx context.Context, c domain.Context) (string, error)

	// Get retrieves a context by id.
	// Returns domain.ErrNotFound if absent or expired.
	Get(ctx context.Context, id string) (*domain.Context, error)

	// Update applies mutator to a copy of the stored context, bumps the
	// version and refreshes UpdatedAt as one atomic step.
	// Returns domain.ErrNotFound if absent.
	Update(ctx context.Context, id string, mutator domain.ContextMutator) (*domain.Context, error)

	// ListByDomain returns unexpired contexts whose domain matches
	// (case-insensitive), ordered by id.
	ListByDomain(ctx context.Context, domainLabel string) ([]domain.Context, error)

	// Delete removes a context.
	// Returns domain.ErrNotFound if absent, including on a repeated call.
	Delete(ctx context.Context, id string) error

	// Snapshot returns a consistent copy of all unexpired contexts,
	// ordered by id, together with the generation it reflects.
	Snapshot(ctx context.Context) ([]domain.Context, uint64, error)

	// PurgeExpired deletes contexts expired at now and returns how many.
	PurgeExpired(ctx context.Context, now time.Time) (int, error)

	// Count returns the number of stored contexts.
	Count() int

	// Generation returns a counter incremented on every mutation.
	Generation() uint64
}
