package memory

import (
	"context"
	"fmt"
	"hash/maphash"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
)

// Ensure ContextStore implements the interface.
var _ driven.ContextStore = (*ContextStore)(nil)

// defaultStripes is the number of lock stripes. Unrelated ids land on
// different stripes and never contend.
const defaultStripes = 32

// ContextStore is an in-memory implementation of driven.ContextStore.
//
// Stored values are immutable: Update clones, mutates the clone and swaps
// the pointer. Readers copy pointers under a read lock and never block
// writers for longer than that copy.
type ContextStore struct {
	stripes    []*stripe
	seed       maphash.Seed
	generation atomic.Uint64
	count      atomic.Int64
	now        func() time.Time
}

type stripe struct {
	mu       sync.RWMutex
	contexts map[string]*domain.Context
}

// ContextStoreOption configures a ContextStore.
type ContextStoreOption func(*ContextStore)

// WithClock overrides the clock used for timestamps and expiry.
func WithClock(now func() time.Time) ContextStoreOption {
	return func(s *ContextStore) { s.now = now }
}

// NewContextStore creates a new in-memory context store.
func NewContextStore(opts ...ContextStoreOption) *ContextStore {
	s := &ContextStore{
		stripes: make([]*stripe, defaultStripes),
		seed:    maphash.MakeSeed(),
		now:     time.Now,
	}
	for i := range s.stripes {
		s.stripes[i] = &stripe{contexts: make(map[string]*domain.Context)}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ContextStore) stripeFor(id string) *stripe {
	return s.stripes[maphash.String(s.seed, id)%uint64(len(s.stripes))]
}

// Add stores a new context.
func (s *ContextStore) Add(ctx context.Context, c domain.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := c.Validate(); err != nil {
		return "", err
	}

	now := s.now()
	stored := c.Clone()
	stored.Version = 1
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.UpdatedAt.Before(stored.CreatedAt) {
		stored.UpdatedAt = stored.CreatedAt
	}

	st := s.stripeFor(c.ID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if existing, ok := st.contexts[c.ID]; ok {
		if !existing.IsExpired(now) {
			return "", fmt.Errorf("%w: %s", domain.ErrDuplicateID, c.ID)
		}
	} else {
		s.count.Add(1)
	}
	st.contexts[c.ID] = &stored
	s.generation.Add(1)
	return c.ID, nil
}

// Get retrieves a context by id.
func (s *ContextStore) Get(ctx context.Context, id string) (*domain.Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := s.stripeFor(id)
	st.mu.RLock()
	c, ok := st.contexts[id]
	st.mu.RUnlock()

	if !ok || c.IsExpired(s.now()) {
		return nil, fmt.Errorf("%w: context %s", domain.ErrNotFound, id)
	}
	out := c.Clone()
	return &out, nil
}

// Update applies mutator to a copy of the context and swaps it in.
// The id cannot be changed. The version is bumped exactly once and
// UpdatedAt never moves backwards.
func (s *ContextStore) Update(ctx context.Context, id string, mutator domain.ContextMutator) (*domain.Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := s.stripeFor(id)
	st.mu.Lock()
	defer st.mu.Unlock()

	current, ok := st.contexts[id]
	now := s.now()
	if !ok || current.IsExpired(now) {
		return nil, fmt.Errorf("%w: context %s", domain.ErrNotFound, id)
	}

	next := current.Clone()
	if mutator != nil {
		if err := mutator(&next); err != nil {
			return nil, fmt.Errorf("update context %s: %w", id, err)
		}
	}
	if next.ID != id {
		return nil, fmt.Errorf("%w: context id is immutable", domain.ErrInvalidInput)
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}

	next.Version = current.Version + 1
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = now
	if next.UpdatedAt.Before(current.UpdatedAt) {
		next.UpdatedAt = current.UpdatedAt
	}

	st.contexts[id] = &next
	s.generation.Add(1)

	out := next.Clone()
	return &out, nil
}

// ListByDomain returns unexpired contexts of a domain ordered by id.
func (s *ContextStore) ListByDomain(ctx context.Context, domainLabel string) ([]domain.Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.now()
	var refs []*domain.Context
	for _, st := range s.stripes {
		st.mu.RLock()
		for _, c := range st.contexts {
			if strings.EqualFold(c.Domain, domainLabel) && !c.IsExpired(now) {
				refs = append(refs, c)
			}
		}
		st.mu.RUnlock()
	}
	return cloneSorted(refs), nil
}

// Delete removes a context.
func (s *ContextStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st := s.stripeFor(id)
	st.mu.Lock()
	defer st.mu.Unlock()

	// Expired contexts are left for Purge.
	if c, ok := st.contexts[id]; !ok || c.IsExpired(s.now()) {
		return fmt.Errorf("%w: context %s", domain.ErrNotFound, id)
	}
	delete(st.contexts, id)
	s.count.Add(-1)
	s.generation.Add(1)
	return nil
}

// Snapshot returns a consistent copy of all unexpired contexts.
// Every stripe is read-locked while pointers are collected, so the
// result and generation reflect a single point in time. Cloning happens
// after the locks are released.
func (s *ContextStore) Snapshot(ctx context.Context) ([]domain.Context, uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	now := s.now()

	for _, st := range s.stripes {
		st.mu.RLock()
	}
	gen := s.generation.Load()
	refs := make([]*domain.Context, 0, s.count.Load())
	for _, st := range s.stripes {
		for _, c := range st.contexts {
			if !c.IsExpired(now) {
				refs = append(refs, c)
			}
		}
	}
	for _, st := range s.stripes {
		st.mu.RUnlock()
	}

	return cloneSorted(refs), gen, nil
}

// PurgeExpired deletes contexts expired at now.
func (s *ContextStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	purged := 0
	for _, st := range s.stripes {
		if err := ctx.Err(); err != nil {
			return purged, err
		}
		st.mu.Lock()
		n := 0
		for id, c := range st.contexts {
			if c.IsExpired(now) {
				delete(st.contexts, id)
				n++
			}
		}
		if n > 0 {
			s.count.Add(int64(-n))
			s.generation.Add(1)
		}
		st.mu.Unlock()
		purged += n
	}
	return purged, nil
}

// Count returns the number of stored contexts, including expired ones
// not yet purged.
func (s *ContextStore) Count() int {
	return int(s.count.Load())
}

// Generation returns the mutation counter.
func (s *ContextStore) Generation() uint64 {
	return s.generation.Load()
}

func cloneSorted(refs []*domain.Context) []domain.Context {
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	out := make([]domain.Context, len(refs))
	for i, c := range refs {
		out[i] = c.Clone()
	}
	return out
}
