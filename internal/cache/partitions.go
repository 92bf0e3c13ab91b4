package cache

import (
	"time"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// Selection is the value cached for a context selection.
type Selection struct {
	Contexts   []domain.ScoredContext
	Generation uint64

	// ValidUntil is the earliest expiry among the candidates scored.
	// Zero means none of them expires.
	ValidUntil time.Time
}

// Partitions groups the two independently sized cache partitions.
type Partitions struct {
	// Contexts caches context selections keyed by query, k and store generation.
	Contexts *LRU[string, Selection]

	// Search caches routed search results keyed by normalised query.
	Search *LRU[string, domain.CachedSearch]

	contextTTL time.Duration
	searchTTL  time.Duration
}

// NewPartitions builds both partitions from cache settings.
func NewPartitions(cfg domain.CacheSettings, now func() time.Time) *Partitions {
	opts := Options{Shards: cfg.Shards, Now: now}
	return &Partitions{
		Contexts:   New[string, Selection](cfg.ContextCapacity, opts),
		Search:     New[string, domain.CachedSearch](cfg.SearchCapacity, opts),
		contextTTL: cfg.ContextTTL,
		searchTTL:  cfg.SearchTTL,
	}
}

// ContextTTL returns the lifetime of cached selections.
func (p *Partitions) ContextTTL() time.Duration { return p.contextTTL }

// SearchTTL returns the lifetime of cached search results.
func (p *Partitions) SearchTTL() time.Duration { return p.searchTTL }
