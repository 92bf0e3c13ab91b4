package services

import (
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
)

// Provider names of the built-in adapters.
const (
	ProviderGitHub = "github"
	ProviderBing   = "bing"
)

// defaultCategoryOrder maps each category to its provider preference list.
// The first entry is the primary; the rest are fallbacks only.
var defaultCategoryOrder = map[domain.Category][]string{
	domain.CategoryCodeTechnical: {ProviderGitHub, ProviderBing},
	domain.CategoryGeneral:       {ProviderBing, ProviderGitHub},
}

// ProviderRegistry holds the registered search providers and the
// per-category preference order. Safe for concurrent use.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]driven.SearchProvider
	order     map[domain.Category][]string
}

// NewProviderRegistry creates a registry with the default category order.
func NewProviderRegistry() *ProviderRegistry {
	order := make(map[domain.Category][]string, len(defaultCategoryOrder))
	for cat, names := range defaultCategoryOrder {
		order[cat] = append([]string(nil), names...)
	}
	return &ProviderRegistry{
		providers: make(map[string]driven.SearchProvider),
		order:     order,
	}
}

// Register adds or replaces a provider under its Name.
func (r *ProviderRegistry) Register(p driven.SearchProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// SetOrder sets the provider preference list of a category.
func (r *ProviderRegistry) SetOrder(category domain.Category, names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order[category] = append([]string(nil), names...)
}

// Get returns a provider by name.
func (r *ProviderRegistry) Get(name string) (driven.SearchProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrProviderNotConfigured, name)
}

// Providers returns the registered provider names, sorted.
func (r *ProviderRegistry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Order returns the registered providers for a category, best first.
// Names without a registered provider are skipped. A category with no
// explicit order falls back to the General order.
func (r *ProviderRegistry) Order(category domain.Category) []driven.SearchProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names, ok := r.order[category]
	if !ok {
		names = r.order[domain.CategoryGeneral]
	}
	out := make([]driven.SearchProvider, 0, len(names))
	for _, name := range names {
		if p, ok := r.providers[name]; ok {
			out = append(out, p)
		}
	}
	return out
}
