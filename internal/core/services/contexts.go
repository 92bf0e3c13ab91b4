package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-context/internal/logger"
)

// Ensure ContextService implements the interface.
var _ driving.ContextService = (*ContextService)(nil)

// maxPromotedResults bounds how many search results go into one
// promoted context.
const maxPromotedResults = 5

// ContextService manages stored contexts on top of a ContextStore.
type ContextService struct {
	store driven.ContextStore
	now   func() time.Time
}

// NewContextService creates a new context service.
func NewContextService(store driven.ContextStore) *ContextService {
	return &ContextService{store: store, now: time.Now}
}

// Add validates and stores a context, generating an id when empty.
func (s *ContextService) Add(ctx context.Context, c domain.Context) (string, error) {
	if s.store == nil {
		return "", domain.ErrProviderNotConfigured
	}
	if strings.TrimSpace(c.ID) == "" {
		c.ID = uuid.New().String()
	}
	c.Domain = strings.ToLower(strings.TrimSpace(c.Domain))
	if c.Domain == "" {
		c.Domain = domain.DomainGeneral
	}
	c.Tags = dedupeTags(c.Tags)

	id, err := s.store.Add(ctx, c)
	if err != nil {
		return "", fmt.Errorf("add context: %w", err)
	}
	logger.Debug("Added context %s (domain %s, priority %d)", id, c.Domain, c.Priority)
	return id, nil
}

// Get retrieves a context by id.
func (s *ContextService) Get(ctx context.Context, id string) (*domain.Context, error) {
	return s.store.Get(ctx, id)
}

// Update applies mutator atomically.
func (s *ContextService) Update(
	ctx context.Context, id string, mutator domain.ContextMutator,
) (*domain.Context, error) {
	updated, err := s.store.Update(ctx, id, func(c *domain.Context) error {
		if mutator != nil {
			if err := mutator(c); err != nil {
				return err
			}
		}
		c.Domain = strings.ToLower(strings.TrimSpace(c.Domain))
		if c.Domain == "" {
			c.Domain = domain.DomainGeneral
		}
		c.Tags = dedupeTags(c.Tags)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("Updated context %s to version %d", id, updated.Version)
	return updated, nil
}

// ListByDomain returns contexts of a domain, or every context when
// domainLabel is empty.
func (s *ContextService) ListByDomain(ctx context.Context, domainLabel string) ([]domain.Context, error) {
	if strings.TrimSpace(domainLabel) == "" {
		all, _, err := s.store.Snapshot(ctx)
		return all, err
	}
	return s.store.ListByDomain(ctx, strings.TrimSpace(domainLabel))
}

// Delete removes a context.
func (s *ContextService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// PurgeExpired removes contexts whose expiry has passed.
func (s *ContextService) PurgeExpired(ctx context.Context) (int, error) {
	n, err := s.store.PurgeExpired(ctx, s.now())
	if err != nil {
		return n, fmt.Errorf("purge expired contexts: %w", err)
	}
	if n > 0 {
		logger.Info("Purged %d expired contexts", n)
	}
	return n, nil
}

// PromoteSearch stores the top search results for query as a new
// context so later selections can reuse them without a provider call.
func (s *ContextService) PromoteSearch(
	ctx context.Context, query, domainLabel string, results []domain.SearchResult,
) (*domain.Context, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no search results to promote", domain.ErrInvalidInput)
	}
	if len(results) > maxPromotedResults {
		results = results[:maxPromotedResults]
	}

	var content strings.Builder
	meta := map[string]string{"query": query, "origin": string(domain.OriginSearch)}
	for i, r := range results {
		if i > 0 {
			content.WriteString("\n\n")
		}
		content.WriteString(r.Title)
		if r.Snippet != "" {
			content.WriteString("\n")
			content.WriteString(r.Snippet)
		}
		meta["url."+strconv.Itoa(i)] = r.URL
		meta["source."+strconv.Itoa(i)] = r.Source
	}

	if domainLabel == "" {
		domainLabel = domain.DomainWeb
	}
	id, err := s.Add(ctx, domain.Context{
		Domain:   domainLabel,
		Content:  content.String(),
		Tags:     queryTokens(query),
		Priority: domain.DefaultPriority,
		Metadata: meta,
	})
	if err != nil {
		return nil, fmt.Errorf("promote search: %w", err)
	}
	return s.store.Get(ctx, id)
}

// dedupeTags trims and removes case-insensitive duplicate tags while
// keeping the first spelling and order.
func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return tags
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
