package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-context/internal/cache"
	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-context/internal/logger"
)

// Ensure ContextSelector implements the interface.
var _ driving.ContextSelector = (*ContextSelector)(nil)

// Hybrid selection weights. Priority and recency together stay below 0.15
// so a lexical gap larger than about a quarter of the query is never
// overridden.
const (
	WeightDomain   = 0.30
	WeightLexical  = 0.55
	WeightPriority = 0.10
	WeightRecency  = 0.05
)

// Weights scales the factors of a ScoreBreakdown into one score.
type Weights struct {
	Domain, Lexical, Priority, Recency float64
}

// strategyWeights maps each strategy to its profile. Every profile sums
// to one so scores stay in [0, 1] and min_score means the same thing.
var strategyWeights = map[domain.SelectionStrategy]Weights{
	domain.StrategyHybrid:    {WeightDomain, WeightLexical, WeightPriority, WeightRecency},
	domain.StrategyRelevance: {Domain: 0.35, Lexical: 0.65},
	domain.StrategyPriority:  {Domain: 0.05, Lexical: 0.15, Priority: 0.75, Recency: 0.05},
	domain.StrategyRecency:   {Domain: 0.05, Lexical: 0.15, Priority: 0.05, Recency: 0.75},
}

// WeightsFor returns the profile of strategy, falling back to hybrid.
func WeightsFor(strategy domain.SelectionStrategy) Weights {
	if w, ok := strategyWeights[strategy]; ok {
		return w
	}
	return strategyWeights[domain.StrategyHybrid]
}

// Score combines b with w.
func (w Weights) Score(b domain.ScoreBreakdown) float64 {
	return w.Domain*b.Domain + w.Lexical*b.Lexical + w.Priority*b.Priority + w.Recency*b.Recency
}

const (
	// partialDomainScore is awarded when a tag names the query domain
	// or a query token, without an exact domain match.
	partialDomainScore = 0.5
)

// ContextSelector ranks contexts against a query.
type ContextSelector struct {
	store      driven.ContextStore
	classifier driving.Classifier
	cache      *cache.LRU[string, cache.Selection]
	ttl        time.Duration
	cfg        domain.SelectionSettings
	now        func() time.Time
}

// NewContextSelector creates a selector. selections may be nil to
// disable caching.
func NewContextSelector(
	store driven.ContextStore,
	classifier driving.Classifier,
	selections *cache.LRU[string, cache.Selection],
	ttl time.Duration,
	cfg domain.SelectionSettings,
) *ContextSelector {
	return &ContextSelector{
		store:      store,
		classifier: classifier,
		cache:      selections,
		ttl:        ttl,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Select returns at most k stored contexts, best first.
func (s *ContextSelector) Select(ctx context.Context, query string, k int) ([]domain.ScoredContext, error) {
	return s.SelectWithResults(ctx, query, k, driving.SelectOptions{})
}

// SelectWithResults ranks stored contexts and, when given, ephemeral
// candidates built from search results. It scores a snapshot taken at
// call start, so concurrent updates never block or tear the ranking.
func (s *ContextSelector) SelectWithResults(
	ctx context.Context, query string, k int, opts driving.SelectOptions,
) ([]domain.ScoredContext, error) {
	if k <= 0 {
		k = s.cfg.K
	}
	logger.Section("Context Selection")
	start := time.Now()

	strategy, err := s.strategy(opts.Strategy)
	if err != nil {
		return nil, err
	}
	weights := WeightsFor(strategy)

	queryDomain := s.queryDomain(query, opts.Domain)
	cacheable := s.cache != nil && len(opts.Results) == 0
	if cacheable {
		key := selectionKey(s.store.Generation(), k, strategy, queryDomain, query)
		if sel, ok := s.cache.Get(key); ok && (sel.ValidUntil.IsZero() || s.now().Before(sel.ValidUntil)) {
			logger.Debug("Selection cache hit: %q", key)
			return cloneScored(sel.Contexts), nil
		}
	}

	snapshot, gen, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot contexts: %w", err)
	}

	scored := make([]domain.ScoredContext, 0, len(snapshot)+len(opts.Results))
	for _, c := range snapshot {
		scored = append(scored, domain.ScoredContext{Context: c, Origin: domain.OriginStore})
	}
	for _, r := range opts.Results {
		scored = append(scored, domain.ScoredContext{Context: searchCandidate(r), Origin: domain.OriginSearch})
	}

	tokens := queryTokens(query)
	ref := newestUpdate(scored)
	for i := range scored {
		scored[i].Breakdown = s.breakdown(&scored[i].Context, tokens, queryDomain, ref)
		scored[i].Score = weights.Score(scored[i].Breakdown)
	}

	sort.SliceStable(scored, func(i, j int) bool { return ranksBefore(scored[i], scored[j]) })

	out := scored[:0]
	for _, sc := range scored {
		if sc.Score < s.cfg.MinScore {
			continue
		}
		out = append(out, sc)
		if len(out) == k {
			break
		}
	}
	out = cloneScored(out)

	if cacheable {
		s.cache.Put(selectionKey(gen, k, strategy, queryDomain, query), cache.Selection{
			Contexts:   cloneScored(out),
			Generation: gen,
			ValidUntil: earliestExpiry(snapshot),
		}, s.ttl)
	}

	logger.Debug("Selected %d of %d candidates for %q (domain %s, strategy %s) in %s",
		len(out), len(scored), query, queryDomain, strategy, time.Since(start))
	return out, nil
}

// strategy resolves the per-call override, then the configured default.
func (s *ContextSelector) strategy(override domain.SelectionStrategy) (domain.SelectionStrategy, error) {
	if override != "" {
		return domain.ParseSelectionStrategy(string(override))
	}
	return domain.ParseSelectionStrategy(string(s.cfg.Strategy))
}

// queryDomain picks the domain label the domain-match factor compares to.
func (s *ContextSelector) queryDomain(query, override string) string {
	if override != "" {
		return strings.ToLower(override)
	}
	label := s.classifier.ClassifyDomain(query)
	if label == domain.DomainGeneral &&
		s.classifier.Classify(query).Category == domain.CategoryCodeTechnical {
		return domain.DomainTechnical
	}
	return label
}

func (s *ContextSelector) breakdown(c *domain.Context, tokens []string, queryDomain string, ref time.Time) domain.ScoreBreakdown {
	return domain.ScoreBreakdown{
		Domain:   domainScore(c, queryDomain, tokens),
		Lexical:  lexicalScore(c, tokens),
		Priority: float64(c.Priority) / float64(domain.MaxPriority),
		Recency:  recencyScore(c.UpdatedAt, ref, s.cfg.HalfLife),
	}
}

// domainScore is 1 for an exact domain match, 0.5 when a tag names the
// query domain or a query token, and 0 otherwise.
func domainScore(c *domain.Context, queryDomain string, tokens []string) float64 {
	if queryDomain != "" && strings.EqualFold(c.Domain, queryDomain) {
		return 1
	}
	if queryDomain != "" && c.HasTag(queryDomain) {
		return partialDomainScore
	}
	for _, t := range tokens {
		if c.HasTag(t) {
			return partialDomainScore
		}
	}
	return 0
}

// lexicalScore is the fraction of query tokens found in tags or content.
func lexicalScore(c *domain.Context, tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	words := wordSet(c.Content)
	for _, tag := range c.Tags {
		for _, w := range splitWords(tag) {
			words[w] = struct{}{}
		}
	}
	hits := 0
	for _, t := range tokens {
		if _, ok := words[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

// recencyScore decays by half every halfLife of age relative to ref.
func recencyScore(updated, ref time.Time, halfLife time.Duration) float64 {
	if halfLife <= 0 {
		return 0
	}
	age := ref.Sub(updated)
	if age < 0 {
		age = 0
	}
	return math.Exp(-math.Ln2 * float64(age) / float64(halfLife))
}

// ranksBefore orders by score, then priority, then most recently
// updated, then id.
func ranksBefore(a, b domain.ScoredContext) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Context.Priority != b.Context.Priority {
		return a.Context.Priority > b.Context.Priority
	}
	if !a.Context.UpdatedAt.Equal(b.Context.UpdatedAt) {
		return a.Context.UpdatedAt.After(b.Context.UpdatedAt)
	}
	return a.Context.ID < b.Context.ID
}

// newestUpdate is the recency reference point. Measuring age from the
// newest candidate instead of the wall clock keeps identical store state
// ranking identically.
func newestUpdate(scored []domain.ScoredContext) time.Time {
	var ref time.Time
	for _, sc := range scored {
		if sc.Context.UpdatedAt.After(ref) {
			ref = sc.Context.UpdatedAt
		}
	}
	return ref
}

func earliestExpiry(cs []domain.Context) time.Time {
	var first time.Time
	for _, c := range cs {
		if c.ExpiresAt != nil && (first.IsZero() || c.ExpiresAt.Before(first)) {
			first = *c.ExpiresAt
		}
	}
	return first
}

// searchCandidate turns a search result into an ephemeral context.
func searchCandidate(r domain.SearchResult) domain.Context {
	sum := sha256.Sum256([]byte(IdentityKey(r)))
	return domain.Context{
		ID:        "search:" + hex.EncodeToString(sum[:8]),
		Domain:    domain.DomainWeb,
		Content:   strings.TrimSpace(r.Title + "\n" + r.Snippet),
		Priority:  domain.DefaultPriority,
		Metadata:  map[string]string{"url": r.URL, "source": r.Source},
		Version:   1,
		CreatedAt: r.FetchedAt,
		UpdatedAt: r.FetchedAt,
	}
}

func selectionKey(gen uint64, k int, strategy domain.SelectionStrategy, queryDomain, query string) string {
	return fmt.Sprintf("%d|%d|%s|%s|%s", gen, k, strategy, queryDomain, normalizeQuery(query))
}

func cloneScored(in []domain.ScoredContext) []domain.ScoredContext {
	out := make([]domain.ScoredContext, len(in))
	for i, sc := range in {
		out[i] = sc
		out[i].Context = sc.Context.Clone()
	}
	return out
}
