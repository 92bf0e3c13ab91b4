package github

import (
	"context"
	"fmt"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/logger"
)

// ProviderName identifies GitHub results and errors.
const ProviderName = "github"

// Ensure Provider implements the interface.
var _ driven.SearchProvider = (*Provider)(nil)

// Provider is the code-search provider.
type Provider struct {
	client  *Client
	perPage int
	now     func() time.Time
}

// NewProvider creates a provider returning up to perPage repositories.
func NewProvider(client *Client, perPage int) *Provider {
	return &Provider{
		client:  client,
		perPage: perPage,
		now:     time.Now,
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return ProviderName
}

// Search returns repositories matching query, most starred first.
func (p *Provider) Search(ctx context.Context, query string, timeout time.Duration) ([]domain.SearchResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := p.now()
	repos, err := p.client.SearchRepositories(ctx, query, p.perPage)
	if err != nil {
		return nil, toProviderError(err, p.now())
	}

	fetched := p.now()
	results := make([]domain.SearchResult, 0, len(repos))
	for i, repo := range repos {
		results = append(results, domain.SearchResult{
			Source:         ProviderName,
			URL:            repo.GetHTMLURL(),
			Title:          repoTitle(repo),
			Snippet:        repoSnippet(repo),
			RelevanceScore: rankScore(i, len(repos)),
			FetchedAt:      fetched,
		})
	}
	logger.Debug("GitHub: %d repositories for %q in %s", len(results), query, fetched.Sub(start))
	return results, nil
}

// rankScore normalises a rank into (0, 1], first = 1.
func rankScore(rank, n int) float64 {
	if n <= 0 {
		return 0
	}
	return 1 - float64(rank)/float64(n)
}

func repoTitle(repo *gh.Repository) string {
	if name := repo.GetFullName(); name != "" {
		return name
	}
	return repo.GetName()
}

func repoSnippet(repo *gh.Repository) string {
	language := repo.GetLanguage()
	if language == "" {
		language = "Unknown"
	}
	return fmt.Sprintf("%s (Language: %s, Stars: %d, Forks: %d)",
		repo.GetDescription(), language, repo.GetStargazersCount(), repo.GetForksCount())
}
