// Package github implements the code-search provider on top of the GitHub
// repository search API.
//
// Queries classified as code or technical are routed here first. Each
// query becomes one call to the search/repositories endpoint, sorted by
// stars, and every repository in the response becomes one
// [domain.SearchResult].
//
// # Architecture
//
// The provider follows the driven port pattern defined in [driven.SearchProvider].
// It comprises the following components:
//
//   - Provider: maps repositories to search results and errors to domain kinds
//   - Client: handles GitHub API communication with rate limiting
//   - RateLimiter: proactive and reactive throttling of the search quota
//
// # Authentication
//
// A personal access token is optional. When present it is sent through an
// oauth2 static token source and raises the search quota from 10 to 30
// requests per minute. The token is read from providers.github.token or
// the GITHUB_TOKEN / GITHUB_API_KEY environment variables.
//
// # Rate Limiting
//
// The client implements a dual-strategy rate limiting approach:
//
//  1. Proactive throttling: a token bucket sized to the per-minute search
//     quota spaces requests out before GitHub has to reject them.
//
//  2. Reactive handling: the client monitors X-RateLimit-Remaining and
//     X-RateLimit-Reset headers. When the quota is exhausted it waits for
//     the reset, or fails fast with [RateLimitError] when the reset lies
//     beyond the call deadline.
//
// # Relevance
//
// GitHub does not return a relevance score for star-sorted searches. Scores
// are rank-normalised: the first repository scores 1.0 and each following
// one scores 1 - rank/n. Snippets read
// "<description> (Language: X, Stars: N, Forks: M)".
//
// # Error Handling
//
// Connector errors are translated to [domain.ProviderError] kinds:
//
//   - 401 and 403 without rate limit headers: [domain.ErrUnauthorized]
//   - Primary and secondary rate limits, 429: [domain.ErrRateLimited]
//   - Other 4xx such as 422 for an invalid query: [domain.ErrInvalidInput]
//   - Deadline exceeded: [domain.ErrTimeout]
//   - Everything else: [domain.ErrTransport]
//
// # Example Usage
//
//	client, _ := github.NewClient(ctx, settings.Providers.GitHub)
//	provider := github.NewProvider(client, settings.Providers.GitHub.PerPage)
//
//	results, err := provider.Search(ctx, "async runtime rust", 5*time.Second)
package github
