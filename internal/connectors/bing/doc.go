// Package bing implements the general web-search provider against the
// Bing Web Search v7 API, or any endpoint speaking the same JSON shape.
//
// Queries that are not code or technical are routed here first, and
// code queries fall back to it when GitHub is unavailable.
//
// # Request
//
// One GET per query with the q, count and mkt parameters and the API key
// in the Ocp-Apim-Subscription-Key header. Only webPages.value is read.
//
// # Relevance
//
// Bing does not expose a score, so results are scored by keyword overlap:
// every lowercase query keyword found in the title adds 2 and every one
// found in the snippet adds 1. The sum is divided by 3 × keywords so the
// score lies in [0, 1]. Results are returned best first.
//
// # Rate Limiting
//
// A token bucket throttles requests before they leave. A 429 response
// records a backoff window from Retry-After; calls made inside the window
// fail fast with [domain.ErrRateLimited] when the window outlasts their
// deadline.
//
// # Error Handling
//
//   - 401 and 403: [domain.ErrUnauthorized]
//   - 429: [domain.ErrRateLimited] with RetryAfter
//   - Other 4xx: [domain.ErrInvalidInput], never retried
//   - 5xx, network and decode failures: [domain.ErrTransport]
//   - Deadline exceeded: [domain.ErrTimeout]
package bing
