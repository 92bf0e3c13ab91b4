package domain

import "time"

// SearchResult is one item returned by an external search provider.
type SearchResult struct {
	// Source is the provider identifier (e.g. "github", "bing").
	Source string `json:"source"`

	// URL, Title and Snippet are display fields.
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`

	// RelevanceScore is normalised to [0,1] by the adapter.
	RelevanceScore float64 `json:"relevance_score"`

	// FetchedAt drives cache TTL and staleness decisions.
	FetchedAt time.Time `json:"fetched_at"`
}

// CachedSearch is the value stored in the search-result cache partition.
type CachedSearch struct {
	Results  []SearchResult
	Provider string
	Category Category
	StoredAt time.Time
}

// RouteState names a step of the per-request routing state machine.
type RouteState string

// Router states.
const (
	RouteClassifying RouteState = "classifying"
	RouteDispatching RouteState = "dispatching"
	RouteRetrying    RouteState = "retrying"
	RouteSucceeded   RouteState = "succeeded"
	RouteDegraded    RouteState = "degraded"
	RouteFailed      RouteState = "failed"
)

// RouteAttempt records one provider call made while routing a query.
type RouteAttempt struct {
	Provider string        `json:"provider"`
	Attempt  int           `json:"attempt"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// RouteResult is the outcome of routing a query to the search providers.
type RouteResult struct {
	Query          string               `json:"query"`
	Classification ClassificationResult `json:"classification"`
	Results        []SearchResult       `json:"results"`

	// Provider that produced Results. Empty when nothing answered.
	Provider string `json:"provider,omitempty"`

	// FromCache is true when Results came from an unexpired cache entry.
	FromCache bool `json:"from_cache"`

	// Stale is true when every provider failed and Results came from an
	// expired cache entry (degraded result).
	Stale bool `json:"stale"`

	State    RouteState     `json:"state"`
	Attempts []RouteAttempt `json:"attempts,omitempty"`
}
