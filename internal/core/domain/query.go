package domain

// QueryOptions configures a full pipeline run.
type QueryOptions struct {
	// K overrides the configured selection size when positive.
	K int

	// Domain overrides the classified domain for context scoring.
	Domain string

	// SkipSearch disables web search; only stored contexts are ranked.
	SkipSearch bool

	// Strategy overrides the configured selection strategy when non-empty.
	Strategy SelectionStrategy
}

// QueryResponse carries both ranked outputs of the pipeline.
type QueryResponse struct {
	Query          string               `json:"query"`
	Classification ClassificationResult `json:"classification"`

	// Results are the aggregated, ranked search results.
	Results []SearchResult `json:"results"`

	// Contexts are the ranked contexts, best first.
	Contexts []ScoredContext `json:"contexts"`

	// Route describes how the search results were obtained. Nil when
	// search was skipped.
	Route *RouteResult `json:"route,omitempty"`

	// SearchError is set when routing failed but contexts were still ranked.
	SearchError string `json:"search_error,omitempty"`
}

// CacheStats reports counters for one cache partition.
type CacheStats struct {
	Entries     int     `json:"entries"`
	Capacity    int     `json:"capacity"`
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	StaleHits   uint64  `json:"stale_hits"`
	Evictions   uint64  `json:"evictions"`
	Expirations uint64  `json:"expirations"`
	HitRate     float64 `json:"hit_rate"`
}

// GateStats reports admission gate occupancy.
type GateStats struct {
	Limit    int   `json:"limit"`
	InFlight int   `json:"in_flight"`
	Queued   int   `json:"queued"`
	Rejected int64 `json:"rejected"`
}

// PipelineStats aggregates runtime statistics.
type PipelineStats struct {
	Contexts     int        `json:"contexts"`
	ContextCache CacheStats `json:"context_cache"`
	SearchCache  CacheStats `json:"search_cache"`
	Gate         GateStats  `json:"gate"`
}
