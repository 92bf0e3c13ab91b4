package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
)

// SearchWebInput is the input schema for the search_web tool.
type SearchWebInput struct {
	Query string `json:"query" jsonschema:"the search query; code questions go to code search, others to web search"`
}

// SearchWebOutput is the output schema for the search_web tool.
type SearchWebOutput struct {
	Category  string               `json:"category"`
	Provider  string               `json:"provider,omitempty"`
	FromCache bool                 `json:"from_cache"`
	Stale     bool                 `json:"stale"`
	Results   []SearchResultOutput `json:"results"`
	Count     int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	Source  string  `json:"source"`
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Snippet string  `json:"snippet,omitempty"`
	Score   float64 `json:"score"`
}

// SelectContextsInput is the input schema for the select_contexts tool.
type SelectContextsInput struct {
	Query         string `json:"query" jsonschema:"the query to rank stored contexts against"`
	K             int    `json:"k,omitempty" jsonschema:"maximum number of contexts to return (default from settings)"`
	Domain        string `json:"domain,omitempty" jsonschema:"domain label overriding the classified query domain"`
	Strategy      string `json:"strategy,omitempty" jsonschema:"ranking strategy: hybrid, relevance, priority or recency (default from settings)"`
	IncludeSearch bool   `json:"include_search,omitempty" jsonschema:"also search the web and rank the results with the stored contexts"`
}

// SelectContextsOutput is the output schema for the select_contexts tool.
type SelectContextsOutput struct {
	Contexts    []ContextOutput      `json:"contexts"`
	Count       int                  `json:"count"`
	Results     []SearchResultOutput `json:"results,omitempty"`
	SearchError string               `json:"search_error,omitempty"`
}

// ContextOutput represents a ranked context.
type ContextOutput struct {
	ID       string   `json:"id"`
	Domain   string   `json:"domain"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags,omitempty"`
	Priority int      `json:"priority"`
	Score    float64  `json:"score"`
	Origin   string   `json:"origin"`
}

// AddContextInput is the input schema for the add_context tool.
type AddContextInput struct {
	ID         string            `json:"id,omitempty" jsonschema:"context id; generated when empty"`
	Domain     string            `json:"domain,omitempty" jsonschema:"domain label such as medical or technical (default general)"`
	Content    string            `json:"content" jsonschema:"the context text"`
	Tags       []string          `json:"tags,omitempty" jsonschema:"keywords describing the context"`
	Priority   int               `json:"priority,omitempty" jsonschema:"priority from 0 to 10"`
	Metadata   map[string]string `json:"metadata,omitempty" jsonschema:"arbitrary key-value pairs"`
	TTLSeconds int               `json:"ttl_seconds,omitempty" jsonschema:"expire the context after this many seconds"`
}

// AddContextOutput is the output schema for the add_context tool.
type AddContextOutput struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_web",
		Description: "Search code or the web for a query, with caching and provider fallback",
	}, s.handleSearchWeb)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "select_contexts",
		Description: "Rank the stored contexts most relevant to a query",
	}, s.handleSelectContexts)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_context",
		Description: "Store a new context for later selection",
	}, s.handleAddContext)
}

// handleSearchWeb handles the search_web tool invocation.
func (s *Server) handleSearchWeb(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchWebInput,
) (*mcp.CallToolResult, SearchWebOutput, error) {
	var route *domain.RouteResult
	if s.ports.Router != nil {
		res, err := s.ports.Router.Route(ctx, input.Query)
		if err != nil {
			return nil, SearchWebOutput{}, err
		}
		route = res
	} else {
		resp, err := s.ports.Query.Query(ctx, input.Query, domain.QueryOptions{})
		if err != nil {
			return nil, SearchWebOutput{}, err
		}
		route = resp.Route
		if route == nil {
			route = &domain.RouteResult{Classification: resp.Classification}
		}
		route.Results = resp.Results
	}

	output := SearchWebOutput{
		Category:  route.Classification.Category.String(),
		Provider:  route.Provider,
		FromCache: route.FromCache,
		Stale:     route.Stale,
		Results:   toResultOutputs(route.Results),
		Count:     len(route.Results),
	}
	return nil, output, nil
}

// handleSelectContexts handles the select_contexts tool invocation.
func (s *Server) handleSelectContexts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SelectContextsInput,
) (*mcp.CallToolResult, SelectContextsOutput, error) {
	var output SelectContextsOutput

	if !input.IncludeSearch && s.ports.Selector != nil {
		scored, err := s.ports.Selector.SelectWithResults(ctx, input.Query, input.K,
			driving.SelectOptions{Domain: input.Domain, Strategy: domain.SelectionStrategy(input.Strategy)})
		if err != nil {
			return nil, SelectContextsOutput{}, err
		}
		output.Contexts = toContextOutputs(scored)
		output.Count = len(scored)
		return nil, output, nil
	}

	resp, err := s.ports.Query.Query(ctx, input.Query, domain.QueryOptions{
		K:          input.K,
		Domain:     input.Domain,
		Strategy:   domain.SelectionStrategy(input.Strategy),
		SkipSearch: !input.IncludeSearch,
	})
	if err != nil {
		return nil, SelectContextsOutput{}, err
	}
	output.Contexts = toContextOutputs(resp.Contexts)
	output.Count = len(resp.Contexts)
	if input.IncludeSearch {
		output.Results = toResultOutputs(resp.Results)
		output.SearchError = resp.SearchError
	}
	return nil, output, nil
}

// handleAddContext handles the add_context tool invocation.
func (s *Server) handleAddContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddContextInput,
) (*mcp.CallToolResult, AddContextOutput, error) {
	if s.ports.Contexts == nil {
		return nil, AddContextOutput{}, ErrMissingContextService
	}

	c := domain.Context{
		ID:       input.ID,
		Domain:   input.Domain,
		Content:  input.Content,
		Tags:     input.Tags,
		Priority: input.Priority,
		Metadata: input.Metadata,
	}
	if input.TTLSeconds > 0 {
		expires := s.now().Add(time.Duration(input.TTLSeconds) * time.Second)
		c.ExpiresAt = &expires
	}

	id, err := s.ports.Contexts.Add(ctx, c)
	if err != nil {
		return nil, AddContextOutput{}, err
	}
	stored, err := s.ports.Contexts.Get(ctx, id)
	if err != nil {
		return nil, AddContextOutput{}, err
	}
	return nil, AddContextOutput{ID: stored.ID, Version: stored.Version}, nil
}

func toResultOutputs(results []domain.SearchResult) []SearchResultOutput {
	out := make([]SearchResultOutput, len(results))
	for i := range results {
		out[i] = SearchResultOutput{
			Source:  results[i].Source,
			Title:   results[i].Title,
			URL:     results[i].URL,
			Snippet: results[i].Snippet,
			Score:   results[i].RelevanceScore,
		}
	}
	return out
}

func toContextOutputs(scored []domain.ScoredContext) []ContextOutput {
	out := make([]ContextOutput, len(scored))
	for i := range scored {
		c := &scored[i].Context
		out[i] = ContextOutput{
			ID:       c.ID,
			Domain:   c.Domain,
			Content:  c.Content,
			Tags:     c.Tags,
			Priority: c.Priority,
			Score:    scored[i].Score,
			Origin:   string(scored[i].Origin),
		}
	}
	return out
}
