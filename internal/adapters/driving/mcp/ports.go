package mcp

import (
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
)

// Ports holds the driving ports the MCP server dispatches to. Only Query
// is required; tools degrade to it when the narrower ports are absent.
type Ports struct {
	// Query runs the full pipeline and reports statistics.
	Query driving.QueryService

	// Router routes raw searches. Optional; search_web falls back to Query.
	Router driving.SearchRouter

	// Selector ranks stored contexts. Optional; select_contexts falls back
	// to Query with search skipped.
	Selector driving.ContextSelector

	// Contexts manages stored contexts. Optional; add_context and the
	// context resources need it.
	Contexts driving.ContextService
}

// Validate reports a missing query service. A nil Ports is invalid.
func (p *Ports) Validate() error {
	if p == nil || p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
