// Package mcp provides an MCP (Model Context Protocol) server adapter for
// sercha-context. It lets LLM applications route searches, rank stored
// contexts and add new contexts through tools and resources.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")

// ErrMissingContextService is returned by tools that need the context
// service when it was not provided.
var ErrMissingContextService = errors.New("mcp: context service is not configured")
