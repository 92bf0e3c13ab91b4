// Package driving defines the interfaces the CLI and MCP adapters call
// into: search routing, context selection, the combined query pipeline,
// context management and settings.
//
// Implementations live in internal/core/services.
package driving
