// Package domain defines the core business entities for sercha-context.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Context: A stored knowledge fragment with domain, tags and priority
//   - SearchResult: One hit returned by an external search provider
//   - ClassificationResult: The routing category of a query
//   - RouteResult: How a query was answered (live, cached or stale)
//   - Settings: The configuration surface of the core
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
