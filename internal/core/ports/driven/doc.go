// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ContextStore: In-memory context persistence for the process lifetime
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// Any number of these can be registered; the router degrades gracefully
// (fallback provider, then stale cache) when some are missing or failing:
//
//   - SearchProvider: An external search backend (GitHub, Bing)
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
