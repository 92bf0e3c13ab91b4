// Package connectors groups the search provider adapters. Each
// subpackage talks to one external search backend and implements
// driven.SearchProvider, translating its failures into domain
// provider error kinds.
//
// Providers are registered with the services.ProviderRegistry at startup.
package connectors
