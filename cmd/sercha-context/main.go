/*
Package main is the entry point for the sercha-context CLI.

sercha-context stores knowledge fragments for LLM applications, routes
queries to code or web search, and ranks the most relevant contexts.

Usage:

	sercha-context [command]

Examples:

	# Rank stored contexts together with live search results
	sercha-context query "how to use async in Rust"

	# Load context definitions and serve them over MCP
	sercha-context context load contexts.toml
	sercha-context mcp serve
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/sercha-context/internal/adapters/driving/cli"
)

// Version information (set via ldflags during build).
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(buildServices)

	if err := cli.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
