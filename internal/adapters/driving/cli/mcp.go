package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-context/internal/adapters/driving/mcp"
	"github.com/custodia-labs/sercha-context/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so LLM applications can route
searches, rank stored contexts and add new ones.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

While serving, expired contexts are purged periodically and, with --watch,
the configured contexts file is reloaded whenever it changes.

Examples:
  # Stdio mode (default)
  sercha-context mcp serve

  # HTTP mode
  sercha-context mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "sercha-context": {
        "command": "/path/to/sercha-context",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().Duration("purge-interval", time.Minute, "how often expired contexts are removed (0 = never)")
	mcpServeCmd.Flags().Bool("watch", false, "reload the configured contexts file when it changes")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	purgeInterval, err := cmd.Flags().GetDuration("purge-interval")
	if err != nil {
		return fmt.Errorf("getting purge-interval flag: %w", err)
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("getting watch flag: %w", err)
	}

	ports := &mcp.Ports{
		Query:    queryService,
		Router:   searchRouter,
		Selector: contextSelector,
		Contexts: contextService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	contextsFile := ""
	if watch {
		if contextLoader == nil {
			return errContextLoaderMissing
		}
		if settingsService == nil {
			return errSettingsServiceMissing
		}
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		if settings.ContextsFile == "" {
			return errors.New("--watch needs contexts.file to be set in the config")
		}
		contextsFile = settings.ContextsFile
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if purgeInterval > 0 && contextService != nil {
		g.Go(func() error {
			purgeLoop(ctx, purgeInterval)
			return nil
		})
	}
	if contextsFile != "" {
		g.Go(func() error {
			return contextLoader.Watch(ctx, contextsFile)
		})
	}

	g.Go(func() error {
		defer cancel()
		if port > 0 {
			addr := fmt.Sprintf(":%d", port)
			fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
			return server.RunHTTP(ctx, addr)
		}
		return server.Run(ctx)
	})

	return g.Wait()
}

// purgeLoop removes expired contexts every interval until ctx is done.
func purgeLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := contextService.PurgeExpired(ctx); err != nil {
				logger.Warn("Purging expired contexts failed: %v", err)
			}
		}
	}
}
