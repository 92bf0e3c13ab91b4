package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Route a query to the search providers",
	Long: `Classifies the query and sends it to the preferred provider for its
category: code search for code/technical queries, web search otherwise.
Failed providers are retried and then replaced by the fallback provider.
Results are cached; when every provider fails an expired cache entry is
returned and marked stale.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchRouter == nil {
		return errSearchRouterMissing
	}

	res, err := searchRouter.Route(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd, res)
	}

	printRoute(cmd, res)
	printResults(cmd, res.Results)
	return nil
}

func printRoute(cmd *cobra.Command, res *domain.RouteResult) {
	cmd.Printf("Category: %s (%.2f)\n", res.Classification.Category.Description(), res.Classification.Confidence)
	provider := res.Provider
	if provider == "" {
		provider = "(none)"
	}
	switch {
	case res.Stale:
		cmd.Printf("Provider: %s (stale cache)\n", provider)
	case res.FromCache:
		cmd.Printf("Provider: %s (cached)\n", provider)
	default:
		cmd.Printf("Provider: %s\n", provider)
	}
	cmd.Println()
}

func printResults(cmd *cobra.Command, results []domain.SearchResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		title := results[i].Title
		if title == "" {
			title = results[i].URL
		}
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, results[i].RelevanceScore)
		cmd.Printf("      %s\n", results[i].URL)
		if results[i].Snippet != "" {
			cmd.Printf("      %s\n", results[i].Snippet)
		}
		cmd.Println()
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
