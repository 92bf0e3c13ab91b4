package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
)

var (
	selectK        int
	selectDomain   string
	selectStrategy string
	selectJSON     bool

	queryK        int
	queryDomain   string
	queryStrategy string
	queryNoSearch bool
	queryPromote  bool
	queryJSON     bool
)

var selectCmd = &cobra.Command{
	Use:   "select [query]",
	Short: "Rank stored contexts against a query",
	Long: `Scores every stored context by domain match, keyword overlap,
priority and recency, and prints the best k. No search provider is called.`,
	Args: cobra.ExactArgs(1),
	RunE: runSelect,
}

var queryCmd = &cobra.Command{
	Use:   "query [query]",
	Short: "Search and rank contexts in one step",
	Long: `Runs the full pipeline: the query is classified, routed to the search
providers, the results are deduplicated and ranked, and stored contexts
are ranked together with the search results.

A search failure does not fail the query; contexts are still ranked and
the failure is reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	selectCmd.Flags().IntVarP(&selectK, "top", "k", 0, "number of contexts to return (0 = configured default)")
	selectCmd.Flags().StringVar(&selectDomain, "domain", "", "override the classified query domain")
	selectCmd.Flags().StringVar(&selectStrategy, "strategy", "", "ranking strategy: hybrid, relevance, priority or recency")
	selectCmd.Flags().BoolVar(&selectJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(selectCmd)

	queryCmd.Flags().IntVarP(&queryK, "top", "k", 0, "number of contexts to return (0 = configured default)")
	queryCmd.Flags().StringVar(&queryDomain, "domain", "", "override the classified query domain")
	queryCmd.Flags().StringVar(&queryStrategy, "strategy", "", "ranking strategy: hybrid, relevance, priority or recency")
	queryCmd.Flags().BoolVar(&queryNoSearch, "no-search", false, "rank stored contexts only")
	queryCmd.Flags().BoolVar(&queryPromote, "promote", false, "store the search results as a new context")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runSelect(cmd *cobra.Command, args []string) error {
	if contextSelector == nil {
		return errSelectorMissing
	}

	scored, err := contextSelector.SelectWithResults(commandContext(cmd), args[0], selectK,
		driving.SelectOptions{Domain: selectDomain, Strategy: domain.SelectionStrategy(selectStrategy)})
	if err != nil {
		return fmt.Errorf("select failed: %w", err)
	}

	if selectJSON {
		return printJSON(cmd, scored)
	}
	printScored(cmd, scored)
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errQueryServiceMissing
	}

	resp, err := queryService.Query(commandContext(cmd), args[0], domain.QueryOptions{
		K:          queryK,
		Domain:     queryDomain,
		Strategy:   domain.SelectionStrategy(queryStrategy),
		SkipSearch: queryNoSearch,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	var promoted *domain.Context
	if queryPromote && len(resp.Results) > 0 {
		if contextService == nil {
			return errContextServiceMissing
		}
		promoted, err = contextService.PromoteSearch(commandContext(cmd), args[0], queryDomain, resp.Results)
		if err != nil {
			return fmt.Errorf("promote search results: %w", err)
		}
	}

	if queryJSON {
		return printJSON(cmd, resp)
	}

	if resp.Route != nil {
		printRoute(cmd, resp.Route)
	}
	if resp.SearchError != "" {
		cmd.Printf("Warning: search failed: %s\n\n", resp.SearchError)
	}
	if !queryNoSearch {
		printResults(cmd, resp.Results)
	}
	printScored(cmd, resp.Contexts)
	if promoted != nil {
		cmd.Printf("Stored search results as context %s\n", promoted.ID)
	}
	return nil
}

func printScored(cmd *cobra.Command, scored []domain.ScoredContext) {
	if len(scored) == 0 {
		cmd.Println("No contexts found.")
		return
	}

	cmd.Println("Contexts:")
	cmd.Println()
	for i := range scored {
		c := &scored[i].Context
		cmd.Printf("  [%d] %s (%.3f) [%s]\n", i+1, c.ID, scored[i].Score, c.Domain)
		cmd.Printf("      %s\n", truncate(c.Content, 100))
		if scored[i].Origin == domain.OriginSearch {
			cmd.Println("      (from search)")
		}
		cmd.Println()
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
