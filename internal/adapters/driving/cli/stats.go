package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache, admission gate and store statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errQueryServiceMissing
	}

	st := queryService.Stats()
	if statsJSON {
		return printJSON(cmd, st)
	}

	cmd.Printf("Contexts stored: %d\n", st.Contexts)
	cmd.Println()
	printCacheStats(cmd, "Context cache", st.ContextCache)
	printCacheStats(cmd, "Search cache", st.SearchCache)
	cmd.Println("[Admission gate]")
	cmd.Printf("  Limit: %d  In flight: %d  Queued: %d  Rejected: %d\n",
		st.Gate.Limit, st.Gate.InFlight, st.Gate.Queued, st.Gate.Rejected)
	return nil
}

func printCacheStats(cmd *cobra.Command, name string, st domain.CacheStats) {
	cmd.Printf("[%s]\n", name)
	cmd.Printf("  Entries: %d/%d\n", st.Entries, st.Capacity)
	cmd.Printf("  Hits: %d  Misses: %d  Stale hits: %d  Hit rate: %.1f%%\n",
		st.Hits, st.Misses, st.StaleHits, st.HitRate*100)
	cmd.Printf("  Evictions: %d  Expirations: %d\n", st.Evictions, st.Expirations)
	cmd.Println()
}
