package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

var settingsJSON bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and reset cache, router, selection and provider settings.

Settings are read from the TOML config file. GITHUB_TOKEN, BING_API_KEY and
BING_SEARCH_URL override the stored provider credentials.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Write default settings to the config file",
	RunE:  runSettingsReset,
}

func init() {
	settingsCmd.PersistentFlags().BoolVar(&settingsJSON, "json", false, "output as JSON")
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}

// settingsView is the JSON form of settings with credentials masked.
type settingsView struct {
	Cache     domain.CacheSettings     `json:"cache"`
	Router    domain.RouterSettings    `json:"router"`
	Selection domain.SelectionSettings `json:"selection"`
	GitHub    providerView             `json:"github"`
	Bing      providerView             `json:"bing"`
	Contexts  string                   `json:"contexts_file,omitempty"`
}

type providerView struct {
	Endpoint   string `json:"endpoint"`
	Credential string `json:"credential"`
	Configured bool   `json:"configured"`
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsServiceMissing
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if settingsJSON {
		return printJSON(cmd, settingsView{
			Cache:     settings.Cache,
			Router:    settings.Router,
			Selection: settings.Selection,
			GitHub: providerView{
				Endpoint:   settings.Providers.GitHub.BaseURL,
				Credential: credential(settings.Providers.GitHub.Token),
				Configured: settings.Providers.GitHub.IsConfigured(),
			},
			Bing: providerView{
				Endpoint:   settings.Providers.Bing.Endpoint,
				Credential: credential(settings.Providers.Bing.APIKey),
				Configured: settings.Providers.Bing.IsConfigured(),
			},
			Contexts: settings.ContextsFile,
		})
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Cache]")
	cmd.Printf("  Context capacity: %d (ttl %s)\n", settings.Cache.ContextCapacity, settings.Cache.ContextTTL)
	cmd.Printf("  Search capacity: %d (ttl %s)\n", settings.Cache.SearchCapacity, settings.Cache.SearchTTL)
	cmd.Printf("  Shards: %d\n", settings.Cache.Shards)
	cmd.Println()

	cmd.Println("[Router]")
	cmd.Printf("  Max concurrent requests: %d\n", settings.Router.MaxConcurrentRequests)
	cmd.Printf("  Max queue depth: %d\n", settings.Router.MaxQueueDepth)
	cmd.Printf("  Provider timeout: %s\n", settings.Router.ProviderTimeout)
	cmd.Printf("  Retries: %d (backoff %s to %s)\n",
		settings.Router.RetryCount, settings.Router.RetryBackoffMin, settings.Router.RetryBackoffMax)
	cmd.Println()

	cmd.Println("[Selection]")
	cmd.Printf("  K: %d\n", settings.Selection.K)
	cmd.Printf("  Max results: %d\n", settings.Selection.MaxResults)
	cmd.Printf("  Recency half-life: %s\n", settings.Selection.HalfLife)
	cmd.Printf("  Min score: %.2f\n", settings.Selection.MinScore)
	cmd.Printf("  Strategy: %s\n", settings.Selection.Strategy)
	cmd.Println()

	cmd.Println("[GitHub]")
	cmd.Printf("  Base URL: %s\n", settings.Providers.GitHub.BaseURL)
	cmd.Printf("  Token: %s\n", credential(settings.Providers.GitHub.Token))
	cmd.Println()

	cmd.Println("[Bing]")
	cmd.Printf("  Endpoint: %s\n", settings.Providers.Bing.Endpoint)
	cmd.Printf("  Market: %s\n", settings.Providers.Bing.Market)
	cmd.Printf("  API Key: %s\n", credential(settings.Providers.Bing.APIKey))
	status := "configured"
	if !settings.Providers.Bing.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)

	if settings.ContextsFile != "" {
		cmd.Println()
		cmd.Printf("Contexts file: %s\n", settings.ContextsFile)
	}
	return nil
}

func runSettingsReset(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsServiceMissing
	}

	defaults := settingsService.GetDefaults()
	if err := settingsService.Save(&defaults); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Println("Settings reset to defaults.")
	return nil
}

func credential(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	return maskAPIKey(secret)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
