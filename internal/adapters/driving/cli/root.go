package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-context/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

var (
	cfgFile string
	verbose bool
)

// Services bundles the driving ports the commands depend on.
type Services struct {
	Contexts ContextServices
	Router   driving.SearchRouter
	Selector driving.ContextSelector
	Query    driving.QueryService
	Settings driving.SettingsService
}

// ContextServices groups context management and file loading.
type ContextServices struct {
	Service driving.ContextService
	Loader  driving.ContextLoader
}

// BootstrapFunc builds the services from the configuration file at path.
// An empty path selects the default location.
type BootstrapFunc func(ctx context.Context, configPath string) (*Services, error)

// Service instances used by the commands.
var (
	contextService  driving.ContextService
	contextLoader   driving.ContextLoader
	searchRouter    driving.SearchRouter
	contextSelector driving.ContextSelector
	queryService    driving.QueryService
	settingsService driving.SettingsService

	bootstrap BootstrapFunc
)

var rootCmd = &cobra.Command{
	Use:   "sercha-context",
	Short: "Context selection and search routing for LLM applications",
	Long: `sercha-context stores knowledge fragments, routes queries to code or
web search providers, and ranks the most relevant contexts for a query.

Queries are classified as code/technical or general, dispatched to the
preferred provider with retries and fallback, cached, and combined with
stored contexts into one ranked answer.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default ~/.sercha-context/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx available to commands.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap registers the function used to build services lazily
// before a command runs.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices injects service instances directly.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	contextService = s.Contexts.Service
	contextLoader = s.Contexts.Loader
	searchRouter = s.Router
	contextSelector = s.Selector
	queryService = s.Query
	settingsService = s.Settings
}

func servicesConfigured() bool {
	return contextService != nil || queryService != nil || settingsService != nil
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if servicesConfigured() || bootstrap == nil {
		return nil
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := bootstrap(ctx, cfgFile)
	if err != nil {
		return fmt.Errorf("initialise services: %w", err)
	}
	SetServices(s)
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

var (
	errContextServiceMissing  = errors.New("context service not configured")
	errContextLoaderMissing   = errors.New("context loader not configured")
	errSearchRouterMissing    = errors.New("search router not configured")
	errSelectorMissing        = errors.New("context selector not configured")
	errQueryServiceMissing    = errors.New("query service not configured")
	errSettingsServiceMissing = errors.New("settings service not configured")
)
