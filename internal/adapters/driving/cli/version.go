package cli

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-context/internal/adapters/driving/mcp"
)

var versionJSON bool

type versionInfo struct {
	Version   string `json:"version"`
	MCPServer string `json:"mcp_server"`
	GoVersion string `json:"go"`
	Platform  string `json:"platform"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	// Printing the version needs no services.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := versionInfo{
			Version:   version,
			MCPServer: mcp.Version,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}
		if versionJSON {
			return printJSON(cmd, info)
		}
		cmd.Printf("sercha-context version %s\n", info.Version)
		cmd.Printf("MCP server %s, %s %s\n", info.MCPServer, info.GoVersion, info.Platform)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(versionCmd)
}
