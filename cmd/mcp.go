package cmd

import (
	"github.com/repomind/repomind/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the RepoMind MCP server",
	Long:  `Launch an MCP server on stdio that lets AI agents analyze, summarize and ask about repositories.`,
	// Logs go to stderr, so stdout stays reserved for the protocol.
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
