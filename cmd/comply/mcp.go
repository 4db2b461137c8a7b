package main

import (
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/comply/internal/compliance"
	"github.com/jackzampolin/comply/version"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the compliance check as an MCP tool over stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout exposing one tool,
check_compliance(url). Logs go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(os.Stderr)
		if err != nil {
			return err
		}
		a, err := loadApp(logger)
		if err != nil {
			return err
		}
		checker, err := a.checker(nil)
		if err != nil {
			return err
		}
		a.watch()

		srv := mcp.NewServer(&mcp.Implementation{Name: "comply", Version: version.GitRelease}, nil)
		checker.RegisterMCP(srv)
		logger.Info("mcp server ready", "tool", compliance.ToolName, "providers", a.registry.List())
		return srv.Run(cmd.Context(), &mcp.StdioTransport{})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
