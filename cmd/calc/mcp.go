package main

import (
	"github.com/spf13/cobra"

	"github.com/charlie0129/calc/pkg/mcpserver"
)

func NewMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "mcp",
		Short:   "Serve the calculator to MCP clients on stdio",
		GroupID: gAdvanced,
		Long: `Serve the calculator to MCP clients on stdio.

The tools press, clear and display act on the running daemon, so an assistant
and the browser widget share one display.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return mcpserver.New(apiClient).ServeStdio()
		},
	}
}
