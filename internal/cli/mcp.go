package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP stdio server",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting MyNeedfully MCP server on stdio...")

	if err := mcpserver.Serve(&mcpserver.Tools{
		Resolver: a.Resolver,
		Lists:    a.Lists,
		Adder:    a.NewAdder(),
		Token:    cfg.Token,
	}); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
