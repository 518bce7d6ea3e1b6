package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/services"
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Show your needs lists",
	Args:  cobra.NoArgs,
	RunE:  runLists,
}

func init() {
	listsCmd.Flags().String("format", "table", "Output format: json, table")
	rootCmd.AddCommand(listsCmd)
}

func runLists(cmd *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	lists, err := a.Lists.Lists(cmd.Context(), cfg.Token)
	if err != nil {
		return fmt.Errorf("lists failed: %s", services.UserMessage(err))
	}

	format, _ := cmd.Flags().GetString("format")
	if format == "json" {
		return printJSON(cmd.OutOrStdout(), lists)
	}
	printLists(cmd.OutOrStdout(), lists)
	return nil
}
