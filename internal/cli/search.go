package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/services"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/ui"
)

var searchCmd = &cobra.Command{
	Use:   "search [terms]",
	Short: "Search products once and print the results",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().String("category", "", "Category filter")
	searchCmd.Flags().Float64("min-price", 0, "Lowest price in USD")
	searchCmd.Flags().Float64("max-price", 0, "Highest price in USD")
	searchCmd.Flags().Int("page", 1, "Page number")
	searchCmd.Flags().Int("limit", models.DefaultPageSize, "Products per page")
	searchCmd.Flags().String("format", "table", "Output format: json, table")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	q, err := searchQueryFromFlags(cmd, strings.Join(args, " "))
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")

	spin := ui.NewSpinnerTo(cmd.ErrOrStderr())
	spin.Start(fmt.Sprintf("Searching '%s'...", q.Term))
	d, err := a.Resolver.Search(cmd.Context(), q)
	spin.Stop()
	if err != nil {
		return fmt.Errorf("search failed: %s", services.UserMessage(err))
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return printJSON(out, struct {
			models.SearchResultPage
			Source services.Source `json:"source"`
		}{d.Page, d.Source})
	default:
		if len(d.Page.Results) == 0 {
			fmt.Fprintf(out, "No products found for '%s'.\n", q.Term)
			return nil
		}
		printProducts(out, d.Page.Results, (d.Query.Page-1)*d.Query.Limit)
		fmt.Fprintln(out)
		fmt.Fprintln(out, footer(d.Source, len(d.Page.Results), d.Page.Total, d.Page.HasMore))
	}
	return nil
}

func searchQueryFromFlags(cmd *cobra.Command, term string) (models.SearchQuery, error) {
	category, _ := cmd.Flags().GetString("category")
	page, _ := cmd.Flags().GetInt("page")
	limit, _ := cmd.Flags().GetInt("limit")

	q := models.SearchQuery{Term: term, Category: category, Page: page, Limit: limit}
	if cmd.Flags().Changed("min-price") {
		v, _ := cmd.Flags().GetFloat64("min-price")
		q.MinPrice = &v
	}
	if cmd.Flags().Changed("max-price") {
		v, _ := cmd.Flags().GetFloat64("max-price")
		q.MaxPrice = &v
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return q, fmt.Errorf("min-price %.2f is above max-price %.2f", *q.MinPrice, *q.MaxPrice)
	}
	return q.Normalized(), nil
}

func footer(source services.Source, shown, total int, hasMore bool) string {
	s := fmt.Sprintf("Showing %d of %d", shown, max(total, shown))
	switch source {
	case services.SourcePopular:
		s += " popular products"
	case services.SourcePlaceholder:
		s += " (similar results while searching)"
	case services.SourceCache:
		s += " (cached)"
	}
	if hasMore {
		s += ". More available."
	}
	return s
}
