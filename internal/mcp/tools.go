package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/services"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/pkg/utils"
)

func (t *Tools) register(s *server.MCPServer) {
	// search_products
	searchTool := mcp.NewTool("search_products",
		mcp.WithDescription("Search products that can be added to a MyNeedfully needs list"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search terms (at least 3 characters for a live search)"),
		),
		mcp.WithString("category",
			mcp.Description("Category filter (default: all)"),
		),
		mcp.WithNumber("min_price",
			mcp.Description("Lowest price in USD"),
		),
		mcp.WithNumber("max_price",
			mcp.Description("Highest price in USD"),
		),
		mcp.WithNumber("page",
			mcp.Description("Page number (default: 1)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Products per page (default: 10)"),
		),
	)
	s.AddTool(searchTool, t.handleSearchProducts)

	// popular_products
	popularTool := mcp.NewTool("popular_products",
		mcp.WithDescription("Get popular essentials, optionally for one category"),
		mcp.WithString("category",
			mcp.Description("Category such as baby, household, food or personal_care"),
		),
	)
	s.AddTool(popularTool, t.handlePopularProducts)

	// list_wishlists
	listsTool := mcp.NewTool("list_wishlists",
		mcp.WithDescription("List the signed-in user's needs lists"),
		mcp.WithString("token",
			mcp.Description("Session token (default: the configured token)"),
		),
	)
	s.AddTool(listsTool, t.handleListWishlists)

	// add_to_list
	addTool := mcp.NewTool("add_to_list",
		mcp.WithDescription("Add a product to a needs list. Without wishlist_id the user's only list is used; with several lists the choices are returned instead."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Product title"),
		),
		mcp.WithString("product_url",
			mcp.Description("Retailer product page URL"),
		),
		mcp.WithNumber("price",
			mcp.Description("Price in USD"),
		),
		mcp.WithString("retailer",
			mcp.Description("amazon, walmart or target"),
		),
		mcp.WithString("image_url",
			mcp.Description("Product image URL"),
		),
		mcp.WithString("category",
			mcp.Description("Product category, mapped to one of: "+strings.Join(services.ListCategories, ", ")),
		),
		mcp.WithNumber("wishlist_id",
			mcp.Description("Target needs list id"),
		),
		mcp.WithString("token",
			mcp.Description("Session token (default: the configured token)"),
		),
	)
	s.AddTool(addTool, t.handleAddToList)
}

func (t *Tools) handleSearchProducts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(request.GetString("query", ""))
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	q := models.SearchQuery{
		Term:     query,
		Category: request.GetString("category", ""),
		Page:     request.GetInt("page", 1),
		Limit:    request.GetInt("limit", models.DefaultPageSize),
		MinPrice: optionalFloat(request, "min_price"),
		MaxPrice: optionalFloat(request, "max_price"),
	}

	d, err := t.Resolver.Search(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search error: %s", services.UserMessage(err))), nil
	}

	return jsonResult(struct {
		models.SearchResultPage
		Source services.Source `json:"source"`
	}{d.Page, d.Source})
}

func (t *Tools) handlePopularProducts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	products, source := t.Resolver.Popular(ctx, request.GetString("category", ""))
	return jsonResult(map[string]any{
		"data":   products,
		"source": source,
	})
}

func (t *Tools) handleListWishlists(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lists, err := t.Lists.Lists(ctx, request.GetString("token", t.Token))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lists error: %s", services.UserMessage(err))), nil
	}
	return jsonResult(lists)
}

func (t *Tools) handleAddToList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := strings.TrimSpace(request.GetString("title", ""))
	if title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}

	p := models.ProductResult{
		Title:      title,
		ProductURL: request.GetString("product_url", ""),
		ImageURL:   request.GetString("image_url", ""),
		Category:   request.GetString("category", ""),
	}
	p.Key = p.ProductURL
	if r, ok := models.ParseRetailer(request.GetString("retailer", "")); ok {
		p.Retailer = r
	}
	if price := optionalFloat(request, "price"); price != nil {
		p.Price = price
		p.PriceDisplay = utils.FormatUSD(*price)
	}

	out, err := t.Adder.Add(ctx, services.AddRequest{
		Token:   request.GetString("token", t.Token),
		Product: p,
		ListID:  models.ListID(request.GetInt("wishlist_id", 0)),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("add error: %s", services.UserMessage(err))), nil
	}
	return jsonResult(out)
}

// optionalFloat returns nil when key is absent.
func optionalFloat(request mcp.CallToolRequest, key string) *float64 {
	if _, ok := request.GetArguments()[key]; !ok {
		return nil
	}
	v := request.GetFloat(key, 0)
	return &v
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
