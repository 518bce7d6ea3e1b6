package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/normalize"
)

const titleWidth = 72

// printProducts prints products as numbered cards starting at start+1.
func printProducts(w io.Writer, products []models.ProductResult, start int) {
	for i, p := range products {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, " %d. %s\n", start+i+1, truncate(p.Title, titleWidth))

		priceLine := "    Price: " + normalize.DisplayPrice(p)
		if p.Retailer != "" {
			priceLine += "  |  " + retailerName(p.Retailer)
		}
		if p.Rating != nil {
			priceLine += fmt.Sprintf("  |  %.1f★", *p.Rating)
			if p.RatingCount != nil {
				priceLine += fmt.Sprintf(" (%d)", *p.RatingCount)
			}
		}
		fmt.Fprintln(w, priceLine)

		if p.Category != "" {
			fmt.Fprintf(w, "    Category: %s\n", p.Category)
		}
		if p.ProductURL != "" {
			fmt.Fprintf(w, "    %s\n", p.ProductURL)
		}
		fmt.Fprintf(w, "    Image: %s\n", cleanURL(normalize.DisplayImage(p)))
	}
}

func printLists(w io.Writer, lists []models.TargetList) {
	if len(lists) == 0 {
		fmt.Fprintln(w, "No needs lists yet.")
		return
	}
	for i, l := range lists {
		title := l.Title
		if title == "" {
			title = "Untitled list"
		}
		fmt.Fprintf(w, " %d. %s  [id %s, %d items]\n", i+1, title, l.ID, l.ItemCount)
		if l.Description != "" {
			fmt.Fprintf(w, "    %s\n", truncate(l.Description, titleWidth))
		}
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func retailerName(r models.Retailer) string {
	switch r {
	case models.RetailerAmazon:
		return "Amazon"
	case models.RetailerWalmart:
		return "Walmart"
	case models.RetailerTarget:
		return "Target"
	default:
		return string(r)
	}
}

// cleanURL drops the query string of an image URL.
func cleanURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	u.RawQuery = ""
	return u.String()
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
