package models

import (
	"strings"
)

type Retailer string

const (
	RetailerAmazon  Retailer = "amazon"
	RetailerWalmart Retailer = "walmart"
	RetailerTarget  Retailer = "target"
)

// Retailers lists every retailer the search merges, in display order.
var Retailers = []Retailer{RetailerAmazon, RetailerWalmart, RetailerTarget}

// ParseRetailer maps free-form source labels ("Amazon US", "walmart.com")
// onto a Retailer. The second return is false for unknown sources.
func ParseRetailer(s string) (Retailer, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return "", false
	case strings.Contains(s, "amazon"), strings.Contains(s, "amzn"):
		return RetailerAmazon, true
	case strings.Contains(s, "walmart"):
		return RetailerWalmart, true
	case strings.Contains(s, "target"):
		return RetailerTarget, true
	}
	return "", false
}

const (
	PriceNotAvailable = "Price not available"
	CategoryAll       = "all"
	DefaultPageSize   = 10
	MaxPageSize       = 100
)

type ProductResult struct {
	ID           string   `json:"id,omitempty"`
	Key          string   `json:"key"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	PriceDisplay string   `json:"priceDisplay"`
	Rating       *float64 `json:"rating,omitempty"`
	RatingCount  *int     `json:"ratingCount,omitempty"`
	Retailer     Retailer `json:"retailer"`
	ProductURL   string   `json:"productUrl,omitempty"`
	Category     string   `json:"category,omitempty"`
}

type SearchResultPage struct {
	Results []ProductResult `json:"data"`
	Total   int             `json:"total"`
	HasMore bool            `json:"hasMore"`
	Page    int             `json:"page"`
}

type SearchQuery struct {
	Term     string   `json:"query"`
	Category string   `json:"category,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
	Page     int      `json:"page"`
	Limit    int      `json:"limit"`
}

// Normalized returns a copy with defaults applied: trimmed term, "all"
// category, page >= 1, a bounded page size and a non-negative, ordered
// price range.
func (q SearchQuery) Normalized() SearchQuery {
	q.Term = strings.TrimSpace(q.Term)
	q.Category = strings.ToLower(strings.TrimSpace(q.Category))
	if q.Category == "" {
		q.Category = CategoryAll
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	if q.MinPrice != nil && *q.MinPrice < 0 {
		q.MinPrice = nil
	}
	if q.MaxPrice != nil && *q.MaxPrice < 0 {
		q.MaxPrice = nil
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		q.MinPrice, q.MaxPrice = q.MaxPrice, q.MinPrice
	}
	return q
}

// WithPage returns a copy of q pointing at page.
func (q SearchQuery) WithPage(page int) SearchQuery {
	q.Page = page
	return q
}

// SameSearch reports whether q and o describe the same search regardless
// of which page is being looked at.
func (q SearchQuery) SameSearch(o SearchQuery) bool {
	a, b := q.Normalized(), o.Normalized()
	return strings.EqualFold(a.Term, b.Term) &&
		a.Category == b.Category &&
		a.Limit == b.Limit &&
		equalPrice(a.MinPrice, b.MinPrice) &&
		equalPrice(a.MaxPrice, b.MaxPrice)
}

func equalPrice(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
