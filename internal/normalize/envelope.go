package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
)

type pagination struct {
	TotalResults *int  `json:"total_results"`
	Total        *int  `json:"total"`
	CurrentPage  *int  `json:"current_page"`
	TotalPages   *int  `json:"total_pages"`
	HasNextPage  *bool `json:"has_next_page"`
	HasMore      *bool `json:"has_more"`
}

// envelope covers both {data, total, hasMore} and
// {search_results | products, pagination}.
type envelope struct {
	Data          []RawProduct `json:"data"`
	SearchResults []RawProduct `json:"search_results"`
	Products      []RawProduct `json:"products"`
	Total         *int         `json:"total"`
	HasMore       *bool        `json:"hasMore"`
	Pagination    *pagination  `json:"pagination"`
	Retailer      string       `json:"retailer"`
}

// DecodeSearchPage decodes a search response body for query q. Only a body
// that is not JSON at all is an error; missing fields are defaulted.
func (n *Normalizer) DecodeSearchPage(body []byte, q models.SearchQuery, fallback models.Retailer) (models.SearchResultPage, error) {
	q = q.Normalized()

	env, err := decodeEnvelope(body)
	if err != nil {
		return models.SearchResultPage{}, err
	}

	raws := env.items()
	if r, ok := models.ParseRetailer(env.Retailer); ok && fallback == "" {
		fallback = r
	}

	offset := (q.Page - 1) * q.Limit
	page := models.SearchResultPage{
		Results: n.Products(raws, offset, fallback),
		Page:    q.Page,
	}
	page.Total = env.total(offset + len(raws))
	page.HasMore = env.hasMore(q, len(raws), page.Total)

	return page, nil
}

// DecodeProducts decodes a bare product list or any search envelope.
func (n *Normalizer) DecodeProducts(body []byte, fallback models.Retailer) ([]models.ProductResult, error) {
	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}
	return n.Products(env.items(), 0, fallback), nil
}

func decodeEnvelope(body []byte) (envelope, error) {
	var env envelope

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &env.Data); err != nil {
			return env, fmt.Errorf("decode product list: %w", err)
		}
		return env, nil
	}

	if err := json.Unmarshal(body, &env); err != nil {
		return env, fmt.Errorf("decode search response: %w", err)
	}
	return env, nil
}

func (e envelope) items() []RawProduct {
	switch {
	case e.Data != nil:
		return e.Data
	case e.SearchResults != nil:
		return e.SearchResults
	default:
		return e.Products
	}
}

func (e envelope) total(seen int) int {
	switch {
	case e.Total != nil:
		return *e.Total
	case e.Pagination != nil && e.Pagination.TotalResults != nil:
		return *e.Pagination.TotalResults
	case e.Pagination != nil && e.Pagination.Total != nil:
		return *e.Pagination.Total
	}
	return seen
}

func (e envelope) hasMore(q models.SearchQuery, got, total int) bool {
	if e.HasMore != nil {
		return *e.HasMore
	}
	if p := e.Pagination; p != nil {
		switch {
		case p.HasNextPage != nil:
			return *p.HasNextPage
		case p.HasMore != nil:
			return *p.HasMore
		case p.CurrentPage != nil && p.TotalPages != nil:
			return *p.CurrentPage < *p.TotalPages
		}
	}
	if e.Total != nil || (e.Pagination != nil && (e.Pagination.TotalResults != nil || e.Pagination.Total != nil)) {
		return total > q.Page*q.Limit
	}
	return got >= q.Limit
}
