// Package upstream talks to the MyNeedfully REST API: product search,
// popular products and the signed-in user's needs lists.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/normalize"
)

// Searcher finds products.
type Searcher interface {
	Search(ctx context.Context, q models.SearchQuery) (models.SearchResultPage, error)
	Popular(ctx context.Context, category string) ([]models.ProductResult, error)
}

// ListStore reads and appends to the caller's needs lists.
type ListStore interface {
	Lists(ctx context.Context, token string) ([]models.TargetList, error)
	Wishlist(ctx context.Context, token string, id models.ListID) (*models.Wishlist, error)
	AddItem(ctx context.Context, token string, id models.ListID, item models.ListItemRequest) (*models.ListItem, error)
}

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	// Limiter throttles outgoing requests; nil means unthrottled.
	Limiter    *rate.Limiter
	Normalizer *normalize.Normalizer
	UserAgent  string
}

type Client struct {
	baseURL    *url.URL
	http       *http.Client
	limiter    *rate.Limiter
	normalizer *normalize.Normalizer
	userAgent  string
}

func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid API base url %q", opts.BaseURL)
	}

	c := &Client{
		baseURL:    base,
		http:       opts.HTTPClient,
		limiter:    opts.Limiter,
		normalizer: opts.Normalizer,
		userAgent:  opts.UserAgent,
	}
	if c.http == nil {
		c.http = NewHTTPClient(30 * time.Second)
	}
	if c.normalizer == nil {
		c.normalizer = normalize.New(normalize.DefaultAffiliateTag)
	}
	if c.userAgent == "" {
		c.userAgent = "myneedfully-search/1.0"
	}
	return c, nil
}

// SearchURL builds the search request URL for q.
func SearchURL(base *url.URL, q models.SearchQuery) string {
	q = q.Normalized()

	params := url.Values{}
	params.Set("query", q.Term)
	if q.Category != models.CategoryAll {
		params.Set("category", q.Category)
	}
	if q.MinPrice != nil {
		params.Set("min_price", strconv.FormatFloat(*q.MinPrice, 'f', -1, 64))
	}
	if q.MaxPrice != nil {
		params.Set("max_price", strconv.FormatFloat(*q.MaxPrice, 'f', -1, 64))
	}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("limit", strconv.Itoa(q.Limit))

	u := *base
	u.Path = strings.TrimRight(u.Path, "/") + "/api/search"
	u.RawQuery = params.Encode()
	return u.String()
}

func (c *Client) Search(ctx context.Context, q models.SearchQuery) (models.SearchResultPage, error) {
	body, err := c.do(ctx, "search", http.MethodGet, SearchURL(c.baseURL, q), "", nil)
	if err != nil {
		return models.SearchResultPage{}, err
	}

	page, err := c.normalizer.DecodeSearchPage(body, q, "")
	if err != nil {
		return models.SearchResultPage{}, &FetchError{Op: "search", Err: err}
	}
	log.Printf("Search %q page %d: %d results (total %d, more %t)", q.Term, page.Page, len(page.Results), page.Total, page.HasMore)
	return page, nil
}

func (c *Client) Popular(ctx context.Context, category string) ([]models.ProductResult, error) {
	u := c.endpoint("/api/products/popular")
	if category != "" && category != models.CategoryAll {
		u += "?" + url.Values{"category": {category}}.Encode()
	}

	body, err := c.do(ctx, "popular", http.MethodGet, u, "", nil)
	if err != nil {
		return nil, err
	}

	products, err := c.normalizer.DecodeProducts(body, "")
	if err != nil {
		return nil, &FetchError{Op: "popular", Err: err}
	}
	return products, nil
}

func (c *Client) Lists(ctx context.Context, token string) ([]models.TargetList, error) {
	body, err := c.do(ctx, "lists", http.MethodGet, c.endpoint("/api/user/wishlists"), token, nil)
	if err != nil {
		return nil, err
	}

	lists, err := decodeLists(body)
	if err != nil {
		return nil, &FetchError{Op: "lists", Err: err}
	}
	return lists, nil
}

func (c *Client) Wishlist(ctx context.Context, token string, id models.ListID) (*models.Wishlist, error) {
	body, err := c.do(ctx, "wishlist", http.MethodGet, c.endpoint("/api/wishlists/"+id.String()), token, nil)
	if err != nil {
		return nil, err
	}

	var list models.Wishlist
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, &FetchError{Op: "wishlist", Err: fmt.Errorf("decode wishlist: %w", err)}
	}
	return &list, nil
}

func (c *Client) AddItem(ctx context.Context, token string, id models.ListID, item models.ListItemRequest) (*models.ListItem, error) {
	payload, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode list item: %w", err)
	}

	body, err := c.do(ctx, "add item", http.MethodPost, c.endpoint("/api/wishlists/"+id.String()+"/items"), token, payload)
	if err != nil {
		return nil, err
	}

	var created models.ListItem
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &created); err != nil {
			return nil, &FetchError{Op: "add item", Err: fmt.Errorf("decode created item: %w", err)}
		}
	}
	if created.WishlistID == 0 {
		created.WishlistID = id
	}
	return &created, nil
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

func (c *Client) do(ctx context.Context, op, method, target, token string, payload []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{Op: op, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
	if err != nil {
		return nil, &FetchError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, br")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := ReadBody(resp)
	if err != nil {
		return nil, &FetchError{Op: op, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Op: op, Status: resp.StatusCode, Message: messageFromBody(body)}
	}
	return body, nil
}

func decodeLists(body []byte) ([]models.TargetList, error) {
	body = bytes.TrimSpace(body)

	var lists []models.TargetList
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &lists); err != nil {
			return nil, fmt.Errorf("decode lists: %w", err)
		}
		return lists, nil
	}

	var wrapped struct {
		Data      []models.TargetList `json:"data"`
		Wishlists []models.TargetList `json:"wishlists"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode lists: %w", err)
	}
	if wrapped.Data != nil {
		return wrapped.Data, nil
	}
	return wrapped.Wishlists, nil
}
