// Package api is the search gateway: it runs the cache-first resolver and
// the add-to-list mutation server side for web clients.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/errreport"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/services"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/pkg/cache"
)

const (
	serviceName    = "myneedfully-search"
	serviceVersion = "1.0.0"

	maxAdders = 1024
	adderTTL  = 30 * time.Minute
)

type Deps struct {
	Resolver *services.Resolver
	Lists    *services.ListService
	Cache    cache.Cache
	Reporter errreport.Reporter
	// NewAdder builds the adder for one caller. Each caller gets its own
	// pending slot.
	NewAdder func() *services.Adder
}

// Controller handles the gateway endpoints.
type Controller struct {
	resolver *services.Resolver
	lists    *services.ListService
	cache    cache.Cache
	reporter errreport.Reporter
	newAdder func() *services.Adder

	mu     sync.Mutex
	adders *expirable.LRU[string, *services.Adder]
}

func NewController(d Deps) *Controller {
	c := &Controller{
		resolver: d.Resolver,
		lists:    d.Lists,
		cache:    d.Cache,
		reporter: d.Reporter,
		newAdder: d.NewAdder,
		adders:   expirable.NewLRU[string, *services.Adder](maxAdders, nil, adderTTL),
	}
	if c.reporter == nil {
		c.reporter = errreport.Default(nil)
	}
	return c
}

// Register mounts the controller's routes on r.
func (c *Controller) Register(r gin.IRouter) {
	r.GET("/health", c.Health)
	r.GET("/api/info", c.Info)

	r.GET("/cache/stats", c.CacheStats)
	r.GET("/cache/debug", c.CacheDebug)
	r.DELETE("/cache/flush", c.CacheFlush)

	r.GET("/search", c.Search)
	r.GET("/popular", c.Popular)

	r.GET("/lists", c.Lists)
	r.GET("/lists/:id", c.Wishlist)
	r.POST("/lists/items", c.AddItem)
}

func (c *Controller) Health(ctx *gin.Context) {
	health := gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	}

	switch {
	case c.cache == nil:
		health["cache"] = "unavailable"
	case c.cache.Backend() == "redis":
		health["cache"] = "redis connected"
		if p, ok := c.cache.(interface{ Ping(context.Context) error }); ok {
			if err := p.Ping(ctx.Request.Context()); err != nil {
				health["cache"] = "redis unavailable"
			}
		}
	default:
		health["cache"] = c.cache.Backend()
	}

	ctx.JSON(http.StatusOK, health)
}

func (c *Controller) Info(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"name":        "MyNeedfully Search API",
		"version":     serviceVersion,
		"description": "Product search and add-to-needs-list for MyNeedfully",
		"features":    []string{"Cache-first search", "Popular products", "Pagination", "Price filtering", "Add to needs list"},
		"endpoints": map[string]string{
			"GET /search":       "Search products (query, category, min_price, max_price, page, limit)",
			"GET /popular":      "Popular products by category",
			"GET /lists":        "The caller's needs lists",
			"GET /lists/:id":    "One needs list",
			"POST /lists/items": "Add a product to a needs list",
			"GET /health":       "Health check",
			"GET /cache/stats":  "Cache statistics",
			"GET /api/info":     "API information",
		},
		"supported_retailers": models.Retailers,
		"list_categories":     services.ListCategories,
	})
}

func (c *Controller) CacheStats(ctx *gin.Context) {
	if c.cache == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "cache not available"})
		return
	}
	ctx.JSON(http.StatusOK, c.cache.Stats())
}

func (c *Controller) CacheDebug(ctx *gin.Context) {
	lister, ok := c.cache.(interface {
		Keys(context.Context) ([]string, error)
	})
	if !ok {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "cache not available"})
		return
	}

	keys, err := lister.Keys(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to list cache keys",
			"details": err.Error(),
		})
		return
	}

	ttlOf, hasTTL := c.cache.(interface {
		KeyTTL(context.Context, string) time.Duration
	})
	keyDetails := make([]gin.H, 0, len(keys))
	for _, key := range keys {
		detail := gin.H{"key": key}
		if hasTTL {
			ttl := ttlOf.KeyTTL(ctx.Request.Context(), key)
			detail["ttl_seconds"] = int(ttl.Seconds())
			detail["expires_in"] = ttl.String()
		}
		keyDetails = append(keyDetails, detail)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"total_keys":  len(keys),
		"cache_keys":  keyDetails,
		"cache_stats": c.cache.Stats(),
		"debug_info": gin.H{
			"backend":   c.cache.Backend(),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (c *Controller) CacheFlush(ctx *gin.Context) {
	if c.cache == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "cache not available"})
		return
	}

	if err := c.cache.Flush(ctx.Request.Context()); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to flush cache",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":   "cache flushed successfully",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

type searchResponse struct {
	models.SearchResultPage
	Source services.Source    `json:"source"`
	Query  models.SearchQuery `json:"query"`
}

func (c *Controller) Search(ctx *gin.Context) {
	q := parseSearchQuery(ctx)

	d, err := c.resolver.Search(ctx.Request.Context(), q)
	if err != nil {
		c.fail(ctx, "search", err)
		return
	}

	page := d.Page
	if page.Results == nil {
		page.Results = []models.ProductResult{}
	}
	ctx.JSON(http.StatusOK, searchResponse{SearchResultPage: page, Source: d.Source, Query: d.Query})
}

func (c *Controller) Popular(ctx *gin.Context) {
	category := ctx.Query("category")
	products, source := c.resolver.Popular(ctx.Request.Context(), category)
	if products == nil {
		products = []models.ProductResult{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":     products,
		"total":    len(products),
		"source":   source,
		"category": strings.ToLower(strings.TrimSpace(category)),
	})
}

func (c *Controller) Lists(ctx *gin.Context) {
	lists, err := c.lists.Lists(ctx.Request.Context(), bearerToken(ctx))
	if err != nil {
		c.fail(ctx, "lists", err)
		return
	}
	if lists == nil {
		lists = []models.TargetList{}
	}
	ctx.JSON(http.StatusOK, gin.H{"data": lists})
}

func (c *Controller) Wishlist(ctx *gin.Context) {
	token := bearerToken(ctx)
	if token == "" {
		c.fail(ctx, "lists", services.ErrAuthRequired)
		return
	}

	n, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || n <= 0 {
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_list_id",
			Code:    http.StatusBadRequest,
			Message: "Needs list id must be a positive number.",
		})
		return
	}

	list, err := c.lists.Wishlist(ctx.Request.Context(), token, models.ListID(n))
	if err != nil {
		c.fail(ctx, "lists", err)
		return
	}
	ctx.JSON(http.StatusOK, list)
}

type addItemBody struct {
	Product    models.ProductResult `json:"product"`
	WishlistID models.ListID        `json:"wishlistId"`
	Category   string               `json:"category"`
}

func (c *Controller) AddItem(ctx *gin.Context) {
	var body addItemBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Code:    http.StatusBadRequest,
			Message: "Request body must be a product to add.",
			Details: err.Error(),
		})
		return
	}
	if strings.TrimSpace(body.Product.Title) == "" {
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Code:    http.StatusBadRequest,
			Message: "Product title is required.",
		})
		return
	}

	token := bearerToken(ctx)
	if token == "" {
		c.fail(ctx, "add", services.ErrAuthRequired)
		return
	}

	out, err := c.adderFor(token).Add(ctx.Request.Context(), services.AddRequest{
		Token:    token,
		Product:  body.Product,
		ListID:   body.WishlistID,
		Category: body.Category,
	})
	if err != nil {
		c.fail(ctx, "add", err)
		return
	}

	status := http.StatusCreated
	if out.Status == services.AddStatusSelectionNeeded {
		status = http.StatusOK
	}
	ctx.JSON(status, out)
}

// adderFor returns the caller's adder so concurrent adds by one caller
// share a pending slot.
func (c *Controller) adderFor(token string) *services.Adder {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.adders.Get(token); ok {
		return a
	}
	a := c.newAdder()
	c.adders.Add(token, a)
	return a
}

// fail answers with the error's status and user-facing message. Only
// unexpected failures are reported.
func (c *Controller) fail(ctx *gin.Context, scope string, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		c.reporter.Report(ctx.Request.Context(), scope, err)
	}
	ctx.JSON(status, models.ErrorResponse{
		Error:   code,
		Code:    status,
		Message: services.UserMessage(err),
	})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrAuthRequired):
		return http.StatusUnauthorized, "auth_required"
	case errors.Is(err, services.ErrNoTargetList):
		return http.StatusUnprocessableEntity, "no_target_list"
	case errors.Is(err, services.ErrAddInFlight):
		return http.StatusConflict, "add_in_flight"
	case errors.Is(err, services.ErrEmptyQuery):
		return http.StatusBadRequest, "invalid_query"
	default:
		return http.StatusBadGateway, "fetch_failed"
	}
}

func bearerToken(ctx *gin.Context) string {
	auth := strings.TrimSpace(ctx.GetHeader("Authorization"))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// parseSearchQuery reads the search tuple; malformed numbers are ignored.
func parseSearchQuery(ctx *gin.Context) models.SearchQuery {
	term := ctx.Query("query")
	if term == "" {
		term = ctx.Query("q")
	}

	q := models.SearchQuery{
		Term:     term,
		Category: ctx.Query("category"),
	}

	if p := ctx.Query("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			q.Page = pageNum
		}
	}
	if l := ctx.Query("limit"); l != "" {
		if limitNum, err := strconv.Atoi(l); err == nil && limitNum > 0 {
			q.Limit = limitNum
		}
	}
	if v := ctx.Query("min_price"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			q.MinPrice = &price
		}
	}
	if v := ctx.Query("max_price"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			q.MaxPrice = &price
		}
	}

	return q.Normalized()
}
