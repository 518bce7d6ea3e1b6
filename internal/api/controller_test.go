package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/errreport"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/services"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/upstream"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/pkg/cache"
)

type stubSearcher struct {
	mu    sync.Mutex
	calls int
	total int
	err   error
}

func (s *stubSearcher) Search(_ context.Context, q models.SearchQuery) (models.SearchResultPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return models.SearchResultPage{}, s.err
	}

	q = q.Normalized()
	offset := (q.Page - 1) * q.Limit
	var results []models.ProductResult
	for i := offset; i < s.total && i < offset+q.Limit; i++ {
		price := 12.5
		id := fmt.Sprintf("%s-%d", q.Term, i)
		results = append(results, models.ProductResult{ID: id, Key: id, Title: "Item " + id, Price: &price, Retailer: models.RetailerAmazon})
	}
	return models.SearchResultPage{Results: results, Total: s.total, HasMore: offset+len(results) < s.total, Page: q.Page}, nil
}

func (s *stubSearcher) Popular(context.Context, string) ([]models.ProductResult, error) {
	return nil, nil
}

func (s *stubSearcher) searchCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubStore struct {
	mu      sync.Mutex
	lists   []models.TargetList
	err     error
	tokens  []string
	adds    []models.ListID
	gate    chan struct{}
	entered chan struct{}
}

func (s *stubStore) Lists(_ context.Context, token string) ([]models.TargetList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, token)
	return s.lists, s.err
}

func (s *stubStore) Wishlist(_ context.Context, _ string, id models.ListID) (*models.Wishlist, error) {
	return &models.Wishlist{TargetList: models.TargetList{ID: id, Title: "Ours"}}, nil
}

func (s *stubStore) AddItem(_ context.Context, _ string, id models.ListID, item models.ListItemRequest) (*models.ListItem, error) {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.adds = append(s.adds, id)
	return &models.ListItem{ID: 1, WishlistID: id, Title: item.Title, Quantity: item.Quantity, Priority: item.Priority}, nil
}

type testGateway struct {
	router   *gin.Engine
	searcher *stubSearcher
	store    *stubStore
	cache    cache.Cache
}

func newTestGateway(t *testing.T, limiter *RateLimiter) *testGateway {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reporter := errreport.Default(log.New(io.Discard, "", 0))
	c := cache.NewMemoryCache(64, time.Minute)
	searcher := &stubSearcher{total: 25}
	store := &stubStore{}

	ctrl := NewController(Deps{
		Resolver: services.NewResolver(searcher, c, services.ResolverOptions{Reporter: reporter}),
		Lists:    services.NewListService(store, c, reporter),
		Cache:    c,
		Reporter: reporter,
		NewAdder: func() *services.Adder { return services.NewAdder(store, c, reporter) },
	})

	return &testGateway{
		router:   NewRouter(ctrl, limiter, reporter),
		searcher: searcher,
		store:    store,
		cache:    c,
	}
}

func (g *testGateway) do(method, target string, body any, token string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	g.router.ServeHTTP(w, req)
	return w
}

type searchBody struct {
	Data    []models.ProductResult `json:"data"`
	Total   int                    `json:"total"`
	HasMore bool                   `json:"hasMore"`
	Page    int                    `json:"page"`
	Source  string                 `json:"source"`
	Query   models.SearchQuery     `json:"query"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestSearch_LiveThenCached(t *testing.T) {
	g := newTestGateway(t, nil)

	w := g.do(http.MethodGet, "/search?query=diapers&page=2", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[searchBody](t, w)
	assert.Equal(t, "live", body.Source)
	assert.Len(t, body.Data, 10)
	assert.Equal(t, "diapers-10", body.Data[0].ID)
	assert.Equal(t, 25, body.Total)
	assert.True(t, body.HasMore)
	assert.Equal(t, 2, body.Page)

	w = g.do(http.MethodGet, "/search?query=diapers&page=2", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cache", decode[searchBody](t, w).Source)
	assert.Equal(t, 1, g.searcher.searchCalls())
}

func TestSearch_PriceRangeIsSanitized(t *testing.T) {
	g := newTestGateway(t, nil)

	w := g.do(http.MethodGet, "/search?query=diapers&min_price=-5&max_price=-10", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	q := decode[searchBody](t, w).Query
	assert.Nil(t, q.MinPrice)
	assert.Nil(t, q.MaxPrice)

	w = g.do(http.MethodGet, "/search?query=diapers&min_price=40&max_price=10", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	q = decode[searchBody](t, w).Query
	require.NotNil(t, q.MinPrice)
	require.NotNil(t, q.MaxPrice)
	assert.Equal(t, 10.0, *q.MinPrice)
	assert.Equal(t, 40.0, *q.MaxPrice)

	w = g.do(http.MethodGet, "/search?query=diapers&min_price=10&max_price=40", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cache", decode[searchBody](t, w).Source)
}

func TestSearch_ShortQueryShowsPopular(t *testing.T) {
	g := newTestGateway(t, nil)

	w := g.do(http.MethodGet, "/search?query=di", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[searchBody](t, w)
	assert.Equal(t, "popular", body.Source)
	assert.NotEmpty(t, body.Data)
	assert.Zero(t, g.searcher.searchCalls())
}

func TestSearch_FailureIsBadGateway(t *testing.T) {
	g := newTestGateway(t, nil)
	g.searcher.err = &upstream.FetchError{Op: "search", Status: 500, Message: "Search index is rebuilding"}

	w := g.do(http.MethodGet, "/search?query=wipes", nil, "")
	require.Equal(t, http.StatusBadGateway, w.Code)
	body := decode[models.ErrorResponse](t, w)
	assert.Equal(t, "fetch_failed", body.Error)
	assert.Equal(t, "Search index is rebuilding", body.Message)
}

func TestPopular_FallsBackToSeeds(t *testing.T) {
	g := newTestGateway(t, nil)

	w := g.do(http.MethodGet, "/popular?category=baby", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[searchBody](t, w)
	assert.Equal(t, "popular", body.Source)
	require.NotEmpty(t, body.Data)
	for _, p := range body.Data {
		assert.Equal(t, "baby", p.Category)
	}
}

func TestLists_ForwardsToken(t *testing.T) {
	g := newTestGateway(t, nil)
	g.store.lists = []models.TargetList{{ID: 7, Title: "Fire recovery"}}

	w := g.do(http.MethodGet, "/lists", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = g.do(http.MethodGet, "/lists", nil, "tok-1")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Data []models.TargetList `json:"data"`
	}](t, w)
	assert.Equal(t, g.store.lists, body.Data)
	assert.Equal(t, []string{"tok-1"}, g.store.tokens)
}

func TestWishlist_RejectsBadID(t *testing.T) {
	g := newTestGateway(t, nil)

	w := g.do(http.MethodGet, "/lists/abc", nil, "tok")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = g.do(http.MethodGet, "/lists/12", nil, "tok")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ListID(12), decode[models.Wishlist](t, w).ID)
}

func TestAddItem_Statuses(t *testing.T) {
	item := map[string]any{"product": map[string]any{"key": "B1", "title": "Crib sheets", "price": 24.99}}

	tests := []struct {
		name   string
		token  string
		lists  []models.TargetList
		body   map[string]any
		status int
		code   string
	}{
		{name: "unauthenticated", body: item, status: http.StatusUnauthorized, code: "auth_required"},
		{name: "no lists", token: "tok", body: item, status: http.StatusUnprocessableEntity, code: "no_target_list"},
		{name: "sole list", token: "tok", lists: []models.TargetList{{ID: 3}}, body: item, status: http.StatusCreated},
		{name: "selection", token: "tok", lists: []models.TargetList{{ID: 3}, {ID: 4}}, body: item, status: http.StatusOK},
		{
			name:   "explicit list",
			token:  "tok",
			body:   map[string]any{"product": item["product"], "wishlistId": "9"},
			status: http.StatusCreated,
		},
		{name: "missing title", token: "tok", body: map[string]any{"product": map[string]any{}}, status: http.StatusBadRequest, code: "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(t, nil)
			g.store.lists = tt.lists

			w := g.do(http.MethodPost, "/lists/items", tt.body, tt.token)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, decode[models.ErrorResponse](t, w).Error)
			}
		})
	}
}

func TestAddItem_SelectionCarriesChoices(t *testing.T) {
	g := newTestGateway(t, nil)
	g.store.lists = []models.TargetList{{ID: 3, Title: "A"}, {ID: 4, Title: "B"}}

	w := g.do(http.MethodPost, "/lists/items", map[string]any{"product": map[string]any{"title": "Towels"}}, "tok")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode[services.AddOutcome](t, w)
	assert.Equal(t, services.AddStatusSelectionNeeded, out.Status)
	assert.Equal(t, g.store.lists, out.Choices)
	assert.Empty(t, g.store.adds)
}

func TestAddItem_ConcurrentAddIsConflict(t *testing.T) {
	g := newTestGateway(t, nil)
	g.store.gate = make(chan struct{})
	g.store.entered = make(chan struct{}, 2)

	body := map[string]any{"product": map[string]any{"title": "Towels"}, "wishlistId": 5}
	first := make(chan *httptest.ResponseRecorder, 1)
	go func() { first <- g.do(http.MethodPost, "/lists/items", body, "tok") }()
	<-g.store.entered

	w := g.do(http.MethodPost, "/lists/items", body, "tok")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "add_in_flight", decode[models.ErrorResponse](t, w).Error)

	// Another caller has its own slot.
	other := make(chan *httptest.ResponseRecorder, 1)
	go func() { other <- g.do(http.MethodPost, "/lists/items", body, "other") }()
	<-g.store.entered

	close(g.store.gate)
	assert.Equal(t, http.StatusCreated, (<-first).Code)
	assert.Equal(t, http.StatusCreated, (<-other).Code)
}

func TestAddItem_UpstreamFailure(t *testing.T) {
	g := newTestGateway(t, nil)
	g.store.err = &upstream.FetchError{Op: "add item", Status: 500}

	w := g.do(http.MethodPost, "/lists/items", map[string]any{"product": map[string]any{"title": "Towels"}, "wishlistId": 5}, "tok")
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Failed to add item to your needs list. Please try again.", decode[models.ErrorResponse](t, w).Message)
}

func TestCacheEndpoints(t *testing.T) {
	g := newTestGateway(t, nil)
	g.do(http.MethodGet, "/search?query=blanket", nil, "")

	w := g.do(http.MethodGet, "/cache/stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[cache.StatsSnapshot](t, w)
	assert.Equal(t, "memory", stats.Backend)
	assert.Equal(t, 1, stats.Entries)

	w = g.do(http.MethodGet, "/cache/debug", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["total_keys"])

	w = g.do(http.MethodDelete, "/cache/flush", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, g.cache.Stats().Entries)
}

func TestHealthAndInfo(t *testing.T) {
	g := newTestGateway(t, nil)

	w := g.do(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[map[string]any](t, w)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "memory", health["cache"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = g.do(http.MethodGet, "/api/info", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	info := decode[map[string]any](t, w)
	assert.Contains(t, info["list_categories"], "personal_care")
}
