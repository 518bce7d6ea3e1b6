package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/errreport"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/pkg/cache"
)

type fakeSearcher struct {
	mu      sync.Mutex
	calls   []models.SearchQuery
	total   int
	err     error
	blocked map[string]chan struct{}

	popular      []models.ProductResult
	popularErr   error
	popularCalls int
}

func newFakeSearcher(total int) *fakeSearcher {
	return &fakeSearcher{total: total, blocked: make(map[string]chan struct{})}
}

// block makes searches for term wait until the returned func is called.
func (f *fakeSearcher) block(term string) func() {
	ch := make(chan struct{})
	f.mu.Lock()
	f.blocked[term] = ch
	f.mu.Unlock()
	return func() { close(ch) }
}

func (f *fakeSearcher) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeSearcher) Search(ctx context.Context, q models.SearchQuery) (models.SearchResultPage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	gate := f.blocked[q.Term]
	err := f.err
	total := f.total
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return models.SearchResultPage{}, err
	}

	q = q.Normalized()
	offset := (q.Page - 1) * q.Limit
	var results []models.ProductResult
	for i := offset; i < total && i < offset+q.Limit; i++ {
		results = append(results, product(fmt.Sprintf("%s-%d", q.Term, i), q.Term))
	}
	return models.SearchResultPage{
		Results: results,
		Total:   total,
		HasMore: offset+len(results) < total,
		Page:    q.Page,
	}, nil
}

func (f *fakeSearcher) Popular(ctx context.Context, category string) ([]models.ProductResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.popularCalls++
	return f.popular, f.popularErr
}

func (f *fakeSearcher) searchCalls() []models.SearchQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.SearchQuery(nil), f.calls...)
}

type addCall struct {
	token string
	list  models.ListID
	item  models.ListItemRequest
}

type fakeStore struct {
	mu        sync.Mutex
	lists     []models.TargetList
	listsErr  error
	listCalls int
	adds      []addCall
	addErr    error
	gate      chan struct{}
	entered   chan struct{}
	wishlist  *models.Wishlist
	wlCalls   int
}

func (f *fakeStore) Lists(ctx context.Context, token string) ([]models.TargetList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.lists, f.listsErr
}

func (f *fakeStore) Wishlist(ctx context.Context, token string, id models.ListID) (*models.Wishlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wlCalls++
	if f.wishlist == nil {
		return &models.Wishlist{TargetList: models.TargetList{ID: id}}, nil
	}
	return f.wishlist, nil
}

func (f *fakeStore) AddItem(ctx context.Context, token string, id models.ListID, item models.ListItemRequest) (*models.ListItem, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds = append(f.adds, addCall{token: token, list: id, item: item})
	if f.addErr != nil {
		return nil, f.addErr
	}
	return &models.ListItem{ID: int64(len(f.adds)), WishlistID: id, Title: item.Title, Quantity: item.Quantity, Priority: item.Priority}, nil
}

func (f *fakeStore) addCalls() []addCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]addCall(nil), f.adds...)
}

func product(id, term string) models.ProductResult {
	price := 19.94
	return models.ProductResult{
		ID:           id,
		Key:          id,
		Title:        "Result " + id + " for " + term,
		Price:        &price,
		PriceDisplay: "$19.94",
		Retailer:     models.RetailerAmazon,
		ProductURL:   "https://www.amazon.com/dp/" + id + "?tag=myneedfully-20",
		Category:     "household",
	}
}

func quietReporter() *errreport.LogReporter {
	return errreport.Default(log.New(io.Discard, "", 0))
}

func newTestResolver(t *testing.T, s *fakeSearcher) (*Resolver, cache.Cache) {
	t.Helper()
	c := cache.NewMemoryCache(64, 0)
	return NewResolver(s, c, ResolverOptions{Reporter: quietReporter()}), c
}
