package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/errreport"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/services"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/ui"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/pkg/cache"
)

func ptr(v float64) *float64 { return &v }

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want command
	}{
		{"  baby wipes ", command{kind: cmdType, text: "baby wipes"}},
		{"", command{kind: cmdType}},
		{":more", command{kind: cmdMore}},
		{":r", command{kind: cmdRetry}},
		{":cat personal care", command{kind: cmdCategory, text: "personal care"}},
		{":cat", command{kind: cmdCategory}},
		{":price 5 20", command{kind: cmdPrice, minPrice: ptr(5), maxPrice: ptr(20)}},
		{":price - $15.50", command{kind: cmdPrice, maxPrice: ptr(15.5)}},
		{":add 3", command{kind: cmdAdd, index: 3}},
		{":add 2 41", command{kind: cmdAdd, index: 2, listID: 41}},
		{":q", command{kind: cmdQuit}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommand_Errors(t *testing.T) {
	for _, line := range []string{
		":price 5",
		":price 30 10",
		":price abc 10",
		":add",
		":add 0",
		":add 1 list",
		":frobnicate",
	} {
		_, err := parseCommand(line)
		assert.Error(t, err, line)
	}
}

func TestPrintProducts(t *testing.T) {
	rating, count := 4.6, 1203
	products := []models.ProductResult{
		{
			Title:       "Huggies Natural Care Baby Wipes",
			Price:       ptr(21.48),
			Rating:      &rating,
			RatingCount: &count,
			Retailer:    models.RetailerWalmart,
			Category:    "baby",
			ProductURL:  "https://www.walmart.com/ip/123",
			ImageURL:    "https://i5.walmartimages.com/a.jpg?odnWidth=180",
		},
		{Title: "Mystery box", Retailer: models.RetailerTarget},
	}

	var buf bytes.Buffer
	printProducts(&buf, products, 10)
	out := buf.String()

	assert.Contains(t, out, " 11. Huggies Natural Care Baby Wipes")
	assert.Contains(t, out, "Price: $21.48  |  Walmart  |  4.6★ (1203)")
	assert.Contains(t, out, "Image: https://i5.walmartimages.com/a.jpg\n")
	assert.Contains(t, out, " 12. Mystery box")
	assert.Contains(t, out, "Price: "+models.PriceNotAvailable+"  |  Target")
	assert.Contains(t, out, "Image: /images/placeholders/target.svg")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}

type stubSearcher struct {
	mu    sync.Mutex
	total int
}

func (s *stubSearcher) Search(_ context.Context, q models.SearchQuery) (models.SearchResultPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q = q.Normalized()
	offset := (q.Page - 1) * q.Limit
	var results []models.ProductResult
	for i := offset; i < s.total && i < offset+q.Limit; i++ {
		id := fmt.Sprintf("%s-%d", q.Term, i)
		results = append(results, models.ProductResult{Key: id, Title: "Product " + id, Price: ptr(3), Retailer: models.RetailerAmazon})
	}
	return models.SearchResultPage{Results: results, Total: s.total, HasMore: offset+len(results) < s.total, Page: q.Page}, nil
}

func (s *stubSearcher) Popular(context.Context, string) ([]models.ProductResult, error) {
	return nil, nil
}

type stubStore struct {
	mu    sync.Mutex
	lists []models.TargetList
	added []models.ListID
}

func (s *stubStore) Lists(context.Context, string) ([]models.TargetList, error) {
	return s.lists, nil
}

func (s *stubStore) Wishlist(context.Context, string, models.ListID) (*models.Wishlist, error) {
	return nil, nil
}

func (s *stubStore) AddItem(_ context.Context, _ string, id models.ListID, item models.ListItemRequest) (*models.ListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.added = append(s.added, id)
	return &models.ListItem{ID: 1, WishlistID: id, Title: item.Title}, nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestBrowser(t *testing.T, input string, total int, store *stubStore) (*browser, *syncBuffer) {
	t.Helper()

	reporter := errreport.Default(log.New(io.Discard, "", 0))
	c := cache.NewMemoryCache(64, time.Minute)
	resolver := services.NewResolver(&stubSearcher{total: total}, c, services.ResolverOptions{Reporter: reporter})

	out := &syncBuffer{}
	b := newBrowser(strings.NewReader(input), out, ui.NewSpinnerTo(io.Discard))
	b.session = services.NewSession(context.Background(), resolver, services.NewAdder(store, c, reporter), services.SessionOptions{
		Debounce: time.Millisecond,
		Token:    "tok",
		OnChange: b.render,
		Reporter: reporter,
	})
	t.Cleanup(b.session.Close)
	return b, out
}

func TestBrowser_RendersPagesIncrementally(t *testing.T) {
	b, out := newTestBrowser(t, "", 15, &stubStore{})

	b.session.Submit("")
	assert.Contains(t, out.String(), "Popular essentials:")

	b.session.Submit("blankets")
	b.session.Wait()
	first := out.String()
	assert.Contains(t, first, "Results for 'blankets':")
	assert.Contains(t, first, " 10. Product blankets-9")
	assert.Contains(t, first, "Showing 10 of 15. More available. Type :more to see them.")

	require.NoError(t, b.session.ShowMore())
	b.session.Wait()
	more := strings.TrimPrefix(out.String(), first)
	assert.Contains(t, more, " 11. Product blankets-10")
	assert.Contains(t, more, " 15. Product blankets-14")
	assert.NotContains(t, more, "Results for")
	assert.NotContains(t, more, " 1. Product blankets-0")
	assert.Contains(t, more, "Showing 15 of 15")
}

func TestBrowser_AddPromptsForList(t *testing.T) {
	store := &stubStore{lists: []models.TargetList{{ID: 8, Title: "Flood cleanup"}, {ID: 9, Title: "New baby"}}}
	b, out := newTestBrowser(t, "2\n", 3, store)

	b.session.Submit("towels")
	b.session.Wait()

	b.add(context.Background(), command{kind: cmdAdd, index: 2})

	assert.Equal(t, []models.ListID{9}, store.added)
	s := out.String()
	assert.Contains(t, s, "Choose which needs list to add this item to.")
	assert.Contains(t, s, " 2. New baby  [id 9, 0 items]")
	assert.Contains(t, s, `Added "Product towels-1" to your needs list. View it at /wishlist/9`)
}

func TestBrowser_AddOutOfRange(t *testing.T) {
	b, out := newTestBrowser(t, "", 3, &stubStore{})

	b.session.Submit("towels")
	b.session.Wait()
	b.add(context.Background(), command{kind: cmdAdd, index: 7})

	assert.Contains(t, out.String(), "! No result #7.")
}

func TestBrowser_RunQuits(t *testing.T) {
	b, out := newTestBrowser(t, ":bogus\n:help\n:quit\ntowels\n", 3, &stubStore{})

	require.NoError(t, b.run(context.Background()))
	s := out.String()
	assert.Contains(t, s, "! unknown command :bogus (type :help)")
	assert.Equal(t, 2, strings.Count(s, ":price <min> <max>"))
}
