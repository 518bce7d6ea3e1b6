package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/pkg/cache"
)

func TestResolver_ShortQueriesNeverFetch(t *testing.T) {
	s := newFakeSearcher(12)
	r, _ := newTestResolver(t, s)
	ctx := context.Background()

	for _, term := range []string{"", "a", "ab", "  ab  ", "Search Products"} {
		d, err := r.Search(ctx, models.SearchQuery{Term: term, Category: "baby"})
		require.NoError(t, err, term)

		assert.Equal(t, SourcePopular, d.Source, term)
		assert.False(t, d.NeedsFetch, term)
		assert.NotEmpty(t, d.Page.Results, term)
	}
	assert.Empty(t, s.searchCalls())
}

func TestResolver_PopularDisabled(t *testing.T) {
	s := newFakeSearcher(12)
	r := NewResolver(s, cache.NewMemoryCache(8, 0), ResolverOptions{DisablePopular: true, Reporter: quietReporter()})

	d := r.Resolve(context.Background(), models.SearchQuery{Term: "ab"})
	assert.Equal(t, SourceNone, d.Source)
	assert.False(t, d.NeedsFetch)
	assert.Empty(t, d.Page.Results)
}

func TestResolver_CachedTupleIsIdempotent(t *testing.T) {
	s := newFakeSearcher(12)
	r, _ := newTestResolver(t, s)
	ctx := context.Background()
	q := models.SearchQuery{Term: "tide"}

	first, err := r.Search(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, first.Source)
	assert.Equal(t, 12, first.Page.Total)
	assert.True(t, first.Page.HasMore)
	require.Len(t, s.searchCalls(), 1)

	second, err := r.Search(ctx, q)
	require.NoError(t, err)
	third, err := r.Search(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, first.Page.Results, second.Page.Results)
	assert.Equal(t, second.Page, third.Page)
	assert.Len(t, s.searchCalls(), 1)
}

func TestResolver_KeyCoversWholeTuple(t *testing.T) {
	s := newFakeSearcher(12)
	r, _ := newTestResolver(t, s)
	ctx := context.Background()
	maxP := 20.0

	_, err := r.Search(ctx, models.SearchQuery{Term: "tide"})
	require.NoError(t, err)

	for _, q := range []models.SearchQuery{
		{Term: "tide", Category: "household"},
		{Term: "tide", MaxPrice: &maxP},
		{Term: "tide", Page: 2},
		{Term: "tide", Limit: 20},
	} {
		d := r.Resolve(ctx, q)
		assert.True(t, d.NeedsFetch, "%+v", q)
		assert.NotEqual(t, SourceCache, d.Source, "%+v", q)
	}
}

func TestResolver_PrefixPlaceholder(t *testing.T) {
	s := newFakeSearcher(12)
	r, _ := newTestResolver(t, s)
	ctx := context.Background()

	_, err := r.Search(ctx, models.SearchQuery{Term: "bla"})
	require.NoError(t, err)

	d := r.Resolve(ctx, models.SearchQuery{Term: "blank"})
	assert.Equal(t, SourcePlaceholder, d.Source)
	assert.True(t, d.NeedsFetch)
	assert.False(t, d.Page.HasMore)
	require.NotEmpty(t, d.Page.Results)
	assert.Contains(t, d.Page.Results[0].Title, "bla")
	assert.Len(t, s.searchCalls(), 1)
}

func TestResolver_AliasPlaceholder(t *testing.T) {
	s := newFakeSearcher(12)
	r, _ := newTestResolver(t, s)

	d := r.Resolve(context.Background(), models.SearchQuery{Term: "Pampers Diapers size 2"})
	assert.Equal(t, SourcePlaceholder, d.Source)
	assert.True(t, d.NeedsFetch)
	require.NotEmpty(t, d.Page.Results)
	for _, p := range d.Page.Results {
		assert.Equal(t, "baby", p.Category)
	}

	d = r.Resolve(context.Background(), models.SearchQuery{Term: "zzzz"})
	assert.Equal(t, SourceNone, d.Source)
	assert.True(t, d.NeedsFetch)
	assert.Empty(t, s.searchCalls())
}

func TestResolver_FetchErrorKeepsPlaceholder(t *testing.T) {
	s := newFakeSearcher(12)
	s.setErr(errors.New("connection refused"))
	r, c := newTestResolver(t, s)

	d, err := r.Search(context.Background(), models.SearchQuery{Term: "tide pods"})
	require.Error(t, err)
	assert.Equal(t, SourcePlaceholder, d.Source)
	assert.NotEmpty(t, d.Page.Results)
	assert.Zero(t, c.Stats().Sets)
}

func TestResolver_Popular(t *testing.T) {
	ctx := context.Background()

	t.Run("falls back to seeds", func(t *testing.T) {
		s := newFakeSearcher(0)
		s.popularErr = errors.New("status 500")
		r, _ := newTestResolver(t, s)

		products, src := r.Popular(ctx, "household")
		assert.Equal(t, SourcePopular, src)
		require.NotEmpty(t, products)
		assert.Equal(t, "household", products[0].Category)
	})

	t.Run("caches endpoint results", func(t *testing.T) {
		s := newFakeSearcher(0)
		s.popular = []models.ProductResult{product("P1", "popular")}
		r, _ := newTestResolver(t, s)

		products, src := r.Popular(ctx, "all")
		assert.Equal(t, SourceLive, src)
		assert.Len(t, products, 1)

		products, src = r.Popular(ctx, "all")
		assert.Equal(t, SourceCache, src)
		assert.Len(t, products, 1)
		assert.Equal(t, 1, s.popularCalls)

		// short queries now show the cached popular set
		d := r.Resolve(ctx, models.SearchQuery{Term: "a"})
		require.Len(t, d.Page.Results, 1)
		assert.Equal(t, "P1", d.Page.Results[0].ID)
	})
}

func TestSeedCatalog(t *testing.T) {
	c := NewSeedCatalog(nil)

	all := c.Popular("all")
	require.NotEmpty(t, all)
	for _, p := range all {
		assert.Contains(t, p.ProductURL, "tag=myneedfully-20")
		assert.NotEqual(t, models.PriceNotAvailable, p.PriceDisplay)
	}

	baby := c.Popular("Baby Items")
	require.NotEmpty(t, baby)
	assert.Less(t, len(baby), len(all))

	set, ok := c.Alias("paper towels")
	require.True(t, ok)
	assert.Equal(t, "household", set[0].Category)

	// callers get copies
	baby[0].Title = "changed"
	assert.NotEqual(t, "changed", c.Popular("baby")[0].Title)
}
