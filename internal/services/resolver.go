package services

import (
	"context"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/errreport"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/upstream"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/pkg/cache"
)

// MinQueryLen is the shortest term that triggers a live search.
const MinQueryLen = 3

// Source says where a displayed result set came from.
type Source string

const (
	SourceNone        Source = "none"
	SourcePopular     Source = "popular"
	SourceCache       Source = "cache"
	SourcePlaceholder Source = "placeholder"
	SourceLive        Source = "live"
)

// Decision is what the resolver wants displayed for a query right now.
type Decision struct {
	Query  models.SearchQuery
	Source Source
	Page   models.SearchResultPage
	// NeedsFetch is set when a live fetch should replace Page.
	NeedsFetch bool
}

type ResolverOptions struct {
	MinQueryLen    int
	DisablePopular bool
	Seeds          *SeedCatalog
	Reporter       errreport.Reporter
}

// Resolver decides what to show for a query without waiting on the
// network when anything suitable is cached. It is the only writer of
// search entries in the cache.
type Resolver struct {
	searcher       upstream.Searcher
	cache          cache.Cache
	seeds          *SeedCatalog
	minLen         int
	disablePopular bool
	reporter       errreport.Reporter
}

func NewResolver(searcher upstream.Searcher, c cache.Cache, opts ResolverOptions) *Resolver {
	r := &Resolver{
		searcher:       searcher,
		cache:          c,
		seeds:          opts.Seeds,
		minLen:         opts.MinQueryLen,
		disablePopular: opts.DisablePopular,
		reporter:       opts.Reporter,
	}
	if r.minLen <= 0 {
		r.minLen = MinQueryLen
	}
	if r.seeds == nil {
		r.seeds = NewSeedCatalog(nil)
	}
	if r.reporter == nil {
		r.reporter = errreport.Default(nil)
	}
	return r
}

// Active reports whether q would trigger a live search.
func (r *Resolver) Active(q models.SearchQuery) bool {
	q = q.Normalized()
	return utf8.RuneCountInString(q.Term) >= r.minLen && !IsPlaceholder(q.Term)
}

// Resolve never touches the search collaborator; it only reads the cache
// and the static seed sets.
func (r *Resolver) Resolve(ctx context.Context, q models.SearchQuery) Decision {
	q = q.Normalized()
	d := Decision{Query: q, Source: SourceNone}

	if !r.Active(q) {
		if r.disablePopular {
			return d
		}
		d.Source = SourcePopular
		d.Page = pageOf(r.cachedPopular(ctx, q.Category))
		return d
	}

	var page models.SearchResultPage
	if r.get(ctx, cache.SearchKey(q), &page) {
		page.Page = q.Page
		d.Source = SourceCache
		d.Page = page
		return d
	}

	d.NeedsFetch = true
	if q.Page > 1 {
		return d
	}

	if page, ok := r.placeholder(ctx, q); ok {
		d.Source = SourcePlaceholder
		d.Page = page
	}
	return d
}

// placeholder looks for a cached shorter prefix of the term, then the
// static alias sets.
func (r *Resolver) placeholder(ctx context.Context, q models.SearchQuery) (models.SearchResultPage, bool) {
	runes := []rune(q.Term)
	for n := len(runes) - 1; n >= r.minLen; n-- {
		prefix := q
		prefix.Term = string(runes[:n])

		var page models.SearchResultPage
		if r.get(ctx, cache.SearchKey(prefix), &page) {
			// The placeholder never offers a next page of another query.
			page.HasMore = false
			page.Page = 1
			return page, true
		}
	}

	if results, ok := r.seeds.Alias(q.Term); ok {
		return pageOf(results), true
	}
	return models.SearchResultPage{}, false
}

// Fetch runs the live search for q and caches the result under its full
// parameter tuple.
func (r *Resolver) Fetch(ctx context.Context, q models.SearchQuery) (models.SearchResultPage, error) {
	q = q.Normalized()
	if q.Term == "" {
		return models.SearchResultPage{}, ErrEmptyQuery
	}

	page, err := r.searcher.Search(ctx, q)
	if err != nil {
		return models.SearchResultPage{}, fmt.Errorf("search %q page %d: %w", q.Term, q.Page, err)
	}
	page.Page = q.Page
	if page.Results == nil {
		page.Results = []models.ProductResult{}
	}

	key := cache.SearchKey(q)
	if err := r.cache.Set(ctx, key, page); err != nil {
		r.reporter.Report(ctx, "cache", err)
	} else {
		log.Printf("Cached results for key: %s", key)
	}
	return page, nil
}

// Search resolves q and, when nothing cached satisfies it, fetches it.
// On failure the returned decision still carries any placeholder set.
func (r *Resolver) Search(ctx context.Context, q models.SearchQuery) (Decision, error) {
	d := r.Resolve(ctx, q)
	if !d.NeedsFetch {
		return d, nil
	}

	page, err := r.Fetch(ctx, d.Query)
	if err != nil {
		return d, err
	}
	d.Source = SourceLive
	d.Page = page
	d.NeedsFetch = false
	return d, nil
}

// Popular returns the popular set for category: cached, then from the
// popular endpoint, then the static seeds.
func (r *Resolver) Popular(ctx context.Context, category string) ([]models.ProductResult, Source) {
	key := cache.PopularKey(category)

	var cached []models.ProductResult
	if r.get(ctx, key, &cached) && len(cached) > 0 {
		return cached, SourceCache
	}

	products, err := r.searcher.Popular(ctx, category)
	if err != nil {
		r.reporter.Report(ctx, "popular", err)
		return r.seeds.Popular(category), SourcePopular
	}
	if len(products) == 0 {
		return r.seeds.Popular(category), SourcePopular
	}

	if err := r.cache.Set(ctx, key, products); err != nil {
		r.reporter.Report(ctx, "cache", err)
	}
	return products, SourceLive
}

func (r *Resolver) cachedPopular(ctx context.Context, category string) []models.ProductResult {
	var cached []models.ProductResult
	if r.get(ctx, cache.PopularKey(category), &cached) && len(cached) > 0 {
		return cached
	}
	return r.seeds.Popular(category)
}

// get treats cache errors as misses.
func (r *Resolver) get(ctx context.Context, key string, dest any) bool {
	ok, err := r.cache.Get(ctx, key, dest)
	if err != nil {
		r.reporter.Report(ctx, "cache", err)
		return false
	}
	if ok {
		log.Printf("Cache HIT for key: %s", key)
	}
	return ok
}

func pageOf(results []models.ProductResult) models.SearchResultPage {
	if results == nil {
		results = []models.ProductResult{}
	}
	return models.SearchResultPage{Results: results, Total: len(results), Page: 1}
}
