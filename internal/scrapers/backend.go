package scrapers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/normalize"
)

// Backend searches every configured retailer at once, merges the results
// and pages through them in process.
type Backend struct {
	scrapers   []*RetailerScraper
	normalizer *normalize.Normalizer
}

func NewBackend(n *normalize.Normalizer, sites ...Site) (*Backend, error) {
	if n == nil {
		n = normalize.New(normalize.DefaultAffiliateTag)
	}
	if len(sites) == 0 {
		sites = []Site{Amazon(""), Walmart(""), Target("")}
	}

	b := &Backend{normalizer: n}
	for _, site := range sites {
		s, err := NewRetailerScraper(site)
		if err != nil {
			return nil, err
		}
		b.scrapers = append(b.scrapers, s)
	}
	return b, nil
}

func (b *Backend) Search(ctx context.Context, q models.SearchQuery) (models.SearchResultPage, error) {
	q = q.Normalized()
	if q.Term == "" {
		return models.SearchResultPage{}, errors.New("search query cannot be empty")
	}

	perRetailer, err := b.scrapeAll(ctx, q.Term)
	if err != nil {
		return models.SearchResultPage{}, err
	}

	merged := merge(perRetailer)
	filtered := applyPriceFilter(merged, q.MinPrice, q.MaxPrice)
	page, hasMore := applyPagination(filtered, q.Page, q.Limit)

	return models.SearchResultPage{
		Results: page,
		Total:   len(filtered),
		HasMore: hasMore,
		Page:    q.Page,
	}, nil
}

// Popular has no retailer page to scrape; callers fall back to their
// static seed sets.
func (b *Backend) Popular(context.Context, string) ([]models.ProductResult, error) {
	return nil, nil
}

// scrapeAll runs every retailer concurrently. A failing retailer is logged
// and skipped; only when all of them fail is an error returned.
func (b *Backend) scrapeAll(ctx context.Context, term string) ([][]models.ProductResult, error) {
	results := make([][]models.ProductResult, len(b.scrapers))

	var (
		mu   sync.Mutex
		errs []error
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range b.scrapers {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("%s scraper panic recovered: %v", s.site.Retailer, r)
					err = nil
				}
			}()

			raws, err := s.Search(gctx, term)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			results[i] = b.normalizer.Products(raws, 0, s.site.Retailer)
			log.Printf("%s scraper completed: found %d products", s.site.Retailer, len(raws))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(errs) > 0 {
		log.Printf("Scraping completed with %d errors:", len(errs))
		for i, err := range errs {
			log.Printf("  Error %d: %v", i+1, err)
		}
		if len(errs) == len(b.scrapers) {
			return nil, fmt.Errorf("all retailers failed: %w", errors.Join(errs...))
		}
	}
	return results, nil
}

// merge interleaves retailers by rank so the first page shows each of
// them.
func merge(perRetailer [][]models.ProductResult) []models.ProductResult {
	var out []models.ProductResult
	for rank := 0; ; rank++ {
		added := false
		for _, list := range perRetailer {
			if rank < len(list) {
				out = append(out, list[rank])
				added = true
			}
		}
		if !added {
			return out
		}
	}
}

// applyPriceFilter drops products outside the range. Products without a
// price are dropped whenever a bound is set.
func applyPriceFilter(products []models.ProductResult, minPrice, maxPrice *float64) []models.ProductResult {
	if minPrice == nil && maxPrice == nil {
		return products
	}

	var filtered []models.ProductResult
	for _, p := range products {
		if p.Price == nil {
			continue
		}
		if minPrice != nil && *p.Price < *minPrice {
			continue
		}
		if maxPrice != nil && *p.Price > *maxPrice {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

func applyPagination(products []models.ProductResult, page, limit int) ([]models.ProductResult, bool) {
	total := len(products)

	start := (page - 1) * limit
	if start >= total {
		return []models.ProductResult{}, false
	}

	end := start + limit
	if end > total {
		end = total
	}

	return products[start:end], end < total
}
