// Package scrapers searches the retailers' own result pages with colly.
// It is the direct-retrieval alternative to the MyNeedfully search API.
package scrapers

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"

	"github.com/gocolly/colly/v2"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/normalize"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var dollarRe = regexp.MustCompile(`\$\s?[\d,]+(?:\.\d{1,2})?`)

type RetailerScraper struct {
	site      Site
	collector *colly.Collector
}

func NewRetailerScraper(site Site) (*RetailerScraper, error) {
	base, err := url.Parse(site.BaseURL)
	if err != nil || base.Hostname() == "" {
		return nil, fmt.Errorf("invalid %s base url %q", site.Retailer, site.BaseURL)
	}

	c := colly.NewCollector(
		colly.AllowedDomains(base.Hostname()),
		colly.AllowURLRevisit(),
		colly.UserAgent(userAgent),
	)

	if site.Delay > 0 {
		if err := c.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Parallelism: 1,
			Delay:       site.Delay,
		}); err != nil {
			return nil, fmt.Errorf("%s limit rule: %w", site.Retailer, err)
		}
	}

	return &RetailerScraper{site: site, collector: c}, nil
}

// Search returns the listings on the first result page for term. Item
// selectors are tried in order until one matches.
func (s *RetailerScraper) Search(ctx context.Context, term string) ([]normalize.RawProduct, error) {
	searchURL := s.site.SearchURL(term)
	log.Printf("Searching %s with URL: %s", s.site.Retailer, searchURL)

	for _, selector := range s.site.ItemSelectors {
		products, err := s.visit(ctx, searchURL, selector)
		if err != nil {
			return nil, fmt.Errorf("%s search: %w", s.site.Retailer, err)
		}
		if len(products) > 0 {
			log.Printf("%s found %d products with selector %s", s.site.Retailer, len(products), selector)
			return products, nil
		}
	}

	log.Printf("No %s products found for query: %s", s.site.Retailer, term)
	return []normalize.RawProduct{}, nil
}

func (s *RetailerScraper) visit(ctx context.Context, searchURL, selector string) ([]normalize.RawProduct, error) {
	c := s.collector.Clone()
	c.Context = ctx

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
	})

	products := make([]normalize.RawProduct, 0)
	c.OnHTML(selector, func(e *colly.HTMLElement) {
		l, ok := s.extract(e)
		if !ok {
			return
		}
		products = append(products, s.site.raw(l))
	})

	if err := c.Visit(searchURL); err != nil {
		return nil, err
	}
	c.Wait()
	return products, nil
}

func (s *RetailerScraper) extract(e *colly.HTMLElement) (listing, bool) {
	l := listing{
		title: cleanText(firstText(e, s.site.TitleSelectors)),
	}
	if len(l.title) <= 5 {
		return l, false
	}

	for _, attr := range s.site.IDAttrs {
		if id := strings.TrimSpace(e.Attr(attr)); id != "" {
			l.id = id
			break
		}
	}

	price := firstText(e, s.site.PriceSelectors)
	if m := dollarRe.FindString(price); m != "" {
		price = m
	}
	l.price = price
	l.link = s.site.absolute(firstAttr(e, s.site.LinkSelectors, "href"))
	l.image = firstAttr(e, s.site.ImageSelectors, "src")
	l.rating = firstText(e, s.site.RatingSelectors)
	l.reviews = firstText(e, s.site.ReviewSelectors)

	return l, true
}

func firstText(e *colly.HTMLElement, selectors []string) string {
	for _, sel := range selectors {
		if v := strings.TrimSpace(e.ChildText(sel)); v != "" {
			return v
		}
	}
	return ""
}

func firstAttr(e *colly.HTMLElement, selectors []string, attr string) string {
	for _, sel := range selectors {
		if v := strings.TrimSpace(e.ChildAttr(sel, attr)); v != "" {
			return v
		}
	}
	return ""
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
