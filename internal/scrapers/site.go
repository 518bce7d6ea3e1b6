package scrapers

import (
	"net/url"
	"strings"
	"time"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/normalize"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/pkg/utils"
)

// Site describes how to search one retailer and where its listing fields
// live in the result page markup.
type Site struct {
	Retailer models.Retailer
	// BaseURL is where search requests go. PublicURL is used to resolve
	// relative product links; it defaults to BaseURL.
	BaseURL    string
	PublicURL  string
	SearchPath string
	QueryParam string
	Delay      time.Duration

	ItemSelectors   []string
	IDAttrs         []string
	TitleSelectors  []string
	PriceSelectors  []string
	LinkSelectors   []string
	ImageSelectors  []string
	RatingSelectors []string
	ReviewSelectors []string
}

// Amazon searches amazon.com, or base when given.
func Amazon(base string) Site {
	return Site{
		Retailer:   models.RetailerAmazon,
		BaseURL:    orDefault(base, "https://www.amazon.com"),
		PublicURL:  "https://www.amazon.com",
		SearchPath: "/s",
		QueryParam: "k",
		Delay:      2 * time.Second,
		ItemSelectors: []string{
			"div[data-component-type='s-search-result']",
			"div.s-result-item[data-asin]",
		},
		IDAttrs:         []string{"data-asin"},
		TitleSelectors:  []string{"h2 a span", "h2 span", ".a-link-normal span"},
		PriceSelectors:  []string{".a-price .a-offscreen", ".a-price-whole", ".a-color-price"},
		LinkSelectors:   []string{"h2 a", "a.a-link-normal"},
		ImageSelectors:  []string{"img.s-image", ".s-product-image-container img", "img"},
		RatingSelectors: []string{".a-icon-alt"},
		ReviewSelectors: []string{".a-size-base.s-underline-text", "span[aria-label$='ratings']"},
	}
}

func Walmart(base string) Site {
	return Site{
		Retailer:   models.RetailerWalmart,
		BaseURL:    orDefault(base, "https://www.walmart.com"),
		PublicURL:  "https://www.walmart.com",
		SearchPath: "/search",
		QueryParam: "q",
		Delay:      3 * time.Second,
		ItemSelectors: []string{
			"[data-testid='item']",
			"[data-item-id]",
			".search-result-gridview-item",
		},
		IDAttrs:         []string{"data-item-id", "data-product-id"},
		TitleSelectors:  []string{"[data-automation-id='product-title']", "a[data-testid='product-title']", "h3 a span"},
		PriceSelectors:  []string{"[data-automation-id='product-price']", ".price-main", "[itemprop='price']"},
		LinkSelectors:   []string{"a[href*='/ip/']", "a"},
		ImageSelectors:  []string{"img[data-testid='productTileImage']", "img"},
		RatingSelectors: []string{"[data-testid='product-ratings']", ".stars-container"},
		ReviewSelectors: []string{"[data-testid='product-reviews']", ".stars-reviews-count"},
	}
}

func Target(base string) Site {
	return Site{
		Retailer:   models.RetailerTarget,
		BaseURL:    orDefault(base, "https://www.target.com"),
		PublicURL:  "https://www.target.com",
		SearchPath: "/s",
		QueryParam: "searchTerm",
		Delay:      3 * time.Second,
		ItemSelectors: []string{
			"[data-test='@web/site-top-of-funnel/ProductCardWrapper']",
			"[data-test='product-card']",
			"section[data-test='product-card']",
		},
		IDAttrs:         []string{"data-tcin"},
		TitleSelectors:  []string{"a[data-test='product-title']", "[data-test='product-title']"},
		PriceSelectors:  []string{"[data-test='current-price']", "[data-test='product-price']"},
		LinkSelectors:   []string{"a[data-test='product-title']", "a"},
		ImageSelectors:  []string{"picture img", "img"},
		RatingSelectors: []string{"[data-test='ratings']", ".RatingStars"},
		ReviewSelectors: []string{"[data-test='rating-count']"},
	}
}

// SearchURL is the result page URL for term.
func (s Site) SearchURL(term string) string {
	return strings.TrimRight(s.BaseURL, "/") + s.SearchPath + "?" + url.Values{s.QueryParam: {term}}.Encode()
}

// listing is what the markup yields for one product.
type listing struct {
	id      string
	title   string
	price   string
	link    string
	image   string
	rating  string
	reviews string
}

// raw emits the listing in the retailer's own payload shape so it goes
// through the same normalization as API responses.
func (s Site) raw(l listing) normalize.RawProduct {
	p := normalize.RawProduct{
		Title:    l.title,
		Retailer: string(s.Retailer),
	}

	switch s.Retailer {
	case models.RetailerAmazon:
		p.ASIN = normalize.FlexString(l.id)
		p.Image = normalize.FlexImage(l.image)
		p.Link = l.link
		if v, ok := utils.ParsePrice(l.price); ok {
			p.Price = normalize.ValuePrice(v)
		}
	case models.RetailerWalmart:
		p.ProductID = normalize.FlexString(l.id)
		p.ImageURL = l.image
		p.URL = l.link
		p.Price = normalize.TextPrice(l.price)
	default:
		p.ID = normalize.FlexString(l.id)
		if l.image != "" {
			p.MainImage = &normalize.Image{Link: l.image}
		}
		p.ProductURL = l.link
		p.Price = normalize.TextPrice(l.price)
	}

	if v, ok := utils.ParseRating(l.rating); ok {
		p.Rating = normalize.FlexFloat{Value: v, Valid: true}
	}
	if n, ok := utils.ParseCount(l.reviews); ok {
		p.RatingsTotal = normalize.FlexInt{Value: n, Valid: true}
	}
	return p
}

// absolute resolves a relative product link against the public origin.
func (s Site) absolute(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if u.IsAbs() {
		return link
	}
	base, err := url.Parse(orDefault(s.PublicURL, s.BaseURL))
	if err != nil {
		return link
	}
	return base.ResolveReference(u).String()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
