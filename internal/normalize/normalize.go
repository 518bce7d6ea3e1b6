// Package normalize turns the retailer-specific payloads returned by the
// search collaborators into display-ready models.ProductResult values.
package normalize

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
)

const DefaultAffiliateTag = "myneedfully-20"

// RawProduct is the union of every field name the Amazon, Walmart and
// Target payloads (and our own normalized shape) use.
type RawProduct struct {
	ASIN      FlexString `json:"asin"`
	ProductID FlexString `json:"product_id"`
	ID        FlexString `json:"id"`

	Title       string `json:"title"`
	Name        string `json:"name"`
	Description string `json:"description"`

	Image       FlexImage `json:"image"`
	ImageURL    string    `json:"image_url"`
	ImageURLAlt string    `json:"imageUrl"`
	MainImage   *Image    `json:"main_image"`

	Price Price `json:"price"`

	Rating       FlexFloat `json:"rating"`
	RatingsTotal FlexInt   `json:"ratings_total"`
	RatingCount  FlexInt   `json:"ratingCount"`
	Reviews      FlexInt   `json:"reviews"`

	Link       string `json:"link"`
	URL        string `json:"url"`
	ProductURL string `json:"productUrl"`

	Retailer string `json:"retailer"`
	Source   string `json:"source"`
	Category string `json:"category"`
}

type Normalizer struct {
	affiliateTag string
}

func New(affiliateTag string) *Normalizer {
	return &Normalizer{affiliateTag: strings.TrimSpace(affiliateTag)}
}

// Products normalizes one fetched batch. offset is the position of the
// batch's first element within the whole result sequence so fallback keys
// stay distinct when later pages are appended.
func (n *Normalizer) Products(raws []RawProduct, offset int, fallback models.Retailer) []models.ProductResult {
	out := make([]models.ProductResult, 0, len(raws))
	for i, raw := range raws {
		out = append(out, n.Product(raw, offset+i, fallback))
	}
	return out
}

// Product maps a single payload. Missing fields degrade to documented
// fallbacks; it never fails.
func (n *Normalizer) Product(raw RawProduct, index int, fallback models.Retailer) models.ProductResult {
	retailer := resolveRetailer(raw, fallback)

	p := models.ProductResult{
		ID:          firstNonEmpty(string(raw.ASIN), string(raw.ProductID), string(raw.ID)),
		Title:       firstNonEmpty(strings.TrimSpace(raw.Title), strings.TrimSpace(raw.Name), "Untitled item"),
		Description: strings.TrimSpace(raw.Description),
		ImageURL:    pickImage(raw),
		Retailer:    retailer,
		Category:    strings.TrimSpace(raw.Category),
	}

	p.Key = identityKey(raw, retailer, index)

	if amount, ok := raw.Price.Amount(); ok {
		p.Price = &amount
	}
	p.PriceDisplay = FormatPrice(raw.Price)

	if raw.Rating.Valid && raw.Rating.Value >= 0 && raw.Rating.Value <= 5 {
		p.Rating = raw.Rating.ptr()
	}
	for _, c := range []FlexInt{raw.RatingsTotal, raw.RatingCount, raw.Reviews} {
		if c.Valid {
			p.RatingCount = c.ptr()
			break
		}
	}

	link := firstNonEmpty(strings.TrimSpace(raw.Link), strings.TrimSpace(raw.ProductURL), strings.TrimSpace(raw.URL))
	if retailer == models.RetailerAmazon {
		link = n.AmazonURL(link, string(raw.ASIN))
	}
	p.ProductURL = link

	return p
}

// AmazonURL makes sure an Amazon product link carries the affiliate tag.
// An existing tag is left alone. With no link, one is built from the ASIN.
func (n *Normalizer) AmazonURL(link, asin string) string {
	if link == "" {
		if asin == "" {
			return ""
		}
		link = "https://www.amazon.com/dp/" + url.PathEscape(asin)
	}
	if strings.HasPrefix(link, "/") {
		link = "https://www.amazon.com" + link
	}
	if n.affiliateTag == "" {
		return link
	}

	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	q := u.Query()
	if q.Get("tag") != "" {
		return link
	}
	q.Set("tag", n.affiliateTag)
	u.RawQuery = q.Encode()
	return u.String()
}

// identityKey follows asin, then product_id / id, then retailer+index.
func identityKey(raw RawProduct, retailer models.Retailer, index int) string {
	if raw.ASIN != "" {
		return string(raw.ASIN)
	}
	if raw.ProductID != "" {
		return string(raw.ProductID)
	}
	if raw.ID != "" {
		return string(raw.ID)
	}
	return fmt.Sprintf("%s-%d", retailer, index)
}

func pickImage(raw RawProduct) string {
	var main string
	if raw.MainImage != nil {
		main = raw.MainImage.Link
	}
	return firstNonEmpty(
		strings.TrimSpace(string(raw.Image)),
		strings.TrimSpace(raw.ImageURL),
		strings.TrimSpace(main),
		strings.TrimSpace(raw.ImageURLAlt),
	)
}

func resolveRetailer(raw RawProduct, fallback models.Retailer) models.Retailer {
	if r, ok := models.ParseRetailer(raw.Retailer); ok {
		return r
	}
	if r, ok := models.ParseRetailer(raw.Source); ok {
		return r
	}
	for _, link := range []string{raw.Link, raw.ProductURL, raw.URL} {
		if u, err := url.Parse(link); err == nil && u.Host != "" {
			if r, ok := models.ParseRetailer(u.Host); ok {
				return r
			}
		}
	}
	if raw.ASIN != "" {
		return models.RetailerAmazon
	}
	if fallback != "" {
		return fallback
	}
	return models.RetailerAmazon
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
