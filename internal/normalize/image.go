package normalize

import "github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"

const genericPlaceholder = "/images/placeholders/product.svg"

var retailerPlaceholders = map[models.Retailer]string{
	models.RetailerAmazon:  "/images/placeholders/amazon.svg",
	models.RetailerWalmart: "/images/placeholders/walmart.svg",
	models.RetailerTarget:  "/images/placeholders/target.svg",
}

// FallbackImage is the retailer-branded graphic shown when a product has
// no image or its image fails to load.
func FallbackImage(r models.Retailer) string {
	if img, ok := retailerPlaceholders[r]; ok {
		return img
	}
	return genericPlaceholder
}

// DisplayImage returns the product image, or the retailer fallback.
func DisplayImage(p models.ProductResult) string {
	if p.ImageURL != "" {
		return p.ImageURL
	}
	return FallbackImage(p.Retailer)
}

// DisplayPrice never returns an empty string.
func DisplayPrice(p models.ProductResult) string {
	if p.PriceDisplay != "" {
		return p.PriceDisplay
	}
	if p.Price != nil {
		return FormatPrice(ValuePrice(*p.Price))
	}
	return models.PriceNotAvailable
}
