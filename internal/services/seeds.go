package services

import (
	"sort"
	"strings"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/normalize"
)

type seedProduct struct {
	asin     string
	title    string
	price    float64
	rating   float64
	ratings  int
	category string
}

// Frequently requested essentials, shown before a real search starts and
// as instant placeholders for well-known terms.
var seedProducts = []seedProduct{
	{"B07MJBT4T1", "Pampers Swaddlers Diapers, Size 1, 198 Count", 49.94, 4.8, 91234, "baby"},
	{"B00NIWGBFG", "Huggies Natural Care Sensitive Baby Wipes, 12 Packs (768 Wipes)", 22.97, 4.8, 78120, "baby"},
	{"B07D8J8BNZ", "Similac Pro-Advance Infant Formula, 30.8 oz", 49.99, 4.7, 12876, "baby"},
	{"B01BZQIMAI", "Tide PODS Laundry Detergent Pacs, Original, 81 Count", 19.94, 4.8, 54021, "household"},
	{"B07ZPKBL9V", "Bounty Select-A-Size Paper Towels, 12 Double Rolls", 31.99, 4.8, 102345, "household"},
	{"B071Y2KL8D", "Charmin Ultra Soft Toilet Paper, 18 Mega Rolls", 24.49, 4.8, 88012, "household"},
	{"B08KWN77LW", "Utopia Bedding Fleece Blanket, Queen Size", 17.99, 4.6, 40311, "home"},
	{"B07H9NW1JX", "Amazon Basics Microfiber Sheet Set, Queen", 21.49, 4.5, 210034, "home"},
	{"B00I8OTI8E", "Quaker Instant Oatmeal Variety Pack, 52 Packets", 13.28, 4.8, 35120, "food"},
	{"B074H5G2CY", "Kellogg's Nutri-Grain Soft Baked Breakfast Bars, 48 Count", 15.99, 4.7, 23876, "food"},
	{"B0859W4QDZ", "Hanes Men's Crew T-Shirts, 6-Pack", 19.99, 4.5, 120874, "clothing"},
	{"B07GXRMJH3", "Fruit of the Loom Women's Socks, 6 Pair", 11.88, 4.6, 30211, "clothing"},
	{"B0029NYNSY", "Johnson & Johnson First Aid To Go Kit, 12 Pieces", 4.97, 4.8, 40127, "health"},
	{"B00H4HCYU6", "Colgate Cavity Protection Toothpaste, 6 Pack", 8.48, 4.8, 35433, "personal_care"},
	{"B0797NVL2D", "Dove Beauty Bar Soap, 14 Bars", 16.99, 4.8, 51209, "personal_care"},
	{"B07FPC7K2N", "Crayola Back to School Supplies Kit", 24.99, 4.7, 3120, "education"},
}

// Lowercase substrings that map a typed term onto a seed category.
var seedAliases = map[string]string{
	"diaper":      "baby",
	"wipe":        "baby",
	"formula":     "baby",
	"baby":        "baby",
	"tide":        "household",
	"detergent":   "household",
	"laundry":     "household",
	"paper towel": "household",
	"toilet":      "household",
	"blanket":     "home",
	"sheet":       "home",
	"bedding":     "home",
	"oatmeal":     "food",
	"snack":       "food",
	"cereal":      "food",
	"shirt":       "clothing",
	"sock":        "clothing",
	"first aid":   "health",
	"bandage":     "health",
	"toothpaste":  "personal_care",
	"soap":        "personal_care",
	"crayon":      "education",
	"school":      "education",
}

// PlaceholderTerms are default search-box values treated like an empty
// query.
var PlaceholderTerms = []string{"search products", "search for items", "what do you need?"}

// SeedCatalog holds the static popular sets per category and the alias
// lookup used for instant placeholders.
type SeedCatalog struct {
	byCategory map[string][]models.ProductResult
	all        []models.ProductResult
	aliases    []string
}

func NewSeedCatalog(n *normalize.Normalizer) *SeedCatalog {
	if n == nil {
		n = normalize.New(normalize.DefaultAffiliateTag)
	}

	c := &SeedCatalog{byCategory: make(map[string][]models.ProductResult)}
	for i, s := range seedProducts {
		p := n.Product(normalize.RawProduct{
			ASIN:         normalize.FlexString(s.asin),
			Title:        s.title,
			Price:        normalize.ValuePrice(s.price),
			Rating:       normalize.FlexFloat{Value: s.rating, Valid: true},
			RatingsTotal: normalize.FlexInt{Value: s.ratings, Valid: true},
			Retailer:     string(models.RetailerAmazon),
			Category:     s.category,
		}, i, models.RetailerAmazon)

		c.all = append(c.all, p)
		c.byCategory[s.category] = append(c.byCategory[s.category], p)
	}

	for alias := range seedAliases {
		c.aliases = append(c.aliases, alias)
	}
	// Longest alias first so "paper towel" beats shorter overlaps.
	sort.Slice(c.aliases, func(i, j int) bool {
		if len(c.aliases[i]) != len(c.aliases[j]) {
			return len(c.aliases[i]) > len(c.aliases[j])
		}
		return c.aliases[i] < c.aliases[j]
	})
	return c
}

// Popular returns the seed set for category, or every seed for "all" and
// unknown categories. The result is a fresh copy.
func (c *SeedCatalog) Popular(category string) []models.ProductResult {
	category = MapCategory(category)
	if set, ok := c.byCategory[category]; ok {
		return clone(set)
	}
	return clone(c.all)
}

// Alias returns the seed set whose alias is contained in term.
func (c *SeedCatalog) Alias(term string) ([]models.ProductResult, bool) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil, false
	}
	for _, alias := range c.aliases {
		if strings.Contains(term, alias) {
			return clone(c.byCategory[seedAliases[alias]]), true
		}
	}
	return nil, false
}

// IsPlaceholder reports whether term is one of the search box defaults.
func IsPlaceholder(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	for _, p := range PlaceholderTerms {
		if term == p {
			return true
		}
	}
	return false
}

func clone(in []models.ProductResult) []models.ProductResult {
	if in == nil {
		return nil
	}
	out := make([]models.ProductResult, len(in))
	copy(out, in)
	return out
}
