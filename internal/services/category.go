package services

import "strings"

// DefaultListCategory is used when a product category has no mapping.
const DefaultListCategory = "other"

// ListCategories are the categories a needs-list item may carry.
var ListCategories = []string{
	"baby", "household", "food", "clothing", "health",
	"personal_care", "education", "home", "electronics", "pets", "other",
}

var categoryMap = map[string]string{
	"baby":            "baby",
	"baby items":      "baby",
	"baby_items":      "baby",
	"diapers":         "baby",
	"nursery":         "baby",
	"household":       "household",
	"cleaning":        "household",
	"laundry":         "household",
	"food":            "food",
	"grocery":         "food",
	"groceries":       "food",
	"snacks":          "food",
	"clothing":        "clothing",
	"apparel":         "clothing",
	"shoes":           "clothing",
	"health":          "health",
	"medical":         "health",
	"first aid":       "health",
	"personal care":   "personal_care",
	"personal_care":   "personal_care",
	"beauty":          "personal_care",
	"hygiene":         "personal_care",
	"education":       "education",
	"school":          "education",
	"school supplies": "education",
	"books":           "education",
	"home":            "home",
	"furniture":       "home",
	"bedding":         "home",
	"kitchen":         "home",
	"electronics":     "electronics",
	"tech":            "electronics",
	"pets":            "pets",
	"pet supplies":    "pets",
}

// MapCategory maps a product or search category onto the fixed set a
// list item accepts.
func MapCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if mapped, ok := categoryMap[c]; ok {
		return mapped
	}
	return DefaultListCategory
}
