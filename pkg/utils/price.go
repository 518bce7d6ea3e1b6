package utils

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	digitsRe = regexp.MustCompile(`\d+`)
)

// ParsePrice converts price string to float64.
// The second return is false when the string holds no number.
func ParsePrice(priceStr string) (float64, bool) {
	if priceStr == "" {
		return 0, false
	}

	// Remove currency symbols and clean up
	cleanPrice := strings.ReplaceAll(priceStr, "$", "")
	cleanPrice = strings.ReplaceAll(cleanPrice, ",", "")
	cleanPrice = strings.TrimSpace(cleanPrice)

	match := numberRe.FindString(cleanPrice)
	if match == "" {
		return 0, false
	}

	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}

	return price, true
}

// ParseRating converts rating string to float64
// (e.g., "4.5 out of 5 stars" -> 4.5).
func ParseRating(ratingStr string) (float64, bool) {
	match := numberRe.FindString(strings.ReplaceAll(ratingStr, ",", ""))
	if match == "" {
		return 0, false
	}

	rating, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}

	return rating, true
}

// ParseCount extracts an integer count such as "1,234 ratings" -> 1234.
func ParseCount(s string) (int, bool) {
	match := digitsRe.FindString(strings.ReplaceAll(s, ",", ""))
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatUSD renders a dollar amount for display, e.g. 1234.5 -> "$1,234.50".
func FormatUSD(v float64) string {
	s := decimal.NewFromFloat(v).Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	sign := ""
	if v < 0 {
		sign = "-"
	}
	return sign + "$" + b.String() + "." + frac
}

// NumericString renders v with exactly two decimals and no symbols,
// the shape list items store prices in.
func NumericString(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
