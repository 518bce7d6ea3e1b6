package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func price(v float64) *float64 { return &v }

func TestSearchQuery_NormalizedDefaults(t *testing.T) {
	q := SearchQuery{Term: "  tide pods ", Category: " Baby ", Page: -2, Limit: 500}.Normalized()

	assert.Equal(t, "tide pods", q.Term)
	assert.Equal(t, "baby", q.Category)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, MaxPageSize, q.Limit)
	assert.Equal(t, CategoryAll, SearchQuery{}.Normalized().Category)
	assert.Equal(t, DefaultPageSize, SearchQuery{}.Normalized().Limit)
}

func TestSearchQuery_NormalizedPriceRange(t *testing.T) {
	tests := []struct {
		name     string
		min, max *float64
		wantMin  *float64
		wantMax  *float64
	}{
		{"open", nil, nil, nil, nil},
		{"valid", price(5), price(20), price(5), price(20)},
		{"negative bounds dropped", price(-5), price(-10), nil, nil},
		{"negative min dropped", price(-1), price(15), nil, price(15)},
		{"inverted range swapped", price(30), price(10), price(10), price(30)},
		{"zero kept", price(0), price(0), price(0), price(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := SearchQuery{Term: "tide", MinPrice: tt.min, MaxPrice: tt.max}.Normalized()
			assert.Equal(t, tt.wantMin, q.MinPrice)
			assert.Equal(t, tt.wantMax, q.MaxPrice)
		})
	}
}

func TestSearchQuery_SameSearch(t *testing.T) {
	a := SearchQuery{Term: "Tide", MinPrice: price(30), MaxPrice: price(10), Page: 1}
	b := SearchQuery{Term: "tide ", MinPrice: price(10), MaxPrice: price(30), Page: 3}

	assert.True(t, a.SameSearch(b))
	assert.False(t, a.SameSearch(SearchQuery{Term: "tide", Category: "baby"}))
	assert.False(t, a.SameSearch(SearchQuery{Term: "tide", MinPrice: price(10)}))
}
