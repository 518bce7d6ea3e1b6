package normalize

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/pkg/utils"
)

// PriceKind tags which payload shape a price was decoded from.
type PriceKind int

const (
	PriceMissing PriceKind = iota
	// PriceValue is Amazon's {"value": 12.99, ...} or a bare JSON number.
	PriceValue
	// PriceRaw is the {"raw": "$12.99"} shape.
	PriceRaw
	// PriceText is a plain string, as Walmart and Target send it.
	PriceText
)

func (k PriceKind) String() string {
	switch k {
	case PriceValue:
		return "value"
	case PriceRaw:
		return "raw"
	case PriceText:
		return "text"
	default:
		return "missing"
	}
}

// Price is decoded once at the payload boundary. UnmarshalJSON never
// fails: shapes it does not recognise decode as PriceMissing.
type Price struct {
	Kind  PriceKind
	Value float64
	Text  string
}

func ValuePrice(v float64) Price { return Price{Kind: PriceValue, Value: v} }

func TextPrice(s string) Price {
	s = strings.TrimSpace(s)
	if s == "" {
		return Price{}
	}
	return Price{Kind: PriceText, Text: s}
}

func (p *Price) UnmarshalJSON(b []byte) error {
	*p = decodePrice(b)
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PriceValue:
		return json.Marshal(map[string]float64{"value": p.Value})
	case PriceRaw:
		return json.Marshal(map[string]string{"raw": p.Text})
	case PriceText:
		return json.Marshal(p.Text)
	default:
		return []byte("null"), nil
	}
}

func decodePrice(b []byte) Price {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return Price{}
	}

	switch b[0] {
	case '{':
		var obj struct {
			Value *float64 `json:"value"`
			Raw   *string  `json:"raw"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			// e.g. {"value": "12.99"}; fall back to a loose read
			var loose map[string]any
			if json.Unmarshal(b, &loose) != nil {
				return Price{}
			}
			if s, ok := loose["value"].(string); ok {
				return TextPrice(s)
			}
			if s, ok := loose["raw"].(string); ok && strings.TrimSpace(s) != "" {
				return Price{Kind: PriceRaw, Text: strings.TrimSpace(s)}
			}
			return Price{}
		}
		if obj.Value != nil {
			return ValuePrice(*obj.Value)
		}
		if obj.Raw != nil && strings.TrimSpace(*obj.Raw) != "" {
			return Price{Kind: PriceRaw, Text: strings.TrimSpace(*obj.Raw)}
		}
		return Price{}
	case '"':
		var s string
		if json.Unmarshal(b, &s) != nil {
			return Price{}
		}
		return TextPrice(s)
	default:
		var v float64
		if json.Unmarshal(b, &v) != nil {
			return Price{}
		}
		return ValuePrice(v)
	}
}

// Amount returns the numeric dollar amount when one can be read.
func (p Price) Amount() (float64, bool) {
	switch p.Kind {
	case PriceValue:
		return p.Value, true
	case PriceRaw, PriceText:
		return utils.ParsePrice(p.Text)
	default:
		return 0, false
	}
}

// FormatPrice renders any price shape for display. It never fails; a
// price that cannot be shown yields "Price not available".
func FormatPrice(p Price) string {
	if p.Kind != PriceValue && strings.TrimSpace(p.Text) == "" {
		return models.PriceNotAvailable
	}
	switch p.Kind {
	case PriceValue:
		return utils.FormatUSD(p.Value)
	case PriceRaw:
		return p.Text
	case PriceText:
		if strings.ContainsAny(p.Text, "$€£¥₹") {
			return p.Text
		}
		if v, ok := utils.ParsePrice(p.Text); ok {
			return utils.FormatUSD(v)
		}
		return p.Text
	default:
		return models.PriceNotAvailable
	}
}
