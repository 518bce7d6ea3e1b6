package normalize

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/pkg/utils"
)

// FlexString accepts a JSON string or number (Walmart sends numeric
// product ids, Amazon sends strings).
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if json.Unmarshal(b, &v) != nil {
			*s = ""
			return nil
		}
		*s = FlexString(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if json.Unmarshal(b, &n) != nil {
		*s = ""
		return nil
	}
	*s = FlexString(n.String())
	return nil
}

// FlexFloat accepts a number or a string such as "4.5 out of 5 stars".
type FlexFloat struct {
	Value float64
	Valid bool
}

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	*f = FlexFloat{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if json.Unmarshal(b, &s) != nil {
			return nil
		}
		if v, ok := utils.ParseRating(s); ok {
			*f = FlexFloat{Value: v, Valid: true}
		}
		return nil
	}
	var v float64
	if json.Unmarshal(b, &v) == nil {
		*f = FlexFloat{Value: v, Valid: true}
	}
	return nil
}

// FlexInt accepts a number or a string such as "1,204 ratings".
type FlexInt struct {
	Value int
	Valid bool
}

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	*n = FlexInt{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if json.Unmarshal(b, &s) != nil {
			return nil
		}
		if v, ok := utils.ParseCount(s); ok {
			*n = FlexInt{Value: v, Valid: true}
		}
		return nil
	}
	var f float64
	if json.Unmarshal(b, &f) == nil {
		*n = FlexInt{Value: int(f), Valid: true}
	}
	return nil
}

// Image is Rainforest-style {"link": "..."}.
type Image struct {
	Link string `json:"link"`
}

// FlexImage accepts either a URL string or an {"link": ...} object.
type FlexImage string

func (i *FlexImage) UnmarshalJSON(b []byte) error {
	*i = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if json.Unmarshal(b, &s) == nil {
			*i = FlexImage(strings.TrimSpace(s))
		}
	case '{':
		var img Image
		if json.Unmarshal(b, &img) == nil {
			*i = FlexImage(strings.TrimSpace(img.Link))
		}
	}
	return nil
}

func (f FlexFloat) ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

func (n FlexInt) ptr() *int {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}
