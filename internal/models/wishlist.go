package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ListID identifies a needs list. The API serves ids as numbers but some
// older clients send them as strings, so decoding accepts both.
type ListID int64

func (id *ListID) UnmarshalJSON(b []byte) error {
	var n int64
	if err := json.Unmarshal(b, &n); err == nil {
		*id = ListID(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("list id: %w", err)
	}
	if s == "" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("list id %q: %w", s, err)
	}
	*id = ListID(n)
	return nil
}

func (id ListID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// TargetList is the summary of a user's needs list.
type TargetList struct {
	ID          ListID `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ItemCount   int    `json:"itemCount"`
}

type ListItem struct {
	ID         int64     `json:"id"`
	WishlistID ListID    `json:"wishlistId"`
	Title      string    `json:"title"`
	Price      string    `json:"price,omitempty"`
	Currency   string    `json:"currency,omitempty"`
	ProductURL string    `json:"productUrl,omitempty"`
	Retailer   string    `json:"retailer,omitempty"`
	Category   string    `json:"category,omitempty"`
	Quantity   int       `json:"quantity"`
	Priority   int       `json:"priority"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
}

type Wishlist struct {
	TargetList
	Items []ListItem `json:"items"`
}

// ListItemRequest is the body of POST /api/wishlists/:id/items.
type ListItemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	ProductURL  string `json:"productUrl"`
	Retailer    string `json:"retailer"`
	Category    string `json:"category"`
	Quantity    int    `json:"quantity"`
	Priority    int    `json:"priority"`
}
