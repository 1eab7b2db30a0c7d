package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups catalog products. ParentID is empty for top-level categories.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID string `json:"parentId,omitempty"`
}

// Product is a catalog entry.
type Product struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Price        decimal.Decimal     `json:"price"`
	ImageURL     string              `json:"imageUrl,omitempty"`
	CategoryID   string              `json:"categoryId"`
	CategoryName string              `json:"categoryName,omitempty"`
	Stock        int                 `json:"stock"`
	Features     []string            `json:"features,omitempty"`
	Attributes   map[string][]string `json:"attributes,omitempty"`
	Brand        string              `json:"brand,omitempty"`
	SKU          string              `json:"sku,omitempty"`
	DateAdded    time.Time           `json:"dateAdded"`
}

// Attribute returns the first value of a named attribute.
func (p Product) Attribute(name string) (string, bool) {
	vals, ok := p.Attributes[name]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// CartLine is a product plus the quantity held in the cart.
// The embedded product keeps the fields flat in the persisted JSON.
type CartLine struct {
	Product
	Quantity int `json:"quantity"`
}

// Subtotal is price times quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
