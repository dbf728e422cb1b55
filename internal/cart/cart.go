// Package cart implements the per-session shopping cart. A cart is owned by
// exactly one session, is persisted after every mutation and is never the
// authority on stock; checkout re-validates every line.
package cart

import (
	"slices"
	"time"

	"storefront/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is one product line of a cart, with the price quoted when it was
// last added.
type Item struct {
	ProductID       uuid.UUID       `json:"product_id"`
	Name            string          `json:"name"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	DiscountPercent int             `json:"discount_percent"`
	Quantity        int             `json:"quantity"`
	StockCeiling    int             `json:"stock_ceiling"`
	ImageURL        string          `json:"image_url,omitempty"`
}

// LineTotal is UnitPrice * Quantity
func (i Item) LineTotal() decimal.Decimal {
	return pricing.LineTotal(i.UnitPrice, i.Quantity)
}

// Snapshot is an immutable copy of a cart
type Snapshot struct {
	SessionID string    `json:"session_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy
func (s Snapshot) Clone() Snapshot {
	s.Items = slices.Clone(s.Items)
	return s
}

// IsEmpty reports whether the cart has no lines
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Line returns the line for productID
func (s Snapshot) Line(productID uuid.UUID) (Item, bool) {
	for _, item := range s.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return Item{}, false
}

// ItemCount is the total quantity over all lines
func (s Snapshot) ItemCount() int {
	n := 0
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}

// Subtotal is the sum of line totals at the quoted prices
func (s Snapshot) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// OriginalSubtotal is the sum of line totals before discounts
func (s Snapshot) OriginalSubtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(pricing.LineTotal(item.OriginalPrice, item.Quantity))
	}
	return total
}

// Savings is OriginalSubtotal - Subtotal
func (s Snapshot) Savings() decimal.Decimal {
	return s.OriginalSubtotal().Sub(s.Subtotal())
}
