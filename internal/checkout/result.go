// Package checkout reconciles a frozen cart against authoritative stock.
// Every line is committed independently; the attempt as a whole is
// Completed, PartiallyFailed or Failed depending on how many lines made it.
package checkout

import (
	"time"

	"storefront/internal/cart"
	"storefront/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Outcome of a single line commit
type Outcome string

const (
	OutcomeCommitted         Outcome = "committed"
	OutcomeInsufficientStock Outcome = "insufficient_stock"
	OutcomeError             Outcome = "error"
)

// Overall outcome of a checkout attempt
type Overall string

const (
	Completed       Overall = "completed"
	PartiallyFailed Overall = "partially_failed"
	Failed          Overall = "failed"
)

// LineResult is the outcome of committing one cart line
type LineResult struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	RequestedQty   int       `json:"requested_qty"`
	Outcome        Outcome   `json:"outcome"`
	RemainingStock *int      `json:"remaining_stock,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// ReceiptLine is a committed line at the price quoted in the cart
type ReceiptLine struct {
	ProductID       uuid.UUID       `json:"product_id"`
	Name            string          `json:"name"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	DiscountPercent int             `json:"discount_percent"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// Receipt summarizes the committed part of a checkout
type Receipt struct {
	OrderID          uuid.UUID       `json:"order_id"`
	SessionID        string          `json:"session_id"`
	CreatedAt        time.Time       `json:"created_at"`
	Lines            []ReceiptLine   `json:"lines"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	OriginalSubtotal decimal.Decimal `json:"original_subtotal"`
	Savings          decimal.Decimal `json:"savings"`
	TaxRate          decimal.Decimal `json:"tax_rate"`
	Tax              decimal.Decimal `json:"tax"`
	Total            decimal.Decimal `json:"total"`
}

// Result of one checkout attempt. Cart is the cart as left after the attempt.
type Result struct {
	SessionID string        `json:"session_id"`
	Overall   Overall       `json:"overall"`
	Lines     []LineResult  `json:"lines"`
	Receipt   *Receipt      `json:"receipt,omitempty"`
	Cart      cart.Snapshot `json:"cart"`
}

// Committed returns the lines that were committed
func (r Result) Committed() []LineResult {
	return r.filter(func(l LineResult) bool { return l.Outcome == OutcomeCommitted })
}

// Unresolved returns the lines that were not committed
func (r Result) Unresolved() []LineResult {
	return r.filter(func(l LineResult) bool { return l.Outcome != OutcomeCommitted })
}

func (r Result) filter(keep func(LineResult) bool) []LineResult {
	var out []LineResult
	for _, l := range r.Lines {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}

// Aggregate folds per-line outcomes into the attempt outcome
func Aggregate(lines []LineResult) Overall {
	committed := 0
	for _, l := range lines {
		if l.Outcome == OutcomeCommitted {
			committed++
		}
	}
	switch {
	case len(lines) > 0 && committed == len(lines):
		return Completed
	case committed > 0:
		return PartiallyFailed
	default:
		return Failed
	}
}

// NewReceipt prices the committed lines of snapshot. Lines are taken in cart
// order at the unit price quoted in the cart.
func NewReceipt(orderID uuid.UUID, snapshot cart.Snapshot, lines []LineResult, taxRate decimal.Decimal, now time.Time) *Receipt {
	committed := make(map[uuid.UUID]struct{}, len(lines))
	for _, l := range lines {
		if l.Outcome == OutcomeCommitted {
			committed[l.ProductID] = struct{}{}
		}
	}

	receipt := &Receipt{
		OrderID:          orderID,
		SessionID:        snapshot.SessionID,
		CreatedAt:        now,
		Subtotal:         decimal.Zero,
		OriginalSubtotal: decimal.Zero,
		TaxRate:          taxRate,
	}

	for _, item := range snapshot.Items {
		if _, ok := committed[item.ProductID]; !ok {
			continue
		}
		lineTotal := item.LineTotal()
		receipt.Lines = append(receipt.Lines, ReceiptLine{
			ProductID:       item.ProductID,
			Name:            item.Name,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			OriginalPrice:   item.OriginalPrice,
			DiscountPercent: item.DiscountPercent,
			LineTotal:       lineTotal,
		})
		receipt.Subtotal = receipt.Subtotal.Add(lineTotal)
		receipt.OriginalSubtotal = receipt.OriginalSubtotal.Add(pricing.LineTotal(item.OriginalPrice, item.Quantity))
	}

	receipt.Savings = receipt.OriginalSubtotal.Sub(receipt.Subtotal)
	receipt.Tax = pricing.Tax(receipt.Subtotal, taxRate)
	receipt.Total = receipt.Subtotal.Add(receipt.Tax)
	return receipt
}
