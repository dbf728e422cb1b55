// Package pricing holds the discount and total arithmetic shared by the
// catalog, the cart and checkout. All functions are pure.
package pricing

import (
	"fmt"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places prices are rounded to
const Scale = 2

var hundred = decimal.NewFromInt(100)

// FinalPrice returns price * (1 - discountPercent/100) rounded to Scale
// places. A positive discount on a positive price always lowers it: when
// rounding would land back on the list price the result is truncated instead.
func FinalPrice(price decimal.Decimal, discountPercent int) (decimal.Decimal, error) {
	if err := check(price, discountPercent); err != nil {
		return decimal.Zero, err
	}
	if discountPercent == 0 {
		return price, nil
	}

	factor := hundred.Sub(decimal.NewFromInt(int64(discountPercent))).Div(hundred)
	exact := price.Mul(factor)
	if rounded := exact.Round(Scale); !rounded.Equal(price) || price.IsZero() {
		return rounded, nil
	}
	return exact.Truncate(Scale), nil
}

// Savings returns the amount taken off price by the discount
func Savings(price decimal.Decimal, discountPercent int) (decimal.Decimal, error) {
	final, err := FinalPrice(price, discountPercent)
	if err != nil {
		return decimal.Zero, err
	}
	return price.Sub(final), nil
}

// ProductPrice is FinalPrice applied to a product record
func ProductPrice(p *domain.Product) (decimal.Decimal, error) {
	return FinalPrice(p.Price, p.DiscountPercent)
}

// LineTotal returns unitPrice * quantity
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Tax returns amount * rate rounded to Scale places
func Tax(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(Scale)
}

func check(price decimal.Decimal, discountPercent int) error {
	if discountPercent < 0 || discountPercent > 100 {
		return fmt.Errorf("%w: discount %d outside [0,100]", domain.ErrInvalidDiscount, discountPercent)
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: negative price %s", domain.ErrInvalidDiscount, price)
	}
	return nil
}
