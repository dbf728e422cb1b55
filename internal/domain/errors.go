package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrValidation marks malformed inputs; these are caller bugs, not user errors.
	ErrValidation = errors.New("validation error")

	// ErrInvalidDiscount is a validation error raised by the price engine.
	ErrInvalidDiscount = fmt.Errorf("%w: invalid discount", ErrValidation)

	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrStaleResponse      = errors.New("stale response")
	ErrTransport          = errors.New("transport error")
	ErrLineNotFound       = errors.New("cart line not found")
	ErrCheckoutInProgress = errors.New("checkout in progress")
	ErrEmptyCart          = fmt.Errorf("%w: cart is empty", ErrValidation)

	ErrProductNotFound       = errors.New("product not found")
	ErrProductCodeTaken      = errors.New("product with this code already exists")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category with this name already exists")
	ErrOrderNotFound         = errors.New("order not found")
)

// StockError describes a quantity request that the known stock cannot cover
type StockError struct {
	ProductID uuid.UUID
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}

// NewStockError builds a StockError
func NewStockError(productID uuid.UUID, requested, available int) *StockError {
	return &StockError{ProductID: productID, Requested: requested, Available: available}
}
