package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultImageURL is used when a product is created without an image
const DefaultImageURL = "/images/placeholder.jpg"

// Product represents a product in the catalog
type Product struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	Code            string          `json:"code" db:"code"`
	Name            string          `json:"name" db:"name"`
	Description     string          `json:"description" db:"description"`
	Price           decimal.Decimal `json:"price" db:"price"`
	DiscountPercent int             `json:"discount_percent" db:"discount_percent"`
	Stock           int             `json:"stock" db:"stock"`
	Active          bool            `json:"active" db:"active"`
	CategoryName    string          `json:"category_name" db:"category_name"`
	ImageURL        string          `json:"image_url" db:"image_url"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// NewProductParams holds the caller-supplied attributes of a new product
type NewProductParams struct {
	Code            string
	Name            string
	Description     string
	Price           decimal.Decimal
	DiscountPercent int
	Stock           int
	Active          bool
	CategoryName    string
	ImageURL        string
}

// NewProduct builds a product with a fresh ID and timestamps, rejecting
// records that violate the catalog invariants.
func NewProduct(p NewProductParams) (*Product, error) {
	now := time.Now().UTC()
	imageURL := p.ImageURL
	if imageURL == "" {
		imageURL = DefaultImageURL
	}

	product := &Product{
		ID:              uuid.New(),
		Code:            strings.TrimSpace(p.Code),
		Name:            strings.TrimSpace(p.Name),
		Description:     p.Description,
		Price:           p.Price,
		DiscountPercent: p.DiscountPercent,
		Stock:           p.Stock,
		Active:          p.Active,
		CategoryName:    p.CategoryName,
		ImageURL:        imageURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := product.Validate(); err != nil {
		return nil, err
	}
	return product, nil
}

// Validate checks the invariants every product entering the
// filter, cart or checkout pipeline must satisfy.
func (p *Product) Validate() error {
	if p.Code == "" {
		return fmt.Errorf("%w: product code is required", ErrValidation)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: product name is required", ErrValidation)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must be non-negative, got %s", ErrValidation, p.Price)
	}
	if p.DiscountPercent < 0 || p.DiscountPercent > 100 {
		return fmt.Errorf("%w: discount must be within [0,100], got %d", ErrValidation, p.DiscountPercent)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock must be non-negative, got %d", ErrValidation, p.Stock)
	}
	return nil
}

// OnOffer reports whether the product currently carries a discount
func (p *Product) OnOffer() bool {
	return p.DiscountPercent > 0
}

// Purchasable reports whether the product can be added to a cart given
// whether its referenced category is active.
func (p *Product) Purchasable(categoryActive bool) bool {
	return p.Active && categoryActive && p.Stock > 0
}

// Category represents a product category. Products reference it by name.
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NewCategory builds an active category
func NewCategory(name, description string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrValidation)
	}
	return &Category{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// ActiveCategorySet indexes categories by name, keeping only active ones.
// A product whose category is missing from the set is treated as belonging
// to an inactive category.
type ActiveCategorySet map[string]struct{}

// NewActiveCategorySet builds the set from a category list
func NewActiveCategorySet(categories []*Category) ActiveCategorySet {
	set := make(ActiveCategorySet, len(categories))
	for _, c := range categories {
		if c != nil && c.Active {
			set[c.Name] = struct{}{}
		}
	}
	return set
}

// Has reports whether name refers to an active category
func (s ActiveCategorySet) Has(name string) bool {
	_, ok := s[name]
	return ok
}
