package catalog

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/pricing"

	"github.com/shopspring/decimal"
)

// View selects the ordering and visibility rules of a listing
type View int

const (
	// StorefrontView lists purchasable-looking products, newest first
	StorefrontView View = iota
	// AdminView lists every product regardless of active flags, by code
	AdminView
)

func (v View) String() string {
	if v == AdminView {
		return "admin"
	}
	return "storefront"
}

// ProductQuery is what a product source needs to evaluate one page
type ProductQuery struct {
	Criteria FilterCriteria
	View     View
}

// ProductPage is one page of matching products plus the total match count
type ProductPage struct {
	Items []*domain.Product
	Total int
}

// ProductSource fetches pages of products. Implementations must apply the
// same predicate as Matches and the ordering of SortProducts.
type ProductSource interface {
	FetchProducts(ctx context.Context, q ProductQuery, page, pageSize int) (ProductPage, error)
}

// CategorySource lists the categories currently active
type CategorySource interface {
	FetchActiveCategories(ctx context.Context) ([]*domain.Category, error)
}

// Matches evaluates the listing predicate for one product. Products whose
// price cannot be computed never match.
func Matches(p *domain.Product, q ProductQuery, active domain.ActiveCategorySet) bool {
	if q.View == StorefrontView {
		if !p.Active || !active.Has(p.CategoryName) {
			return false
		}
	}

	c := q.Criteria
	if !c.HasCategory(p.CategoryName) {
		return false
	}
	if c.searchTerm != "" && !matchesSearch(p, c.searchTerm) {
		return false
	}
	if c.onlyOffers && !p.OnOffer() {
		return false
	}

	final, err := pricing.ProductPrice(p)
	if err != nil {
		return false
	}
	return c.priceRange.Contains(final)
}

func matchesSearch(p *domain.Product, term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) ||
		strings.Contains(strings.ToLower(p.Code), term)
}

// SortProducts orders products in place for the given view. Both orders are
// total: ties fall back to the product id.
func SortProducts(products []*domain.Product, view View) {
	slices.SortFunc(products, func(a, b *domain.Product) int {
		if view == AdminView {
			if c := cmp.Compare(a.Code, b.Code); c != 0 {
				return c
			}
		} else if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
}

// PriceBounds returns the lowest and highest final price over products,
// used to seed the default price range of a listing. ok is false when no
// product has a valid price.
func PriceBounds(products []*domain.Product) (low, high decimal.Decimal, ok bool) {
	for _, p := range products {
		final, err := pricing.ProductPrice(p)
		if err != nil {
			continue
		}
		if !ok {
			low, high, ok = final, final, true
			continue
		}
		low = decimal.Min(low, final)
		high = decimal.Max(high, final)
	}
	return low, high, ok
}
