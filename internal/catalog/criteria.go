package catalog

import (
	"fmt"
	"slices"
	"strings"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// PriceRange bounds the post-discount price. An invalid Max means unbounded.
type PriceRange struct {
	Min decimal.Decimal
	Max decimal.NullDecimal
}

// NewPriceRange returns a range bounded on both sides
func NewPriceRange(min, max decimal.Decimal) PriceRange {
	return PriceRange{Min: min, Max: decimal.NewNullDecimal(max)}
}

// Contains reports whether price lies within the range, bounds inclusive
func (r PriceRange) Contains(price decimal.Decimal) bool {
	if price.LessThan(r.Min) {
		return false
	}
	if r.Max.Valid && price.GreaterThan(r.Max.Decimal) {
		return false
	}
	return true
}

func (r PriceRange) equal(o PriceRange) bool {
	if !r.Min.Equal(o.Min) || r.Max.Valid != o.Max.Valid {
		return false
	}
	return !r.Max.Valid || r.Max.Decimal.Equal(o.Max.Decimal)
}

// FilterCriteria is an immutable set of storefront filters. A new value is
// built on every filter change and compared with Equal to decide whether
// pagination must restart.
type FilterCriteria struct {
	searchTerm string
	categories []string
	onlyOffers bool
	priceRange PriceRange
}

// CriteriaParams holds raw filter inputs
type CriteriaParams struct {
	SearchTerm string
	Categories []string
	OnlyOffers bool
	PriceRange PriceRange
}

// NewFilterCriteria validates and normalizes filter inputs. The category
// set is deduplicated and sorted so equal selections compare equal.
func NewFilterCriteria(p CriteriaParams) (FilterCriteria, error) {
	if p.PriceRange.Min.IsNegative() {
		return FilterCriteria{}, fmt.Errorf("%w: price range minimum is negative", domain.ErrValidation)
	}
	if p.PriceRange.Max.Valid {
		if p.PriceRange.Max.Decimal.IsNegative() {
			return FilterCriteria{}, fmt.Errorf("%w: price range maximum is negative", domain.ErrValidation)
		}
		if p.PriceRange.Max.Decimal.LessThan(p.PriceRange.Min) {
			return FilterCriteria{}, fmt.Errorf("%w: price range minimum exceeds maximum", domain.ErrValidation)
		}
	}

	categories := make([]string, 0, len(p.Categories))
	for _, name := range p.Categories {
		if name = strings.TrimSpace(name); name != "" {
			categories = append(categories, name)
		}
	}
	slices.Sort(categories)
	categories = slices.Compact(categories)

	return FilterCriteria{
		searchTerm: strings.TrimSpace(p.SearchTerm),
		categories: categories,
		onlyOffers: p.OnlyOffers,
		priceRange: p.PriceRange,
	}, nil
}

// MustFilterCriteria is NewFilterCriteria for inputs known to be valid
func MustFilterCriteria(p CriteriaParams) FilterCriteria {
	c, err := NewFilterCriteria(p)
	if err != nil {
		panic(err)
	}
	return c
}

func (c FilterCriteria) SearchTerm() string     { return c.searchTerm }
func (c FilterCriteria) OnlyOffers() bool       { return c.onlyOffers }
func (c FilterCriteria) PriceRange() PriceRange { return c.priceRange }

// Categories returns a copy of the selected category names, sorted
func (c FilterCriteria) Categories() []string {
	return slices.Clone(c.categories)
}

// HasCategory reports whether name is selected, or true when nothing is selected
func (c FilterCriteria) HasCategory(name string) bool {
	if len(c.categories) == 0 {
		return true
	}
	_, found := slices.BinarySearch(c.categories, name)
	return found
}

// Equal reports whether both values describe the same filters
func (c FilterCriteria) Equal(o FilterCriteria) bool {
	return c.searchTerm == o.searchTerm &&
		c.onlyOffers == o.onlyOffers &&
		slices.Equal(c.categories, o.categories) &&
		c.priceRange.equal(o.priceRange)
}

func (c FilterCriteria) String() string {
	upper := "inf"
	if c.priceRange.Max.Valid {
		upper = c.priceRange.Max.Decimal.String()
	}
	return fmt.Sprintf("search=%q categories=%v offers=%t price=[%s,%s]",
		c.searchTerm, c.categories, c.onlyOffers, c.priceRange.Min, upper)
}
