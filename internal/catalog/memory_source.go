package catalog

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"storefront/internal/domain"
)

// MemorySource serves listings from an in-memory product set. It backs
// listings computed from a fully loaded catalog and is safe for concurrent
// use.
type MemorySource struct {
	mu         sync.RWMutex
	products   []*domain.Product
	categories []*domain.Category
}

// NewMemorySource returns a source over the given records. Products that
// fail validation are dropped.
func NewMemorySource(products []*domain.Product, categories []*domain.Category) *MemorySource {
	s := &MemorySource{categories: slices.Clone(categories)}
	for _, p := range products {
		if p.Validate() == nil {
			s.products = append(s.products, p)
		}
	}
	return s
}

// Put inserts or replaces a product by ID
func (s *MemorySource) Put(p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.products {
		if existing.ID == p.ID {
			s.products[i] = p
			return nil
		}
	}
	s.products = append(s.products, p)
	return nil
}

// FetchProducts filters, orders and pages the product set
func (s *MemorySource) FetchProducts(ctx context.Context, q ProductQuery, page, pageSize int) (ProductPage, error) {
	if err := ctx.Err(); err != nil {
		return ProductPage{}, err
	}
	if err := ValidatePage(page, pageSize); err != nil {
		return ProductPage{}, err
	}

	s.mu.RLock()
	active := domain.NewActiveCategorySet(s.categories)
	matching := make([]*domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if Matches(p, q, active) {
			matching = append(matching, p)
		}
	}
	s.mu.RUnlock()

	SortProducts(matching, q.View)

	start := (page - 1) * pageSize
	if start > len(matching) {
		start = len(matching)
	}
	end := min(start+pageSize, len(matching))

	return ProductPage{Items: matching[start:end], Total: len(matching)}, nil
}

// FetchActiveCategories returns the active categories ordered by name
func (s *MemorySource) FetchActiveCategories(ctx context.Context) ([]*domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]*domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if c.Active {
			active = append(active, c)
		}
	}
	slices.SortFunc(active, func(a, b *domain.Category) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return active, nil
}
