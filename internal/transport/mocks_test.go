package transport

import (
	"context"
	"sync"

	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/domain"

	"github.com/google/uuid"
)

// Mock repositories for testing
type mockProductRepository struct {
	mu         sync.Mutex
	products   map[uuid.UUID]*domain.Product
	categories *mockCategoryRepository
}

func newMockProductRepository(categories *mockCategoryRepository) *mockProductRepository {
	return &mockProductRepository{
		products:   make(map[uuid.UUID]*domain.Product),
		categories: categories,
	}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Code == product.Code {
			return domain.ErrProductCodeTaken
		}
	}
	copied := *product
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.products[product.ID]
	if !ok {
		return domain.ErrProductNotFound
	}
	copied := *product
	copied.Code = existing.Code
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockProductRepository) FindByCode(ctx context.Context, code string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Code == code {
			copied := *p
			return &copied, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (m *mockProductRepository) FetchProducts(ctx context.Context, q catalog.ProductQuery, page, pageSize int) (catalog.ProductPage, error) {
	m.mu.Lock()
	all := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		all = append(all, p)
	}
	m.mu.Unlock()

	categories, _ := m.categories.List(ctx)
	return catalog.NewMemorySource(all, categories).FetchProducts(ctx, q, page, pageSize)
}

func (m *mockProductRepository) CommitDecrement(ctx context.Context, productID uuid.UUID, qty int) (checkout.CommitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return checkout.CommitResult{}, domain.ErrProductNotFound
	}
	if p.Stock < qty {
		remaining := p.Stock
		return checkout.CommitResult{RemainingStock: &remaining}, nil
	}
	p.Stock -= qty
	remaining := p.Stock
	return checkout.CommitResult{Committed: true, RemainingStock: &remaining}, nil
}

type mockCategoryRepository struct {
	mu         sync.Mutex
	categories map[string]*domain.Category
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[string]*domain.Category)}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.categories[category.Name]; exists {
		return domain.ErrCategoryAlreadyExists
	}
	copied := *category
	m.categories[category.Name] = &copied
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Category, 0, len(m.categories))
	for _, c := range m.categories {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockCategoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[name]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *mockCategoryRepository) SetActive(ctx context.Context, name string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[name]
	if !ok {
		return domain.ErrCategoryNotFound
	}
	c.Active = active
	return nil
}

func (m *mockCategoryRepository) FetchActiveCategories(ctx context.Context) ([]*domain.Category, error) {
	all, _ := m.List(ctx)
	return catalog.NewMemorySource(nil, all).FetchActiveCategories(ctx)
}

type mockOrderRepository struct {
	mu       sync.Mutex
	receipts map[uuid.UUID]*checkout.Receipt
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{receipts: make(map[uuid.UUID]*checkout.Receipt)}
}

func (m *mockOrderRepository) Confirm(ctx context.Context, result checkout.Result) error {
	if result.Receipt == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts[result.Receipt.OrderID] = result.Receipt
	return nil
}

func (m *mockOrderRepository) FindReceipt(ctx context.Context, orderID uuid.UUID) (*checkout.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.receipts[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return r, nil
}
