package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/internal/cart"
	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errUnreachable = errors.New("connection refused")

// memoryStock is an in-process stock authority with an atomic decrement
type memoryStock struct {
	mu      sync.Mutex
	stock   map[uuid.UUID]int
	failing map[uuid.UUID]bool
	calls   int
}

func newMemoryStock() *memoryStock {
	return &memoryStock{stock: make(map[uuid.UUID]int), failing: make(map[uuid.UUID]bool)}
}

func (s *memoryStock) CommitDecrement(ctx context.Context, productID uuid.UUID, qty int) (CommitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if s.failing[productID] {
		return CommitResult{Committed: true}, errUnreachable
	}
	current, ok := s.stock[productID]
	if !ok {
		return CommitResult{}, domain.ErrProductNotFound
	}
	if current < qty {
		remaining := current
		return CommitResult{Committed: false, RemainingStock: &remaining}, nil
	}
	current -= qty
	s.stock[productID] = current
	remaining := current
	return CommitResult{Committed: true, RemainingStock: &remaining}, nil
}

func (s *memoryStock) level(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock[id]
}

// recordingSink remembers confirmed results
type recordingSink struct {
	mu      sync.Mutex
	results []Result
	err     error
}

func (s *recordingSink) Confirm(ctx context.Context, result Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

func testProduct(name string, price int64, discount, stock int) *domain.Product {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Product{
		ID:              uuid.New(),
		Code:            "C-" + name,
		Name:            name,
		Price:           decimal.NewFromInt(price),
		DiscountPercent: discount,
		Stock:           stock,
		Active:          true,
		CategoryName:    "General",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// cartWith builds a cart holding qty units of each product, using the
// product's Stock as the cart-side ceiling
func cartWith(t *testing.T, sessionID string, lines map[*domain.Product]int, order ...*domain.Product) *cart.Manager {
	t.Helper()
	m := cart.NewManager(sessionID, cart.NewMemoryPersistence(), zap.NewNop())
	for _, p := range order {
		_, err := m.AddItem(context.Background(), p, lines[p])
		require.NoError(t, err)
	}
	return m
}

func newTestReconciler(committer StockCommitter, sink ConfirmationSink) *Reconciler {
	return NewReconciler(committer, sink, Config{Concurrency: 4}, zap.NewNop())
}
