package cart

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/metrics"
	"storefront/internal/pricing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager owns the cart of one session. Every mutation either succeeds and
// is followed by a save, or fails and leaves the cart exactly as it was.
// A failed save is logged but does not undo the mutation.
type Manager struct {
	sessionID   string
	persistence Persistence
	logger      *zap.Logger

	mu         sync.Mutex
	items      []Item
	updatedAt  time.Time
	processing bool
}

// NewManager creates an empty cart for sessionID
func NewManager(sessionID string, persistence Persistence, logger *zap.Logger) *Manager {
	return &Manager{
		sessionID:   sessionID,
		persistence: persistence,
		logger:      logger.Named("cart").With(zap.String("session_id", sessionID)),
	}
}

// Open rehydrates the stored cart of sessionID. A cart that cannot be
// loaded starts empty.
func Open(ctx context.Context, sessionID string, persistence Persistence, logger *zap.Logger) *Manager {
	m := NewManager(sessionID, persistence, logger)

	snapshot, found, err := persistence.Load(ctx, sessionID)
	if err != nil {
		m.logger.Warn("Failed to load stored cart, starting empty", zap.Error(err))
		return m
	}
	if found {
		m.items = slices.Clone(snapshot.Items)
		m.updatedAt = snapshot.UpdatedAt
	}
	return m
}

// SessionID returns the owning session
func (m *Manager) SessionID() string {
	return m.sessionID
}

// Snapshot returns a copy of the cart
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Processing reports whether a checkout is running against this cart
func (m *Manager) Processing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processing
}

// AddItem adds qty units of product. An existing line grows by qty and is
// re-priced at the product's current discounted price; the previous quote
// is not averaged in. The cumulative quantity may not exceed product.Stock.
func (m *Manager) AddItem(ctx context.Context, product *domain.Product, qty int) (Snapshot, error) {
	if qty < 1 {
		return m.Snapshot(), fmt.Errorf("%w: quantity must be at least 1, got %d", domain.ErrValidation, qty)
	}
	if err := product.Validate(); err != nil {
		return m.Snapshot(), err
	}
	if !product.Active {
		return m.Snapshot(), fmt.Errorf("%w: product %s is not available", domain.ErrValidation, product.ID)
	}

	unitPrice, err := pricing.ProductPrice(product)
	if err != nil {
		return m.Snapshot(), err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.processing {
		return m.snapshotLocked(), domain.ErrCheckoutInProgress
	}

	idx := m.indexLocked(product.ID)
	existing := 0
	if idx >= 0 {
		existing = m.items[idx].Quantity
	}
	if qty > product.Stock || existing+qty > product.Stock {
		return m.snapshotLocked(), domain.NewStockError(product.ID, existing+qty, product.Stock)
	}

	items := slices.Clone(m.items)
	if idx >= 0 {
		line := items[idx]
		line.Quantity += qty
		line.UnitPrice = unitPrice
		line.OriginalPrice = product.Price
		line.DiscountPercent = product.DiscountPercent
		line.StockCeiling = product.Stock
		items[idx] = line
	} else {
		items = append(items, Item{
			ProductID:       product.ID,
			Name:            product.Name,
			UnitPrice:       unitPrice,
			OriginalPrice:   product.Price,
			DiscountPercent: product.DiscountPercent,
			Quantity:        qty,
			StockCeiling:    product.Stock,
			ImageURL:        product.ImageURL,
		})
	}

	return m.commitLocked(ctx, items), nil
}

// SetQuantity replaces the quantity of an existing line. Quantities below 1
// are rejected; callers remove the line instead.
func (m *Manager) SetQuantity(ctx context.Context, productID uuid.UUID, qty int) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.processing {
		return m.snapshotLocked(), domain.ErrCheckoutInProgress
	}

	idx := m.indexLocked(productID)
	if idx < 0 {
		return m.snapshotLocked(), fmt.Errorf("%w: %s", domain.ErrLineNotFound, productID)
	}
	if qty < 1 {
		return m.snapshotLocked(), fmt.Errorf("%w: quantity must be at least 1, got %d", domain.ErrValidation, qty)
	}
	if qty > m.items[idx].StockCeiling {
		return m.snapshotLocked(), domain.NewStockError(productID, qty, m.items[idx].StockCeiling)
	}

	items := slices.Clone(m.items)
	items[idx].Quantity = qty
	return m.commitLocked(ctx, items), nil
}

// RemoveItem drops the line for productID; a missing line is a no-op
func (m *Manager) RemoveItem(ctx context.Context, productID uuid.UUID) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.processing {
		return m.snapshotLocked(), domain.ErrCheckoutInProgress
	}

	idx := m.indexLocked(productID)
	if idx < 0 {
		return m.snapshotLocked(), nil
	}
	return m.commitLocked(ctx, slices.Delete(slices.Clone(m.items), idx, idx+1)), nil
}

// Clear empties the cart
func (m *Manager) Clear(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.processing {
		return m.snapshotLocked(), domain.ErrCheckoutInProgress
	}
	return m.commitLocked(ctx, nil), nil
}

// BeginCheckout freezes the cart and returns the snapshot to reconcile.
// Mutations fail with ErrCheckoutInProgress until EndCheckout.
func (m *Manager) BeginCheckout() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.processing {
		return Snapshot{}, domain.ErrCheckoutInProgress
	}
	if len(m.items) == 0 {
		return Snapshot{}, domain.ErrEmptyCart
	}

	m.processing = true
	return m.snapshotLocked(), nil
}

// EndCheckout unfreezes the cart keeping only the lines whose product ids
// are listed in unresolved, unmodified and in their original order.
func (m *Manager) EndCheckout(ctx context.Context, unresolved []uuid.UUID) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.processing = false

	keep := make(map[uuid.UUID]struct{}, len(unresolved))
	for _, id := range unresolved {
		keep[id] = struct{}{}
	}

	items := make([]Item, 0, len(unresolved))
	for _, item := range m.items {
		if _, ok := keep[item.ProductID]; ok {
			items = append(items, item)
		}
	}
	if len(items) == len(m.items) {
		return m.snapshotLocked()
	}
	return m.commitLocked(ctx, items)
}

func (m *Manager) indexLocked(productID uuid.UUID) int {
	return slices.IndexFunc(m.items, func(item Item) bool {
		return item.ProductID == productID
	})
}

func (m *Manager) commitLocked(ctx context.Context, items []Item) Snapshot {
	m.items = items
	m.updatedAt = time.Now().UTC()
	snapshot := m.snapshotLocked()

	if err := m.persistence.Save(ctx, snapshot); err != nil {
		metrics.CartPersistFailed()
		m.logger.Warn("Failed to persist cart", zap.Error(err))
	}
	return snapshot
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID: m.sessionID,
		Items:     slices.Clone(m.items),
		UpdatedAt: m.updatedAt,
	}
}
