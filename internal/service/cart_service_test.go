package service

import (
	"context"
	"testing"

	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type cartFixture struct {
	catalogFixture
	service CartService
	orders  *mockOrderRepository
}

func newCartFixture(t *testing.T) cartFixture {
	t.Helper()
	cf := newCatalogFixture(t)
	orders := newMockOrderRepository()
	reconciler := checkout.NewReconciler(cf.products, orders, checkout.Config{Concurrency: 2}, zap.NewNop())
	sessions := cart.NewSessions(cart.NewMemoryPersistence(), zap.NewNop())

	return cartFixture{
		catalogFixture: cf,
		service:        NewCartService(sessions, cf.service, reconciler, orders, zap.NewNop()),
		orders:         orders,
	}
}

func TestAddItemUsesListedProduct(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	f.category(t, "Home")
	p := f.product(t, "H-1", "Home", 100, 25, 3)

	snapshot, err := f.service.AddItem(ctx, "session-a", p.ID, 2)
	require.NoError(t, err)
	require.Len(t, snapshot.Items, 1)
	assert.True(t, decimal.NewFromInt(75).Equal(snapshot.Items[0].UnitPrice))
	assert.Equal(t, 3, snapshot.Items[0].StockCeiling)

	_, err = f.service.AddItem(ctx, "session-a", p.ID, 2)
	var stockErr *domain.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 4, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)

	_, err = f.service.AddItem(ctx, "session-a", uuid.New(), 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Equal(t, 2, f.service.Cart(ctx, "session-a").ItemCount())
}

func TestCartsAreIsolatedPerSession(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	f.category(t, "Home")
	p := f.product(t, "H-1", "Home", 10, 0, 5)

	_, err := f.service.AddItem(ctx, "session-a", p.ID, 1)
	require.NoError(t, err)

	assert.True(t, f.service.Cart(ctx, "session-b").IsEmpty())
	assert.False(t, f.service.Cart(ctx, "session-a").IsEmpty())
}

func TestCheckoutStoresReceiptForSession(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	f.category(t, "Home")
	p := f.product(t, "H-1", "Home", 10, 0, 5)

	_, err := f.service.AddItem(ctx, "session-a", p.ID, 2)
	require.NoError(t, err)

	result, err := f.service.Checkout(ctx, "session-a")
	require.NoError(t, err)
	assert.Equal(t, checkout.Completed, result.Overall)
	require.NotNil(t, result.Receipt)
	assert.True(t, result.Cart.IsEmpty())

	receipt, err := f.service.Receipt(ctx, "session-a", result.Receipt.OrderID)
	require.NoError(t, err)
	assert.Equal(t, result.Receipt.Total, receipt.Total)

	_, err = f.service.Receipt(ctx, "session-b", result.Receipt.OrderID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	stored, err := f.products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Stock)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.service.Checkout(context.Background(), "session-a")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestCartLineOperations(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	f.category(t, "Home")
	a := f.product(t, "H-1", "Home", 10, 0, 5)
	b := f.product(t, "H-2", "Home", 20, 0, 5)

	_, err := f.service.AddItem(ctx, "s", a.ID, 1)
	require.NoError(t, err)
	_, err = f.service.AddItem(ctx, "s", b.ID, 1)
	require.NoError(t, err)

	snapshot, err := f.service.SetQuantity(ctx, "s", a.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, snapshot.ItemCount())

	snapshot, err = f.service.RemoveItem(ctx, "s", b.ID)
	require.NoError(t, err)
	assert.Len(t, snapshot.Items, 1)

	snapshot, err = f.service.Clear(ctx, "s")
	require.NoError(t, err)
	assert.True(t, snapshot.IsEmpty())
}
