package service

import (
	"context"

	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartService defines the interface for the per-session cart and its checkout
type CartService interface {
	Cart(ctx context.Context, sessionID string) cart.Snapshot
	AddItem(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (cart.Snapshot, error)
	SetQuantity(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (cart.Snapshot, error)
	RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (cart.Snapshot, error)
	Clear(ctx context.Context, sessionID string) (cart.Snapshot, error)
	Checkout(ctx context.Context, sessionID string) (checkout.Result, error)
	Receipt(ctx context.Context, sessionID string, orderID uuid.UUID) (*checkout.Receipt, error)
}

type cartService struct {
	sessions   *cart.Sessions
	catalog    CatalogService
	reconciler *checkout.Reconciler
	orders     repository.OrderRepository
	logger     *zap.Logger
}

// NewCartService creates a new instance of CartService
func NewCartService(
	sessions *cart.Sessions,
	catalog CatalogService,
	reconciler *checkout.Reconciler,
	orders repository.OrderRepository,
	logger *zap.Logger,
) CartService {
	return &cartService{
		sessions:   sessions,
		catalog:    catalog,
		reconciler: reconciler,
		orders:     orders,
		logger:     logger.Named("cart_service"),
	}
}

func (s *cartService) Cart(ctx context.Context, sessionID string) cart.Snapshot {
	return s.sessions.Get(ctx, sessionID).Snapshot()
}

// AddItem prices the product as currently listed and adds it to the cart
func (s *cartService) AddItem(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (cart.Snapshot, error) {
	m := s.sessions.Get(ctx, sessionID)

	product, err := s.catalog.PurchasableProduct(ctx, productID)
	if err != nil {
		return m.Snapshot(), err
	}
	return m.AddItem(ctx, product, qty)
}

func (s *cartService) SetQuantity(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (cart.Snapshot, error) {
	return s.sessions.Get(ctx, sessionID).SetQuantity(ctx, productID, qty)
}

func (s *cartService) RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (cart.Snapshot, error) {
	return s.sessions.Get(ctx, sessionID).RemoveItem(ctx, productID)
}

func (s *cartService) Clear(ctx context.Context, sessionID string) (cart.Snapshot, error) {
	return s.sessions.Get(ctx, sessionID).Clear(ctx)
}

func (s *cartService) Checkout(ctx context.Context, sessionID string) (checkout.Result, error) {
	return s.reconciler.Checkout(ctx, s.sessions.Get(ctx, sessionID))
}

// Receipt returns a stored receipt. Orders of other sessions are reported as
// not found.
func (s *cartService) Receipt(ctx context.Context, sessionID string, orderID uuid.UUID) (*checkout.Receipt, error) {
	receipt, err := s.orders.FindReceipt(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if receipt.SessionID != sessionID {
		s.logger.Warn("Receipt requested by another session",
			zap.String("order_id", orderID.String()),
			zap.String("session_id", sessionID),
		)
		return nil, domain.ErrOrderNotFound
	}
	return receipt, nil
}
