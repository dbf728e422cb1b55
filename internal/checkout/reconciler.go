package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CommitResult is what the stock authority reports for one decrement.
// RemainingStock is set when the authority knows it.
type CommitResult struct {
	Committed      bool `json:"committed"`
	RemainingStock *int `json:"remaining_stock,omitempty"`
}

// StockCommitter atomically re-validates and decrements stock for one
// product. A returned error means the outcome is unknown and the line must
// not be treated as committed.
type StockCommitter interface {
	CommitDecrement(ctx context.Context, productID uuid.UUID, qty int) (CommitResult, error)
}

// ConfirmationSink receives the result of every attempt that committed at
// least one line
type ConfirmationSink interface {
	Confirm(ctx context.Context, result Result) error
}

// DefaultTaxRate applied to receipts
var DefaultTaxRate = decimal.RequireFromString("0.18")

// Config tunes a Reconciler
type Config struct {
	// Concurrency bounds the number of in-flight line commits; <= 0 means unbounded.
	Concurrency int
	// PaymentDelay simulates the payment step before stock is committed.
	PaymentDelay time.Duration
	TaxRate      decimal.Decimal
}

// Reconciler drains frozen carts against a StockCommitter
type Reconciler struct {
	committer StockCommitter
	sink      ConfirmationSink
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewReconciler creates a Reconciler. sink may be nil.
func NewReconciler(committer StockCommitter, sink ConfirmationSink, cfg Config, logger *zap.Logger) *Reconciler {
	if cfg.TaxRate.IsZero() {
		cfg.TaxRate = DefaultTaxRate
	}
	return &Reconciler{
		committer: committer,
		sink:      sink,
		cfg:       cfg,
		logger:    logger.Named("checkout"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Checkout runs one attempt on the cart held by m. The cart is frozen for
// the duration; afterwards it holds exactly the lines that were not
// committed. An error is returned only when the attempt could not start
// (empty cart, checkout already running) or was cancelled before any line
// was sent, in which case the cart is unchanged.
func (r *Reconciler) Checkout(ctx context.Context, m *cart.Manager) (Result, error) {
	snapshot, err := m.BeginCheckout()
	if err != nil {
		return Result{}, err
	}

	started := time.Now()
	logger := r.logger.With(zap.String("session_id", snapshot.SessionID))

	if err := r.pay(ctx); err != nil {
		m.EndCheckout(ctx, productIDs(snapshot.Items))
		logger.Info("Checkout cancelled before commit", zap.Error(err))
		return Result{}, fmt.Errorf("checkout cancelled: %w", err)
	}

	lines := r.Reconcile(ctx, snapshot)

	result := Result{
		SessionID: snapshot.SessionID,
		Overall:   Aggregate(lines),
		Lines:     lines,
	}

	var unresolved []uuid.UUID
	for _, l := range result.Unresolved() {
		unresolved = append(unresolved, l.ProductID)
	}
	// the cart must be released even if the request context is gone
	result.Cart = m.EndCheckout(context.WithoutCancel(ctx), unresolved)

	if result.Overall != Failed {
		result.Receipt = NewReceipt(uuid.New(), snapshot, lines, r.cfg.TaxRate, r.now())
		r.confirm(context.WithoutCancel(ctx), result, logger)
	}

	metrics.CheckoutFinished(string(result.Overall), time.Since(started))
	logger.Info("Checkout finished",
		zap.String("overall", string(result.Overall)),
		zap.Int("lines", len(lines)),
		zap.Int("committed", len(result.Committed())),
	)

	return result, nil
}

// Reconcile commits every line of snapshot concurrently and returns the
// per-line outcomes in cart order. snapshot is not modified.
func (r *Reconciler) Reconcile(ctx context.Context, snapshot cart.Snapshot) []LineResult {
	items := snapshot.Clone().Items
	lines := make([]LineResult, len(items))

	var g errgroup.Group
	if r.cfg.Concurrency > 0 {
		g.SetLimit(r.cfg.Concurrency)
	}

	for i, item := range items {
		g.Go(func() error {
			lines[i] = r.commitLine(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	return lines
}

func (r *Reconciler) commitLine(ctx context.Context, item cart.Item) LineResult {
	line := LineResult{
		ProductID:    item.ProductID,
		Name:         item.Name,
		RequestedQty: item.Quantity,
	}

	res, err := r.committer.CommitDecrement(ctx, item.ProductID, item.Quantity)
	switch {
	case err != nil && errors.Is(err, domain.ErrInsufficientStock):
		line.Outcome = OutcomeInsufficientStock
		line.RemainingStock = res.RemainingStock
		line.Error = err.Error()
	case err != nil:
		line.Outcome = OutcomeError
		line.Error = err.Error()
		r.logger.Warn("Stock commit failed",
			zap.String("product_id", item.ProductID.String()),
			zap.Int("quantity", item.Quantity),
			zap.Error(err),
		)
	case res.Committed:
		line.Outcome = OutcomeCommitted
		line.RemainingStock = res.RemainingStock
	default:
		line.Outcome = OutcomeInsufficientStock
		line.RemainingStock = res.RemainingStock
	}

	metrics.CheckoutLine(string(line.Outcome))
	return line
}

func (r *Reconciler) pay(ctx context.Context) error {
	if r.cfg.PaymentDelay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(r.cfg.PaymentDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *Reconciler) confirm(ctx context.Context, result Result, logger *zap.Logger) {
	if r.sink == nil {
		return
	}
	if err := r.sink.Confirm(ctx, result); err != nil {
		logger.Error("Failed to deliver checkout confirmation",
			zap.String("order_id", result.Receipt.OrderID.String()),
			zap.Error(err),
		)
	}
}

func productIDs(items []cart.Item) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}
