package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/checkout"
	"storefront/internal/domain"

	"github.com/google/uuid"
)

// OrderRepository stores checkout receipts. It doubles as a confirmation
// sink for the reconciler.
type OrderRepository interface {
	Confirm(ctx context.Context, result checkout.Result) error
	FindReceipt(ctx context.Context, orderID uuid.UUID) (*checkout.Receipt, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Confirm stores the receipt of result with its lines in one transaction.
// Results without a receipt are ignored.
func (r *orderRepository) Confirm(ctx context.Context, result checkout.Result) error {
	receipt := result.Receipt
	if receipt == nil {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, session_id, overall, subtotal, original_subtotal, savings,
			tax_rate, tax, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		receipt.OrderID,
		receipt.SessionID,
		string(result.Overall),
		receipt.Subtotal,
		receipt.OriginalSubtotal,
		receipt.Savings,
		receipt.TaxRate,
		receipt.Tax,
		receipt.Total,
		receipt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i, line := range receipt.Lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, product_id, name, quantity, unit_price,
				original_price, discount_percent, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			receipt.OrderID,
			i,
			line.ProductID,
			line.Name,
			line.Quantity,
			line.UnitPrice,
			line.OriginalPrice,
			line.DiscountPercent,
			line.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

// FindReceipt loads a stored receipt by order id
func (r *orderRepository) FindReceipt(ctx context.Context, orderID uuid.UUID) (*checkout.Receipt, error) {
	receipt := &checkout.Receipt{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, session_id, subtotal, original_subtotal, savings, tax_rate, tax, total, created_at
		FROM orders
		WHERE id = $1
	`, orderID).Scan(
		&receipt.OrderID,
		&receipt.SessionID,
		&receipt.Subtotal,
		&receipt.OriginalSubtotal,
		&receipt.Savings,
		&receipt.TaxRate,
		&receipt.Tax,
		&receipt.Total,
		&receipt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, name, quantity, unit_price, original_price, discount_percent, line_total
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line checkout.ReceiptLine
		if err := rows.Scan(
			&line.ProductID,
			&line.Name,
			&line.Quantity,
			&line.UnitPrice,
			&line.OriginalPrice,
			&line.DiscountPercent,
			&line.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		receipt.Lines = append(receipt.Lines, line)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return receipt, nil
}
