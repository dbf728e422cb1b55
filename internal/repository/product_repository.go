package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/domain"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product data access. It is the
// authoritative product source of the catalog and the stock authority of
// checkout.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindByCode(ctx context.Context, code string) (*domain.Product, error)
	FetchProducts(ctx context.Context, q catalog.ProductQuery, page, pageSize int) (catalog.ProductPage, error)
	CommitDecrement(ctx context.Context, productID uuid.UUID, qty int) (checkout.CommitResult, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `p.id, p.code, p.name, p.description, p.price, p.discount_percent, p.stock,
		p.active, p.category_name, p.image_url, p.created_at, p.updated_at`

// finalPriceExpr mirrors pricing.FinalPrice: half-away-from-zero at 2 places,
// truncated when a discount would otherwise round back to the list price
const finalPriceExpr = `(CASE
	WHEN p.discount_percent > 0 AND p.price > 0
		AND ROUND(p.price * (100 - p.discount_percent) / 100.0, 2) = p.price
	THEN TRUNC(p.price * (100 - p.discount_percent) / 100.0, 2)
	ELSE ROUND(p.price * (100 - p.discount_percent) / 100.0, 2)
END)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.Code,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.DiscountPercent,
		&product.Stock,
		&product.Active,
		&product.CategoryName,
		&product.ImageURL,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	return product, err
}

// Create inserts a new product. The code must be unique.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO products (id, code, name, description, price, discount_percent, stock,
			active, category_name, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Code,
		product.Name,
		product.Description,
		product.Price,
		product.DiscountPercent,
		product.Stock,
		product.Active,
		product.CategoryName,
		product.ImageURL,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrProductCodeTaken
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update rewrites the mutable attributes of a product. The code is immutable
// after creation and is not touched.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, discount_percent = $5, stock = $6,
		    active = $7, category_name = $8, image_url = $9
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.DiscountPercent,
		product.Stock,
		product.Active,
		product.CategoryName,
		product.ImageURL,
	).Scan(&product.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes a product from the database using parameterized queries
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindByCode retrieves a product by its unique code
func (r *productRepository) FindByCode(ctx context.Context, code string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.code = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by code: %w", err)
	}

	return product, nil
}

// FetchProducts evaluates the listing predicate and ordering in SQL and
// returns one page plus the total number of matches
func (r *productRepository) FetchProducts(ctx context.Context, q catalog.ProductQuery, page, pageSize int) (catalog.ProductPage, error) {
	if err := catalog.ValidatePage(page, pageSize); err != nil {
		return catalog.ProductPage{}, err
	}

	from, args := buildProductFilter(q)

	var total int
	countQuery := `SELECT COUNT(*) ` + from
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return catalog.ProductPage{}, fmt.Errorf("failed to count products: %w", err)
	}

	orderBy := `p.created_at DESC, p.id ASC`
	if q.View == catalog.AdminView {
		orderBy = `p.code ASC, p.id ASC`
	}

	offset := (page - 1) * pageSize
	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		productColumns, from, orderBy, len(args)+1, len(args)+2)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return catalog.ProductPage{}, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return catalog.ProductPage{}, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return catalog.ProductPage{}, fmt.Errorf("error iterating products: %w", err)
	}

	return catalog.ProductPage{Items: products, Total: total}, nil
}

// buildProductFilter renders the FROM and WHERE clauses for q with numbered
// placeholders
func buildProductFilter(q catalog.ProductQuery) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	from := `FROM products p`
	if q.View == catalog.StorefrontView {
		from += ` JOIN categories c ON c.name = p.category_name AND c.active`
		conditions = append(conditions, `p.active`)
	}

	c := q.Criteria
	if categories := c.Categories(); len(categories) > 0 {
		conditions = append(conditions, `p.category_name = ANY(`+arg(categories)+`)`)
	}
	if term := c.SearchTerm(); term != "" {
		pattern := arg("%" + escapeLike(term) + "%")
		conditions = append(conditions,
			`(p.name ILIKE `+pattern+` OR p.description ILIKE `+pattern+` OR p.code ILIKE `+pattern+`)`)
	}
	if c.OnlyOffers() {
		conditions = append(conditions, `p.discount_percent > 0`)
	}

	priceRange := c.PriceRange()
	if priceRange.Min.IsPositive() {
		conditions = append(conditions, finalPriceExpr+` >= `+arg(priceRange.Min))
	}
	if priceRange.Max.Valid {
		conditions = append(conditions, finalPriceExpr+` <= `+arg(priceRange.Max.Decimal))
	}

	if len(conditions) > 0 {
		from += ` WHERE ` + strings.Join(conditions, ` AND `)
	}
	return from, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// CommitDecrement re-validates and decrements stock in a single statement so
// that concurrent checkouts can never drive stock below zero
func (r *productRepository) CommitDecrement(ctx context.Context, productID uuid.UUID, qty int) (checkout.CommitResult, error) {
	if qty < 1 {
		return checkout.CommitResult{}, fmt.Errorf("%w: quantity must be at least 1, got %d", domain.ErrValidation, qty)
	}

	query := `
		UPDATE products
		SET stock = stock - $2
		WHERE id = $1 AND stock >= $2
		RETURNING stock
	`

	var remaining int
	err := r.db.QueryRowContext(ctx, query, productID, qty).Scan(&remaining)
	if err == nil {
		return checkout.CommitResult{Committed: true, RemainingStock: &remaining}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return checkout.CommitResult{}, fmt.Errorf("failed to decrement stock: %w", err)
	}

	// nothing updated: either the product is gone or stock is short
	var current int
	err = r.db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return checkout.CommitResult{}, domain.ErrProductNotFound
		}
		return checkout.CommitResult{}, fmt.Errorf("failed to read stock: %w", err)
	}

	return checkout.CommitResult{Committed: false, RemainingStock: &current}, nil
}
