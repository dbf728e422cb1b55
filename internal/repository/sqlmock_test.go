package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"storefront/internal/catalog"
	"storefront/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (ProductRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewProductRepository(db), mock
}

func TestCreateMapsUniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO products").
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, Message: "duplicate key"})

	err := repo.Create(context.Background(), newProduct("C-1", "Chair", "Home", "10", 0, 1))
	assert.ErrorIs(t, err, domain.ErrProductCodeTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWrapsOtherErrors(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("connection reset")

	mock.ExpectExec("INSERT INTO products").WillReturnError(boom)

	err := repo.Create(context.Background(), newProduct("C-1", "Chair", "Home", "10", 0, 1))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrProductCodeTaken)
}

func TestCategoryCreateMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO categories").
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	category, err := domain.NewCategory("Home", "")
	require.NoError(t, err)
	assert.ErrorIs(t, NewCategoryRepository(db).Create(context.Background(), category), domain.ErrCategoryAlreadyExists)
}

func TestFetchProductsQueryShape(t *testing.T) {
	repo, mock := newMockRepo(t)

	criteria := catalog.MustFilterCriteria(catalog.CriteriaParams{
		SearchTerm: "50%_off",
		OnlyOffers: true,
		PriceRange: catalog.NewPriceRange(decimal.NewFromInt(5), decimal.NewFromInt(50)),
	})

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM products p JOIN categories c`)).
		WithArgs(`%50\%\_off%`, decimal.NewFromInt(5), decimal.NewFromInt(50)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY p.created_at DESC, p.id ASC LIMIT $4 OFFSET $5`)).
		WithArgs(`%50\%\_off%`, decimal.NewFromInt(5), decimal.NewFromInt(50), 10, 10).
		WillReturnRows(sqlmock.NewRows(nil))

	page, err := repo.FetchProducts(context.Background(),
		catalog.ProductQuery{Criteria: criteria, View: catalog.StorefrontView}, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchProductsCountFailure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("timeout"))

	_, err := repo.FetchProducts(context.Background(), catalog.ProductQuery{View: catalog.AdminView}, 1, 10)
	assert.ErrorContains(t, err, "failed to count products")
}

func TestCommitDecrementDistinguishesMissingFromShort(t *testing.T) {
	id := uuid.New()

	t.Run("short stock", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("UPDATE products").WithArgs(id, 3).WillReturnRows(sqlmock.NewRows([]string{"stock"}))
		mock.ExpectQuery("SELECT stock FROM products").WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(2))

		res, err := repo.CommitDecrement(context.Background(), id, 3)
		require.NoError(t, err)
		assert.False(t, res.Committed)
		assert.Equal(t, 2, *res.RemainingStock)
	})

	t.Run("missing product", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("UPDATE products").WithArgs(id, 1).WillReturnRows(sqlmock.NewRows([]string{"stock"}))
		mock.ExpectQuery("SELECT stock FROM products").WithArgs(id).WillReturnRows(sqlmock.NewRows([]string{"stock"}))

		_, err := repo.CommitDecrement(context.Background(), id, 1)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("driver failure", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("UPDATE products").WithArgs(id, 1).WillReturnError(errors.New("broken pipe"))

		res, err := repo.CommitDecrement(context.Background(), id, 1)
		assert.Error(t, err)
		assert.False(t, res.Committed)
	})
}

func TestConfirmRollsBackOnItemFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_items").WillReturnError(errors.New("check constraint"))
	mock.ExpectRollback()

	err = NewOrderRepository(db).Confirm(context.Background(), confirmedResult())
	assert.ErrorContains(t, err, "failed to insert order item")
	assert.NoError(t, mock.ExpectationsWereMet())
}
