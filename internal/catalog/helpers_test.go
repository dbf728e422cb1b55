package catalog

import (
	"fmt"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var baseTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func testProduct(code, name, category string, price int64, discount int) *domain.Product {
	return &domain.Product{
		ID:              uuid.New(),
		Code:            code,
		Name:            name,
		Description:     name + " description",
		Price:           decimal.NewFromInt(price),
		DiscountPercent: discount,
		Stock:           10,
		Active:          true,
		CategoryName:    category,
		CreatedAt:       baseTime,
		UpdatedAt:       baseTime,
	}
}

func testCategories(names ...string) []*domain.Category {
	categories := make([]*domain.Category, 0, len(names))
	for _, name := range names {
		categories = append(categories, &domain.Category{ID: uuid.New(), Name: name, Active: true, CreatedAt: baseTime})
	}
	return categories
}

// numberedProducts returns n active products, the i-th created i minutes after baseTime
func numberedProducts(n int, category string) []*domain.Product {
	products := make([]*domain.Product, 0, n)
	for i := 0; i < n; i++ {
		p := testProduct(fmt.Sprintf("P%03d", i), fmt.Sprintf("Product %d", i), category, int64(10+i), 0)
		p.CreatedAt = baseTime.Add(time.Duration(i) * time.Minute)
		products = append(products, p)
	}
	return products
}

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zap.NewNop()
}
