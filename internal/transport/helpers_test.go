package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAdminKey = "admin-secret"

type testAPI struct {
	router     http.Handler
	catalog    service.CatalogService
	products   *mockProductRepository
	categories *mockCategoryRepository
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := zap.NewNop()

	categories := newMockCategoryRepository()
	products := newMockProductRepository(categories)
	orders := newMockOrderRepository()

	catalogService := service.NewCatalogService(products, categories, logger)
	reconciler := checkout.NewReconciler(products, orders, checkout.Config{Concurrency: 2}, logger)
	cartService := service.NewCartService(cart.NewSessions(cart.NewMemoryPersistence(), logger), catalogService, reconciler, orders, logger)

	admin := middleware.RequireAdminKey(testAdminKey, logger)
	passthrough := func(next http.Handler) http.Handler { return next }

	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(false, logger))
	NewCatalogHandler(catalogService, config.CatalogConfig{PageSize: 12, AdminPageSize: 10, MaxPageSize: 50}, logger).RegisterRoutes(r, admin)
	NewCartHandler(cartService, logger).RegisterRoutes(r, passthrough)
	NewStockHandler(products, logger).RegisterRoutes(r, admin)
	NewFeedHandler(service.NewFeedService(products, 12, 100, logger), logger).RegisterRoutes(r)

	return &testAPI{router: r, catalog: catalogService, products: products, categories: categories}
}

func (a *testAPI) seedCategory(t *testing.T, name string) {
	t.Helper()
	_, err := a.catalog.CreateCategory(context.Background(), name, "")
	require.NoError(t, err)
}

func (a *testAPI) seedProduct(t *testing.T, code, category string, price string, discount, stock int) *domain.Product {
	t.Helper()
	p, err := a.catalog.CreateProduct(context.Background(), domain.NewProductParams{
		Code:            code,
		Name:            "Product " + code,
		Price:           decimal.RequireFromString(price),
		DiscountPercent: discount,
		Stock:           stock,
		Active:          true,
		CategoryName:    category,
	})
	require.NoError(t, err)
	return p
}

type requestOption func(*http.Request)

func withSession(id string) requestOption {
	return func(r *http.Request) { r.Header.Set(middleware.SessionHeader, id) }
}

func asAdmin() requestOption {
	return func(r *http.Request) { r.Header.Set(middleware.AdminKeyHeader, testAdminKey) }
}

func (a *testAPI) do(method, target string, body interface{}, opts ...requestOption) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}

func newServerFor(t *testing.T, api *testAPI) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(api.router)
	t.Cleanup(server.Close)
	return server
}
