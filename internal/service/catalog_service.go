package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductChanges holds the mutable attributes of a product. Nil fields are
// left untouched.
type ProductChanges struct {
	Name            *string
	Description     *string
	Price           *decimal.Decimal
	DiscountPercent *int
	Stock           *int
	Active          *bool
	CategoryName    *string
	ImageURL        *string
}

// CatalogService defines the interface for catalog business logic
type CatalogService interface {
	ActiveCategories(ctx context.Context) ([]*domain.Category, error)
	AllCategories(ctx context.Context) ([]*domain.Category, error)
	CreateCategory(ctx context.Context, name, description string) (*domain.Category, error)
	SetCategoryActive(ctx context.Context, name string, active bool) error

	Browse(ctx context.Context, view catalog.View, criteria catalog.FilterCriteria, cursor catalog.PageCursor) ([]*domain.Product, catalog.PageCursor, error)

	CreateProduct(ctx context.Context, params domain.NewProductParams) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, changes ProductChanges) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	// PurchasableProduct returns a product as the storefront sees it. Hidden
	// products are reported as not found.
	PurchasableProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
}

type catalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	storefront *catalog.Engine
	admin      *catalog.Engine
	logger     *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		products:   products,
		categories: categories,
		storefront: catalog.NewEngine(products, catalog.StorefrontView, logger),
		admin:      catalog.NewEngine(products, catalog.AdminView, logger),
		logger:     logger.Named("catalog_service"),
	}
}

func (s *catalogService) ActiveCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.FetchActiveCategories(ctx)
}

func (s *catalogService) AllCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

// CreateCategory adds an active category; names are unique
func (s *catalogService) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	category, err := domain.NewCategory(name, description)
	if err != nil {
		return nil, err
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info("Category created", zap.String("category", category.Name))
	return category, nil
}

func (s *catalogService) SetCategoryActive(ctx context.Context, name string, active bool) error {
	if err := s.categories.SetActive(ctx, name, active); err != nil {
		return err
	}

	s.logger.Info("Category visibility changed", zap.String("category", name), zap.Bool("active", active))
	return nil
}

// Browse fetches one listing page through the engine of the requested view
func (s *catalogService) Browse(ctx context.Context, view catalog.View, criteria catalog.FilterCriteria, cursor catalog.PageCursor) ([]*domain.Product, catalog.PageCursor, error) {
	engine := s.storefront
	if view == catalog.AdminView {
		engine = s.admin
	}
	return engine.Query(ctx, criteria, cursor)
}

// CreateProduct adds a product to an existing category
func (s *catalogService) CreateProduct(ctx context.Context, params domain.NewProductParams) (*domain.Product, error) {
	product, err := domain.NewProduct(params)
	if err != nil {
		return nil, err
	}
	if _, err := s.categories.FindByName(ctx, product.CategoryName); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("code", product.Code),
	)
	return product, nil
}

// UpdateProduct applies changes to a product. The code cannot change.
func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, changes ProductChanges) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if changes.Name != nil {
		product.Name = strings.TrimSpace(*changes.Name)
	}
	if changes.Description != nil {
		product.Description = *changes.Description
	}
	if changes.Price != nil {
		product.Price = *changes.Price
	}
	if changes.DiscountPercent != nil {
		product.DiscountPercent = *changes.DiscountPercent
	}
	if changes.Stock != nil {
		product.Stock = *changes.Stock
	}
	if changes.Active != nil {
		product.Active = *changes.Active
	}
	if changes.ImageURL != nil {
		product.ImageURL = *changes.ImageURL
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	if changes.CategoryName != nil && *changes.CategoryName != product.CategoryName {
		if _, err := s.categories.FindByName(ctx, *changes.CategoryName); err != nil {
			return nil, err
		}
		product.CategoryName = *changes.CategoryName
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product updated", zap.String("product_id", id.String()))
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

func (s *catalogService) PurchasableProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, domain.ErrProductNotFound
	}

	category, err := s.categories.FindByName(ctx, product.CategoryName)
	switch {
	case errors.Is(err, domain.ErrCategoryNotFound):
		return nil, domain.ErrProductNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to resolve category: %w", err)
	case !category.Active:
		return nil, domain.ErrProductNotFound
	}

	return product, nil
}
