package transport

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Code            string          `json:"code" validate:"required,max=64"`
	Name            string          `json:"name" validate:"required,max=255"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent int             `json:"discount_percent" validate:"gte=0,lte=100"`
	Stock           int             `json:"stock" validate:"gte=0"`
	Active          *bool           `json:"active"`
	CategoryName    string          `json:"category_name" validate:"required"`
	ImageURL        string          `json:"image_url" validate:"omitempty,max=512"`
}

// UpdateProductRequest represents a partial product update. The code is
// immutable and not accepted.
type UpdateProductRequest struct {
	Name            *string          `json:"name" validate:"omitempty,max=255"`
	Description     *string          `json:"description"`
	Price           *decimal.Decimal `json:"price"`
	DiscountPercent *int             `json:"discount_percent" validate:"omitempty,gte=0,lte=100"`
	Stock           *int             `json:"stock" validate:"omitempty,gte=0"`
	Active          *bool            `json:"active"`
	CategoryName    *string          `json:"category_name"`
	ImageURL        *string          `json:"image_url" validate:"omitempty,max=512"`
}

// CreateCategoryRequest represents the category creation payload
type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// CategoryActiveRequest toggles category visibility
type CategoryActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// CatalogHandler handles HTTP requests for catalog listings and maintenance
type CatalogHandler struct {
	catalog service.CatalogService
	cfg     config.CatalogConfig
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog service.CatalogService, cfg config.CatalogConfig, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		cfg:     cfg,
		logger:  logger,
	}
}

// RegisterRoutes registers all catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router, adminMiddleware func(http.Handler) http.Handler) {
	r.Get("/api/categories", h.ListCategories)
	r.Get("/api/products", h.ListProducts)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(adminMiddleware)

		r.Get("/products", h.ListAdminProducts)
		r.Post("/products", h.CreateProduct)
		r.Put("/products/{id}", h.UpdateProduct)
		r.Delete("/products/{id}", h.DeleteProduct)

		r.Get("/categories", h.ListAllCategories)
		r.Post("/categories", h.CreateCategory)
		r.Put("/categories/{name}/active", h.SetCategoryActive)
	})
}

// ListCategories returns the categories visible on the storefront
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ActiveCategories(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// ListAllCategories returns every category, active or not
func (h *CatalogHandler) ListAllCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.AllCategories(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// ListProducts handles the storefront listing
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, catalog.StorefrontView, h.cfg.PageSize)
}

// ListAdminProducts handles the admin listing
func (h *CatalogHandler) ListAdminProducts(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, catalog.AdminView, h.cfg.AdminPageSize)
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request, view catalog.View, defaultPageSize int) {
	criteria, cursor, err := parseListing(r.URL.Query(), defaultPageSize, h.cfg.MaxPageSize)
	if err != nil {
		h.logger.Debug("Invalid listing query", zap.Error(err))
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	items, next, err := h.catalog.Browse(r.Context(), view, criteria, cursor)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newProductListResponse(items, cursor.PageNumber, next))
}

// parseListing reads filters and paging from the query string:
// q, category (repeatable or comma separated), offers, min, max, page, page_size
func parseListing(query url.Values, defaultPageSize, maxPageSize int) (catalog.FilterCriteria, catalog.PageCursor, error) {
	criteria, err := parseCriteria(query)
	if err != nil {
		return catalog.FilterCriteria{}, catalog.PageCursor{}, err
	}

	pageSize, err := intParam(query, "page_size", defaultPageSize)
	if err != nil {
		return catalog.FilterCriteria{}, catalog.PageCursor{}, err
	}
	if maxPageSize > 0 && pageSize > maxPageSize {
		return catalog.FilterCriteria{}, catalog.PageCursor{}, fmt.Errorf("%w: page_size may not exceed %d", domain.ErrValidation, maxPageSize)
	}
	page, err := intParam(query, "page", 1)
	if err != nil {
		return catalog.FilterCriteria{}, catalog.PageCursor{}, err
	}

	if err := catalog.ValidatePage(page, pageSize); err != nil {
		return catalog.FilterCriteria{}, catalog.PageCursor{}, err
	}

	cursor := catalog.NewPageCursor(pageSize)
	cursor.PageNumber = page
	return criteria, cursor, nil
}

// parseCriteria reads the filters: q, category, offers, min, max
func parseCriteria(query url.Values) (catalog.FilterCriteria, error) {
	params := catalog.CriteriaParams{SearchTerm: query.Get("q")}

	for _, value := range query["category"] {
		params.Categories = append(params.Categories, strings.Split(value, ",")...)
	}

	if raw := query.Get("offers"); raw != "" {
		offers, err := strconv.ParseBool(raw)
		if err != nil {
			return catalog.FilterCriteria{}, fmt.Errorf("%w: offers must be a boolean", domain.ErrValidation)
		}
		params.OnlyOffers = offers
	}

	if raw := query.Get("min"); raw != "" {
		lower, err := decimal.NewFromString(raw)
		if err != nil {
			return catalog.FilterCriteria{}, fmt.Errorf("%w: min must be a number", domain.ErrValidation)
		}
		params.PriceRange.Min = lower
	}
	if raw := query.Get("max"); raw != "" {
		upper, err := decimal.NewFromString(raw)
		if err != nil {
			return catalog.FilterCriteria{}, fmt.Errorf("%w: max must be a number", domain.ErrValidation)
		}
		params.PriceRange.Max = decimal.NewNullDecimal(upper)
	}

	return catalog.NewFilterCriteria(params)
}

func intParam(query url.Values, name string, fallback int) (int, error) {
	raw := query.Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, name)
	}
	return n, nil
}

// CreateProduct handles product creation
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))
		middleware.RespondWithRequestError(w, err)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	product, err := h.catalog.CreateProduct(r.Context(), domain.NewProductParams{
		Code:            req.Code,
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DiscountPercent: req.DiscountPercent,
		Stock:           req.Stock,
		Active:          active,
		CategoryName:    req.CategoryName,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, newProductResponse(product))
}

// UpdateProduct handles partial product updates
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product update validation failed", zap.Error(err))
		middleware.RespondWithRequestError(w, err)
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), id, service.ProductChanges{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DiscountPercent: req.DiscountPercent,
		Stock:           req.Stock,
		Active:          req.Active,
		CategoryName:    req.CategoryName,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newProductResponse(product))
}

// DeleteProduct handles product removal
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateCategory handles category creation
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithRequestError(w, err)
		return
	}

	category, err := h.catalog.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

// SetCategoryActive shows or hides a category
func (h *CatalogHandler) SetCategoryActive(w http.ResponseWriter, r *http.Request) {
	var req CategoryActiveRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithRequestError(w, err)
		return
	}

	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category name")
		return
	}
	if err = h.catalog.SetCategoryActive(r.Context(), name, *req.Active); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"name": name, "active": *req.Active})
}

// uuidParam parses a UUID path parameter, answering 400 when it is malformed
func uuidParam(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+param)
		return uuid.UUID{}, false
	}
	return id, true
}
