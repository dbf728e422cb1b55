package transport

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddItemRequest represents the add-to-cart payload
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// SetQuantityRequest represents a line quantity change
type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// CartHandler handles HTTP requests for the session cart and its checkout
type CartHandler struct {
	carts  service.CartService
	logger *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:  carts,
		logger: logger,
	}
}

// RegisterRoutes registers all cart routes. checkoutLimiter guards the
// checkout endpoint only.
func (h *CartHandler) RegisterRoutes(r chi.Router, checkoutLimiter func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productId}", h.SetQuantity)
		r.Delete("/items/{productId}", h.RemoveItem)
	})

	r.With(checkoutLimiter).Post("/api/checkout", h.Checkout)
	r.Get("/api/orders/{orderId}", h.GetOrder)
}

// session returns the session resolved by the session middleware
func (h *CartHandler) session(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		h.logger.Error("Session ID not found in context")
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return "", false
	}
	return sessionID, true
}

// GetCart returns the cart of the calling session
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newCartResponse(h.carts.Cart(r.Context(), sessionID)))
}

// AddItem adds a product to the cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Add item validation failed", zap.Error(err))
		middleware.RespondWithRequestError(w, err)
		return
	}

	snapshot, err := h.carts.AddItem(r.Context(), sessionID, uuid.MustParse(req.ProductID), req.Quantity)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newCartResponse(snapshot))
}

// SetQuantity changes the quantity of a cart line
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}
	productID, ok := uuidParam(w, r, "productId")
	if !ok {
		return
	}

	var req SetQuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithRequestError(w, err)
		return
	}

	snapshot, err := h.carts.SetQuantity(r.Context(), sessionID, productID, req.Quantity)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newCartResponse(snapshot))
}

// RemoveItem drops a cart line; removing an absent line succeeds
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}
	productID, ok := uuidParam(w, r, "productId")
	if !ok {
		return
	}

	snapshot, err := h.carts.RemoveItem(r.Context(), sessionID, productID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newCartResponse(snapshot))
}

// ClearCart empties the cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	snapshot, err := h.carts.Clear(r.Context(), sessionID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newCartResponse(snapshot))
}

// Checkout reconciles the cart against stock. Partial outcomes are reported
// with 200; a checkout where nothing committed answers 409 with the same body.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	result, err := h.carts.Checkout(r.Context(), sessionID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if result.Receipt == nil {
		status = http.StatusConflict
	}
	middleware.RespondWithJSON(w, status, result)
}

// GetOrder returns a receipt placed by the calling session
func (h *CartHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "orderId")
	if !ok {
		return
	}

	receipt, err := h.carts.Receipt(r.Context(), sessionID, orderID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, receipt)
}
