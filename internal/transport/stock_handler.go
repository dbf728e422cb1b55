package transport

import (
	"net/http"

	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// StockHandler exposes the authoritative stock decrement to remote checkouts
type StockHandler struct {
	committer checkout.StockCommitter
	logger    *zap.Logger
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(committer checkout.StockCommitter, logger *zap.Logger) *StockHandler {
	return &StockHandler{
		committer: committer,
		logger:    logger,
	}
}

// RegisterRoutes registers the decrement route behind guard
func (h *StockHandler) RegisterRoutes(r chi.Router, guard func(http.Handler) http.Handler) {
	r.With(guard).Post("/api/products/{id}/decrement", h.Decrement)
}

// Decrement commits a stock decrement. The committed flag in the body is
// authoritative: 200 when committed, 409 when stock was short.
func (h *StockHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	productID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req checkout.DecrementRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithJSON(w, http.StatusBadRequest, checkout.DecrementResponse{Error: err.Error()})
		return
	}

	result, err := h.committer.CommitDecrement(r.Context(), productID, req.Quantity)
	if err != nil {
		status := middleware.StatusFor(err)
		message := err.Error()
		if status == http.StatusInternalServerError {
			h.logger.Error("Stock decrement failed", zap.String("product_id", productID.String()), zap.Error(err))
			message = "internal server error"
		}
		middleware.RespondWithJSON(w, status, checkout.DecrementResponse{
			RemainingStock: result.RemainingStock,
			Error:          message,
		})
		return
	}

	if !result.Committed {
		middleware.RespondWithJSON(w, http.StatusConflict, checkout.DecrementResponse{
			RemainingStock: result.RemainingStock,
			Error:          domain.ErrInsufficientStock.Error(),
		})
		return
	}

	h.logger.Debug("Stock decremented",
		zap.String("product_id", productID.String()),
		zap.Int("quantity", req.Quantity),
	)
	middleware.RespondWithJSON(w, http.StatusOK, checkout.DecrementResponse{
		Committed:      true,
		RemainingStock: result.RemainingStock,
	})
}
