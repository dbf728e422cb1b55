package transport

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FeedHandler serves the incremental storefront listing of a session
type FeedHandler struct {
	feeds  service.FeedService
	logger *zap.Logger
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feeds service.FeedService, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{feeds: feeds, logger: logger}
}

// RegisterRoutes registers the feed route
func (h *FeedHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/feed", h.Next)
}

// Next loads the next page of the session's feed for the filters in the
// query string. Changed filters restart the feed and the response is marked
// as a reset.
func (h *FeedHandler) Next(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		h.logger.Error("Session ID not found in context")
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	criteria, err := parseCriteria(r.URL.Query())
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	page, err := h.feeds.NextPage(r.Context(), sessionID, criteria)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newFeedPageResponse(page))
}
