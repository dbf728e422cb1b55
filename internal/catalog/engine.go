package catalog

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/metrics"

	"go.uber.org/zap"
)

// Engine turns criteria and a cursor into one page of a listing
type Engine struct {
	source ProductSource
	view   View
	logger *zap.Logger
}

// NewEngine creates an engine reading from source with the given view
func NewEngine(source ProductSource, view View, logger *zap.Logger) *Engine {
	return &Engine{
		source: source,
		view:   view,
		logger: logger.Named("catalog").With(zap.Stringer("view", view)),
	}
}

// View returns the listing view this engine serves
func (e *Engine) View() View {
	return e.view
}

// Query fetches the page the cursor points at and returns the cursor to use
// for the following page. It is idempotent for identical arguments as long
// as the source is not mutated.
func (e *Engine) Query(ctx context.Context, criteria FilterCriteria, cursor PageCursor) ([]*domain.Product, PageCursor, error) {
	if err := cursor.validate(); err != nil {
		return nil, cursor, err
	}

	page, err := e.source.FetchProducts(ctx, ProductQuery{Criteria: criteria, View: e.view}, cursor.PageNumber, cursor.PageSize)
	metrics.PageFetched(e.view.String(), err)
	if err != nil {
		e.logger.Warn("Failed to fetch product page",
			zap.Int("page", cursor.PageNumber),
			zap.Int("page_size", cursor.PageSize),
			zap.Error(err),
		)
		return nil, cursor, fmt.Errorf("%w: fetch page %d: %w", domain.ErrTransport, cursor.PageNumber, err)
	}

	next := PageCursor{
		PageSize:      cursor.PageSize,
		PageNumber:    cursor.PageNumber + 1,
		TotalMatching: page.Total,
		Loaded:        min(cursor.Offset()+len(page.Items), page.Total),
	}

	e.logger.Debug("Fetched product page",
		zap.Stringer("criteria", criteria),
		zap.Int("page", cursor.PageNumber),
		zap.Int("items", len(page.Items)),
		zap.Int("total", page.Total),
	)

	return page.Items, next, nil
}
