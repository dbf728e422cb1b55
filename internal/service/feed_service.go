package service

import (
	"context"

	"storefront/internal/catalog"
	"storefront/internal/domain"

	"go.uber.org/zap"
)

// FeedPage is what one "load more" call adds to a session's storefront feed
type FeedPage struct {
	// Items are the products appended by this call, or the whole displayed
	// slice when the filters changed
	Items   []*domain.Product
	Reset   bool
	Epoch   uint64
	Cursor  catalog.PageCursor
	HasMore bool
}

// FeedService serves the incremental storefront listing of each session
type FeedService interface {
	// NextPage applies criteria to the session's feed, restarting it when
	// they changed, and loads the next page.
	NextPage(ctx context.Context, sessionID string, criteria catalog.FilterCriteria) (FeedPage, error)
}

type feedService struct {
	feeds  *catalog.Feeds
	logger *zap.Logger
}

// NewFeedService creates a FeedService reading the storefront view of products
func NewFeedService(products catalog.ProductSource, pageSize, maxFeeds int, logger *zap.Logger) FeedService {
	engine := catalog.NewEngine(products, catalog.StorefrontView, logger)
	return &feedService{
		feeds:  catalog.NewFeeds(engine, pageSize, maxFeeds, logger),
		logger: logger.Named("feed_service"),
	}
}

func (s *feedService) NextPage(ctx context.Context, sessionID string, criteria catalog.FilterCriteria) (FeedPage, error) {
	feed := s.feeds.Get(sessionID)

	reset := feed.SetCriteria(criteria)
	before := feed.Snapshot()

	snap, err := feed.LoadMore(ctx)
	if err != nil {
		return FeedPage{}, err
	}

	items := snap.Items
	if snap.Epoch == before.Epoch && len(snap.Items) >= len(before.Items) {
		items = snap.Items[len(before.Items):]
	} else {
		reset = true
	}

	return FeedPage{
		Items:   items,
		Reset:   reset,
		Epoch:   snap.Epoch,
		Cursor:  snap.Cursor,
		HasMore: snap.HasMore(),
	}, nil
}
