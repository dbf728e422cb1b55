package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FeedSnapshot is a copy of the displayed slice of a feed
type FeedSnapshot struct {
	Items    []*domain.Product
	Cursor   PageCursor
	Criteria FilterCriteria
	Epoch    uint64
}

// HasMore reports whether another page can be loaded
func (s FeedSnapshot) HasMore() bool {
	return s.Cursor.HasMore()
}

// Feed is an incrementally loaded listing. Every criteria change bumps the
// epoch, and a page response is applied only if it was issued under the
// current epoch for the page the cursor still expects.
type Feed struct {
	engine *Engine
	logger *zap.Logger

	mu       sync.Mutex
	epoch    uint64
	criteria FilterCriteria
	cursor   PageCursor
	items    []*domain.Product
	seen     map[uuid.UUID]struct{}
}

// NewFeed creates an empty feed with no filters applied
func NewFeed(engine *Engine, pageSize int, logger *zap.Logger) *Feed {
	return &Feed{
		engine: engine,
		logger: logger.Named("feed"),
		cursor: NewPageCursor(pageSize),
		seen:   make(map[uuid.UUID]struct{}),
	}
}

// SetCriteria replaces the filters. When they differ from the current ones
// the displayed slice is discarded, the cursor restarts at page 1 and any
// page still in flight becomes stale. It reports whether a reset happened.
func (f *Feed) SetCriteria(c FilterCriteria) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.criteria.Equal(c) {
		return false
	}

	f.epoch++
	f.criteria = c
	f.cursor = f.cursor.Reset()
	f.items = nil
	f.seen = make(map[uuid.UUID]struct{})

	f.logger.Debug("Filters changed, feed reset",
		zap.Uint64("epoch", f.epoch),
		zap.Stringer("criteria", c),
	)
	return true
}

// LoadMore fetches the next page and appends it to the displayed slice.
// A response that arrives after a reset is discarded without error and the
// current snapshot is returned.
func (f *Feed) LoadMore(ctx context.Context) (FeedSnapshot, error) {
	f.mu.Lock()
	if !f.cursor.HasMore() {
		snap := f.snapshotLocked()
		f.mu.Unlock()
		return snap, nil
	}
	epoch, criteria, cursor := f.epoch, f.criteria, f.cursor
	f.mu.Unlock()

	items, next, err := f.engine.Query(ctx, criteria, cursor)
	if err != nil {
		return f.Snapshot(), err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.applyLocked(epoch, cursor.PageNumber, items, next); err != nil {
		if errors.Is(err, domain.ErrStaleResponse) {
			metrics.StalePageDiscarded()
			f.logger.Debug("Discarded stale page", zap.Error(err))
			return f.snapshotLocked(), nil
		}
		return f.snapshotLocked(), err
	}
	return f.snapshotLocked(), nil
}

// Snapshot returns a copy of the displayed slice and cursor
func (f *Feed) Snapshot() FeedSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Feed) applyLocked(epoch uint64, page int, items []*domain.Product, next PageCursor) error {
	if epoch != f.epoch {
		return fmt.Errorf("%w: page %d issued under epoch %d, current epoch %d",
			domain.ErrStaleResponse, page, epoch, f.epoch)
	}
	if page != f.cursor.PageNumber {
		return fmt.Errorf("%w: page %d already applied", domain.ErrStaleResponse, page)
	}

	for _, p := range items {
		if _, dup := f.seen[p.ID]; dup {
			continue
		}
		f.seen[p.ID] = struct{}{}
		f.items = append(f.items, p)
	}

	next.Loaded = len(f.items)
	if len(items) == 0 || next.Loaded > next.TotalMatching {
		// The source ran dry or grew under us; stop paging at what is displayed.
		next.TotalMatching = next.Loaded
	}
	f.cursor = next
	return nil
}

func (f *Feed) snapshotLocked() FeedSnapshot {
	return FeedSnapshot{
		Items:    slices.Clone(f.items),
		Cursor:   f.cursor,
		Criteria: f.criteria,
		Epoch:    f.epoch,
	}
}
