package catalog

import (
	"sync"

	"github.com/hashicorp/golang-lru/simplelru"
	"go.uber.org/zap"
)

// DefaultMaxFeeds caps the feeds held in memory
const DefaultMaxFeeds = 10000

// Feeds keeps one Feed per session. The least recently used feed is dropped
// once maxFeeds is reached; its owner simply starts over at page 1.
type Feeds struct {
	engine   *Engine
	pageSize int
	logger   *zap.Logger

	mu  sync.Mutex
	lru *simplelru.LRU
}

// NewFeeds creates a feed registry over engine
func NewFeeds(engine *Engine, pageSize, maxFeeds int, logger *zap.Logger) *Feeds {
	if maxFeeds < 1 {
		maxFeeds = DefaultMaxFeeds
	}
	f := &Feeds{engine: engine, pageSize: pageSize, logger: logger.Named("feeds")}

	lru, err := simplelru.NewLRU(maxFeeds, func(key, _ interface{}) {
		f.logger.Debug("Dropped least recently used feed", zap.Any("session_id", key))
	})
	if err != nil {
		panic(err)
	}
	f.lru = lru
	return f
}

// Get returns the feed of sessionID, creating it on first use
func (f *Feeds) Get(sessionID string) *Feed {
	f.mu.Lock()
	defer f.mu.Unlock()

	if v, ok := f.lru.Get(sessionID); ok {
		return v.(*Feed)
	}
	feed := NewFeed(f.engine, f.pageSize, f.logger)
	f.lru.Add(sessionID, feed)
	return feed
}

// Len returns the number of feeds held
func (f *Feeds) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lru.Len()
}
