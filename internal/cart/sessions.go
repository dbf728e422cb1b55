package cart

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/simplelru"
	"go.uber.org/zap"
)

const (
	// DefaultIdleTimeout is how long an untouched manager stays in memory
	DefaultIdleTimeout = 30 * time.Minute
	// DefaultMaxSessions caps the managers held in memory
	DefaultMaxSessions = 10000
)

// SessionsOption configures a Sessions registry
type SessionsOption func(*Sessions)

// WithIdleTimeout sets how long an unused manager is kept in memory
func WithIdleTimeout(d time.Duration) SessionsOption {
	return func(s *Sessions) {
		if d > 0 {
			s.idleTimeout = d
		}
	}
}

// WithMaxSessions caps the number of managers kept in memory
func WithMaxSessions(n int) SessionsOption {
	return func(s *Sessions) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

type sessionEntry struct {
	manager  *Manager
	lastUsed time.Time
}

// Sessions hands out the single Manager of each session, rehydrating it
// from persistence the first time the session is seen. Idle managers are
// evicted least recently used first; a manager with a checkout in flight is
// never evicted. Evicting only drops the in-memory copy, the stored cart
// stays in persistence.
type Sessions struct {
	persistence Persistence
	logger      *zap.Logger
	idleTimeout time.Duration
	maxSessions int
	now         func() time.Time

	mu  sync.Mutex
	lru *simplelru.LRU
}

// NewSessions creates a session registry over persistence
func NewSessions(persistence Persistence, logger *zap.Logger, opts ...SessionsOption) *Sessions {
	s := &Sessions{
		persistence: persistence,
		logger:      logger,
		idleTimeout: DefaultIdleTimeout,
		maxSessions: DefaultMaxSessions,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Eviction is driven by evictLocked; the LRU only keeps recency order.
	lru, err := simplelru.NewLRU(math.MaxInt32, nil)
	if err != nil {
		panic(err)
	}
	s.lru = lru
	return s
}

// Get returns the cart manager for sessionID. The stored cart is loaded
// without holding the registry lock.
func (s *Sessions) Get(ctx context.Context, sessionID string) *Manager {
	if m, ok := s.lookup(sessionID); ok {
		return m
	}

	opened := Open(ctx, sessionID, s.persistence, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if v, ok := s.lru.Get(sessionID); ok {
		entry := v.(*sessionEntry)
		entry.lastUsed = now
		return entry.manager
	}
	s.lru.Add(sessionID, &sessionEntry{manager: opened, lastUsed: now})
	s.evictLocked(now, sessionID)
	return opened
}

func (s *Sessions) lookup(sessionID string) (*Manager, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.lru.Get(sessionID)
	if !ok {
		return nil, false
	}
	entry := v.(*sessionEntry)
	entry.lastUsed = s.now()
	return entry.manager, true
}

// evictLocked drops idle managers and trims the registry to maxSessions,
// sparing keep. Keys come back oldest first, which is also lastUsed order.
func (s *Sessions) evictLocked(now time.Time, keep string) {
	evicted := 0
	for _, key := range s.lru.Keys() {
		if key == keep {
			continue
		}
		v, ok := s.lru.Peek(key)
		if !ok {
			continue
		}
		entry := v.(*sessionEntry)

		expired := now.Sub(entry.lastUsed) >= s.idleTimeout
		overCap := s.lru.Len() > s.maxSessions
		if !expired && !overCap {
			break
		}
		if entry.manager.Processing() {
			continue
		}
		s.lru.Remove(key)
		evicted++
	}

	if evicted > 0 {
		s.logger.Debug("Evicted idle carts",
			zap.Int("evicted", evicted),
			zap.Int("held", s.lru.Len()),
		)
	}
}

// Forget drops the in-memory manager of sessionID unless a checkout is
// running on it. The stored cart is kept.
func (s *Sessions) Forget(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.lru.Peek(sessionID)
	if !ok || v.(*sessionEntry).manager.Processing() {
		return false
	}
	s.lru.Remove(sessionID)
	return true
}

// Len returns the number of sessions held in memory
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}
