package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Persistence stores carts between requests. Both operations are best
// effort from the cart's point of view.
type Persistence interface {
	Save(ctx context.Context, snapshot Snapshot) error
	Load(ctx context.Context, sessionID string) (Snapshot, bool, error)
}

// KeyPrefix is the default Redis key prefix for carts
const KeyPrefix = "cart"

// RedisPersistence stores each cart as a JSON document under
// <prefix>:<session id>, refreshing the TTL on every save.
type RedisPersistence struct {
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
}

// NewRedisPersistence creates a Redis-backed cart store
func NewRedisPersistence(client redis.Cmdable, keyPrefix string, ttl time.Duration) *RedisPersistence {
	if keyPrefix == "" {
		keyPrefix = KeyPrefix
	}
	return &RedisPersistence{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (r *RedisPersistence) key(sessionID string) string {
	return r.keyPrefix + ":" + sessionID
}

// Save writes the cart, or deletes the key when the cart is empty
func (r *RedisPersistence) Save(ctx context.Context, snapshot Snapshot) error {
	key := r.key(snapshot.SessionID)

	if snapshot.IsEmpty() {
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to delete cart %s: %w", key, err)
		}
		return nil
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal cart %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart %s: %w", key, err)
	}
	return nil
}

// Load reads a cart; found is false when the session has no stored cart
func (r *RedisPersistence) Load(ctx context.Context, sessionID string) (Snapshot, bool, error) {
	key := r.key(sessionID)

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("failed to load cart %s: %w", key, err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, false, fmt.Errorf("failed to unmarshal cart %s: %w", key, err)
	}
	snapshot.SessionID = sessionID
	return snapshot, true, nil
}

// MemoryPersistence keeps carts in process memory
type MemoryPersistence struct {
	mu    sync.Mutex
	carts map[string]Snapshot
}

// NewMemoryPersistence creates an empty in-memory cart store
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{carts: make(map[string]Snapshot)}
}

func (m *MemoryPersistence) Save(ctx context.Context, snapshot Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if snapshot.IsEmpty() {
		delete(m.carts, snapshot.SessionID)
		return nil
	}
	m.carts[snapshot.SessionID] = snapshot.Clone()
	return nil
}

func (m *MemoryPersistence) Load(ctx context.Context, sessionID string) (Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot, ok := m.carts[sessionID]
	return snapshot.Clone(), ok, nil
}
