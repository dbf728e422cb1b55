package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedisPersistence(t *testing.T) (*RedisPersistence, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisPersistence(client, "", 30*time.Minute), mr
}

func TestRedisPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisPersistence(t)

	m := NewManager("abc", store, zap.NewNop())
	p := testProduct("Keyboard", 80, 25, 6)
	saved, err := m.AddItem(ctx, p, 2)
	require.NoError(t, err)

	assert.True(t, mr.Exists("cart:abc"))
	assert.Equal(t, 30*time.Minute, mr.TTL("cart:abc"))

	loaded, found, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, mustJSON(t, saved), mustJSON(t, loaded))

	line, ok := loaded.Line(p.ID)
	require.True(t, ok)
	assert.True(t, line.UnitPrice.Equal(decimal.NewFromInt(60)), "unit price %s", line.UnitPrice)
}

func TestRedisPersistenceMissingCart(t *testing.T) {
	store, _ := newRedisPersistence(t)

	_, found, err := store.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisPersistenceDeletesEmptyCart(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisPersistence(t)

	m := NewManager("abc", store, zap.NewNop())
	_, err := m.AddItem(ctx, testProduct("Cable", 5, 0, 10), 1)
	require.NoError(t, err)
	require.True(t, mr.Exists("cart:abc"))

	_, err = m.Clear(ctx)
	require.NoError(t, err)
	assert.False(t, mr.Exists("cart:abc"))
}

func TestRedisPersistenceUnavailable(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisPersistence(t)
	mr.Close()

	m := NewManager("abc", store, zap.NewNop())
	snapshot, err := m.AddItem(ctx, testProduct("Cable", 5, 0, 10), 1)
	require.NoError(t, err, "persistence failure is not a cart failure")
	assert.Len(t, snapshot.Items, 1)

	_, _, err = store.Load(ctx, "abc")
	assert.Error(t, err)
}

func TestRedisPersistenceCorruptDocument(t *testing.T) {
	store, mr := newRedisPersistence(t)
	require.NoError(t, mr.Set("cart:abc", "not json"))

	_, _, err := store.Load(context.Background(), "abc")
	assert.Error(t, err)

	m := Open(context.Background(), "abc", store, zap.NewNop())
	assert.True(t, m.Snapshot().IsEmpty())
}
