package pos

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*CartStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCartStore(client, 2*time.Hour), mr
}

func TestCartStoreRoundTripWithTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	var cart Cart
	require.NoError(t, cart.Add(oranges, 2))
	require.NoError(t, store.Save(ctx, "sess-1", cart))

	got, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, 2, got.Lines[0].Quantity)
	assert.Equal(t, 2*time.Hour, mr.TTL("fruitline:cart:sess-1"))

	mr.FastForward(3 * time.Hour)
	got, err = store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestCartStoreSessionsAreIsolated(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	var cart Cart
	require.NoError(t, cart.Add(bananas, 1))
	require.NoError(t, store.Save(ctx, "a", cart))

	other, err := store.Load(ctx, "b")
	require.NoError(t, err)
	assert.True(t, other.Empty())
}

func TestCartStoreSavingEmptyCartDeletesKey(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	var cart Cart
	require.NoError(t, cart.Add(bananas, 1))
	require.NoError(t, store.Save(ctx, "a", cart))
	cart.Clear()
	require.NoError(t, store.Save(ctx, "a", cart))
	assert.False(t, mr.Exists("fruitline:cart:a"))
}
