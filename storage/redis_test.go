package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(&RedisStoreConfig{Addr: mr.Addr(), TTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisStoreSaveAndLoad(t *testing.T) {
	store, _ := newTestRedisStore(t, 0)

	want := sampleResult("pipe-redis-1")
	require.NoError(t, store.Save(context.Background(), want))

	got, err := store.Load(context.Background(), "pipe-redis-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRedisStoreLoadMissing(t *testing.T) {
	store, _ := newTestRedisStore(t, 0)

	_, err := store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreWriteOnce(t *testing.T) {
	store, _ := newTestRedisStore(t, 0)
	ctx := context.Background()

	first := sampleResult("pipe-redis-dup")
	require.NoError(t, store.Save(ctx, first))

	second := sampleResult("pipe-redis-dup")
	second.Classification.IsMalicious = false
	require.NoError(t, store.Save(ctx, second))

	got, err := store.Load(ctx, "pipe-redis-dup")
	require.NoError(t, err)
	assert.True(t, got.Classification.IsMalicious)
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleResult("pipe-ttl")))

	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, "pipe-ttl")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreUnreachable(t *testing.T) {
	_, err := NewRedisStore(&RedisStoreConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
