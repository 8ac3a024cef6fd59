package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spoileralert/backend/internal/adapters/cache"
	"github.com/spoileralert/backend/internal/domain/providers"
)

func TestMemoryAdapter_SetGet(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryAdapter()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 60))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryAdapter_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := cache.NewMemoryAdapterWithClock(func() time.Time { return now })

	require.NoError(t, c.Set(ctx, "reset:abc", []byte("a@b.c"), 900))

	now = now.Add(14 * time.Minute)
	_, err := c.Get(ctx, "reset:abc")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "reset:abc")
	assert.True(t, errors.Is(err, providers.ErrCacheMiss))

	exists, _ := c.Exists(ctx, "reset:abc")
	assert.False(t, exists)
}

func TestMemoryAdapter_DeletePattern(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryAdapter()
	for _, key := range []string{"http:cache:reviews:1", "http:cache:reviews:2", "movie:1"} {
		require.NoError(t, c.Set(ctx, key, []byte("x"), 0))
	}

	require.NoError(t, c.DeletePattern(ctx, "http:cache:reviews:*"))

	_, err := c.Get(ctx, "http:cache:reviews:1")
	assert.Error(t, err)
	_, err = c.Get(ctx, "movie:1")
	assert.NoError(t, err)
}

func TestMemoryAdapter_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryAdapter()
	value := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'z'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	got[1] = 'z'

	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}
