package repository

import (
	"context"
	"testing"
	"time"

	"shortlify/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRedis_Fail(t *testing.T) {
	client, err := InitRedis("localhost:1", "", 0)
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestRouteCache_Nil(t *testing.T) {
	ctx := context.Background()
	cache := NewRouteCache(nil, time.Minute)
	assert.Nil(t, cache)

	link, ok, err := cache.Get(ctx, "abc")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, link)
	assert.NoError(t, cache.Set(ctx, &models.Link{ShortID: "abc"}))
	assert.NoError(t, cache.Invalidate(ctx, "abc"))
}

func TestRouteCache_Unreachable(t *testing.T) {
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:1", MaxRetries: -1})
	defer rdb.Close()
	cache := NewRouteCache(rdb, time.Minute)

	_, ok, err := cache.Get(ctx, "abc")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, cache.Set(ctx, &models.Link{ShortID: "abc", LongURL: "https://x.com"}))
	assert.Error(t, cache.Invalidate(ctx, "abc"))
}

func TestRouteCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	cache := NewRouteCache(rdb, time.Minute)

	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, cache.Set(ctx, &models.Link{
		ShortID:    "abc",
		LongURL:    "https://x.com",
		OwnerRef:   "owner-1",
		IsActive:   false,
		ExpiresAt:  &expires,
		ClickCount: 42,
		Events:     []models.AnalyticsEvent{{Referrer: "Direct"}},
	}))
	assert.Equal(t, time.Minute, mr.TTL("link:abc"))

	link, ok, err := cache.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", link.ShortID)
	assert.Equal(t, "https://x.com", link.LongURL)
	assert.Equal(t, "owner-1", link.OwnerRef)
	assert.False(t, link.IsActive)
	require.NotNil(t, link.ExpiresAt)
	assert.True(t, expires.Equal(*link.ExpiresAt))
	assert.Zero(t, link.ClickCount)
	assert.Empty(t, link.Events)

	require.NoError(t, cache.Invalidate(ctx, "abc"))
	_, ok, err = cache.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	t.Run("Corrupt Entry", func(t *testing.T) {
		require.NoError(t, mr.Set("link:bad", "{not json"))
		_, ok, err := cache.Get(ctx, "bad")
		assert.Error(t, err)
		assert.False(t, ok)
	})
}
