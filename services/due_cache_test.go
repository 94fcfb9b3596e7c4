package services

import (
	"context"
	"os"
	"testing"
	"time"

	"taskboard/config"
	"taskboard/test/testutils"
	"taskboard/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2025, time.October, 20, 0, 0, 0, 0, time.UTC)

func TestDeadlinesKey(t *testing.T) {
	assert.Equal(t, "deadlines:u1:2025-10-20:7", DeadlinesKey("u1", day, 7))
}

// exerciseDueCache runs the behaviour every DueCache backend must share.
func exerciseDueCache(t *testing.T, cache DueCache) {
	ctx := context.Background()
	alice, bob := utils.NewID(), utils.NewID()

	_, ok, err := cache.Get(ctx, DeadlinesKey(alice, day, 7))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, DeadlinesKey(alice, day, 7), []byte(`{"a":7}`), time.Minute))
	require.NoError(t, cache.Set(ctx, DeadlinesKey(alice, day, 30), []byte(`{"a":30}`), time.Minute))
	require.NoError(t, cache.Set(ctx, DeadlinesKey(bob, day, 7), []byte(`{"b":7}`), time.Minute))

	got, ok, err := cache.Get(ctx, DeadlinesKey(alice, day, 7))
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":7}`, string(got))

	require.NoError(t, cache.Invalidate(ctx, alice))

	for _, key := range []string{DeadlinesKey(alice, day, 7), DeadlinesKey(alice, day, 30)} {
		_, ok, err = cache.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
	_, ok, err = cache.Get(ctx, DeadlinesKey(bob, day, 7))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLRUDueCache(t *testing.T) {
	cache, err := NewLRUDueCache(16)
	require.NoError(t, err)
	assert.Equal(t, "lru", cache.Name())
	exerciseDueCache(t, cache)
}

func TestLRUDueCacheExpiry(t *testing.T) {
	cache, err := NewLRUDueCache(16)
	require.NoError(t, err)

	clock := day
	cache.now = func() time.Time { return clock }

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "deadlines:u:k", []byte("v"), time.Minute))
	require.NoError(t, cache.Set(ctx, "deadlines:u:forever", []byte("v"), 0))

	clock = clock.Add(59 * time.Second)
	_, ok, _ := cache.Get(ctx, "deadlines:u:k")
	assert.True(t, ok)

	clock = clock.Add(time.Second)
	_, ok, _ = cache.Get(ctx, "deadlines:u:k")
	assert.False(t, ok)

	_, ok, _ = cache.Get(ctx, "deadlines:u:forever")
	assert.True(t, ok)
}

func TestLRUDueCacheEvicts(t *testing.T) {
	cache, err := NewLRUDueCache(2)
	require.NoError(t, err)

	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, cache.Set(ctx, key, []byte(key), 0))
	}
	_, ok, _ := cache.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = cache.Get(ctx, "c")
	assert.True(t, ok)
}

func TestNewDueCache(t *testing.T) {
	cache, err := NewDueCache(config.CacheConfig{LocalSize: 8})
	require.NoError(t, err)
	assert.Equal(t, "lru", cache.Name())

	_, err = NewDueCache(config.CacheConfig{RedisURL: "not a url", LocalSize: 8})
	assert.Error(t, err)
}

func TestRedisDueCache(t *testing.T) {
	testutils.SetupTestEnvironment()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set, skipping Redis integration test")
	}

	cache, err := NewRedisDueCache(url)
	require.NoError(t, err)
	defer cache.Close()

	assert.Equal(t, "redis", cache.Name())
	exerciseDueCache(t, cache)
}
