package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"taskboard/config"
	"taskboard/utils"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

const deadlinesPrefix = "deadlines:"

// DueCache stores rendered deadline reports per user.
type DueCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Invalidate drops every entry of userID.
	Invalidate(ctx context.Context, userID string) error
	Name() string
}

// DeadlinesKey names the report of userID computed on day for a window of days.
func DeadlinesKey(userID string, day time.Time, days int) string {
	return fmt.Sprintf("%s%s:%s:%d", deadlinesPrefix, userID, day.Format("2006-01-02"), days)
}

func userPrefix(userID string) string {
	return deadlinesPrefix + userID + ":"
}

// NewDueCache returns a Redis cache when a URL is configured, else an in-process LRU.
func NewDueCache(cfg config.CacheConfig) (DueCache, error) {
	if cfg.RedisURL == "" {
		return NewLRUDueCache(cfg.LocalSize)
	}
	cache, err := NewRedisDueCache(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	log.Println("Deadline cache backed by Redis")
	return cache, nil
}

type RedisDueCache struct {
	Client *redis.Client
}

func NewRedisDueCache(redisURL string) (*RedisDueCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisDueCache{Client: client}, nil
}

func (c *RedisDueCache) Name() string { return "redis" }

func (c *RedisDueCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		utils.TrackCacheLookup(c.Name(), false)
		return nil, false, nil
	}
	if err != nil {
		utils.TrackError("cache", "redis_get_failed")
		return nil, false, err
	}
	utils.TrackCacheLookup(c.Name(), true)
	return val, true, nil
}

func (c *RedisDueCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.Client.Set(ctx, key, value, ttl).Err(); err != nil {
		utils.TrackError("cache", "redis_set_failed")
		return err
	}
	return nil
}

func (c *RedisDueCache) Invalidate(ctx context.Context, userID string) error {
	var cursor uint64
	pattern := userPrefix(userID) + "*"
	for {
		keys, next, err := c.Client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			utils.TrackError("cache", "redis_scan_failed")
			return fmt.Errorf("scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := c.Client.Del(ctx, keys...).Err(); err != nil {
				utils.TrackError("cache", "redis_del_failed")
				return fmt.Errorf("delete deadline keys: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *RedisDueCache) Close() error {
	return c.Client.Close()
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// LRUDueCache keeps reports in process memory, bounded by entry count.
type LRUDueCache struct {
	mu    sync.Mutex
	cache *lru.Cache[string, cacheEntry]
	now   func() time.Time
}

func NewLRUDueCache(size int) (*LRUDueCache, error) {
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &LRUDueCache{cache: cache, now: time.Now}, nil
}

func (c *LRUDueCache) Name() string { return "lru" }

func (c *LRUDueCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache.Get(key)
	if ok && !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		c.cache.Remove(key)
		ok = false
	}
	utils.TrackCacheLookup(c.Name(), ok)
	if !ok {
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (c *LRUDueCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := cacheEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.cache.Add(key, entry)
	return nil
}

func (c *LRUDueCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := userPrefix(userID)
	for _, key := range c.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Remove(key)
		}
	}
	return nil
}
