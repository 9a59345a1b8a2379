package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/contentpulse/pkg/logger"
)

// Cache TTLs
const (
	TTLConfig       = 10 * time.Minute // current strategy config
	TTLLatestReport = 1 * time.Minute  // "latest" moves whenever a report is generated
	TTLReport       = 1 * time.Hour    // a stored week's report
)

// Cache is a JSON read-through cache. Redis failures are logged and treated
// as misses so a broken cache never fails an engine call. A nil *Cache is valid
// and caches nothing.
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	logger *logger.Logger
}

// NewCache creates a cache on client
func NewCache(client *Client, log *logger.Logger) *Cache {
	return &Cache{client: client, logger: log.WithComponent("cache")}
}

func (c *Cache) active() bool {
	return c != nil && c.client.Enabled()
}

// Get decodes the cached value for key into dest and reports whether it was found
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if !c.active() {
		return false
	}

	data, err := c.client.rdb.Get(ctx, c.client.Key("cache", key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache read failed")
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache entry undecodable, ignoring")
		return false
	}
	return true
}

// Set stores value under key for ttl
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !c.active() {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache encode failed")
		return
	}
	if err := c.client.rdb.Set(ctx, c.client.Key("cache", key), data, ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

// Delete drops keys
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if !c.active() || len(keys) == 0 {
		return
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.client.Key("cache", k)
	}
	if err := c.client.rdb.Del(ctx, full...).Err(); err != nil {
		c.logger.WithError(err).WithField("keys", keys).Warn("cache invalidate failed")
	}
}

// Load returns the cached T for key, or calls load and caches its result.
// A nil result from load (not found) is returned as-is and not cached.
func Load[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (*T, error)) (*T, error) {
	var cached T
	if c.Get(ctx, key, &cached) {
		return &cached, nil
	}

	v, err := load(ctx)
	if err != nil || v == nil {
		return v, err
	}
	c.Set(ctx, key, v, ttl)
	return v, nil
}

// Cache keys
const (
	StrategyConfigKey = "config:current"
	LatestReportKey   = "report:latest"
)

// ReportKey is the cache key of the report for the week starting weekStart (YYYY-MM-DD)
func ReportKey(weekStart string) string {
	return "report:week:" + weekStart
}
