package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// minRetry keeps Wait from spinning when the window is about to free a slot
const minRetry = 50 * time.Millisecond

// slidingWindow admits a request when fewer than limit members scored inside
// the window exist. It returns {allowed, remaining, retry_after_ms}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)

if count < limit then
	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, window)
	return {1, limit - count - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local retry = window
if oldest[2] then
	retry = tonumber(oldest[2]) + window - now
end
return {0, 0, retry}
`)

// RateLimitConfig is a per-provider request budget
type RateLimitConfig struct {
	Key    string // provider name, e.g. "trends" or "serp"
	Limit  int
	Window time.Duration
}

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter shares provider budgets across every engine process on the same Redis
// ⭐ SSOT: 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
}

// NewRateLimiter creates a limiter on client
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// ProviderRateLimit builds a per-minute budget for a signal provider; perMinute<=0 means 60
func ProviderRateLimit(provider string, perMinute int) RateLimitConfig {
	if perMinute <= 0 {
		perMinute = 60
	}
	return RateLimitConfig{Key: provider, Limit: perMinute, Window: time.Minute}
}

// Allow takes one slot from cfg's window if one is free. A disabled client
// admits everything.
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (Decision, error) {
	if !r.client.Enabled() {
		return Decision{Allowed: true, Remaining: cfg.Limit}, nil
	}

	res, err := slidingWindow.Run(ctx, r.client.rdb,
		[]string{r.client.Key("ratelimit", cfg.Key)},
		time.Now().UnixMilli(),
		cfg.Window.Milliseconds(),
		cfg.Limit,
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", cfg.Key, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("rate limit %s: unexpected reply %v", cfg.Key, res)
	}

	return Decision{
		Allowed:    res[0] == 1,
		Remaining:  int(res[1]),
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// Wait blocks until cfg admits a request or ctx is done
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		d, err := r.Allow(ctx, cfg)
		if err != nil {
			return err
		}
		if d.Allowed {
			return nil
		}

		delay := d.RetryAfter
		if delay < minRetry {
			delay = minRetry
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
