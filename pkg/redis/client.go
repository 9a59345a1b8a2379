package redis

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/contentpulse/pkg/config"
)

const dialTimeout = 3 * time.Second

// Client is the shared Redis connection behind the config/report cache and
// the provider rate limits. Every key it hands out lives under one namespace.
// A disabled client (no rdb) turns cache and rate-limit calls into no-ops.
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb       *redis.Client
	namespace string
}

// New connects to Redis when cfg.Enabled, verifying the connection with a ping
func New(cfg config.RedisConfig, namespace string) (*Client, error) {
	if !cfg.Enabled {
		return NewDisabled(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        net.JoinHostPort(cfg.Host, cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	c := &Client{rdb: rdb, namespace: namespace}
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return c, nil
}

// NewDisabled returns a client that never talks to Redis
func NewDisabled() *Client {
	return &Client{}
}

// Enabled reports whether a connection is configured
func (c *Client) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Key joins parts under the client namespace, e.g. "strategy:cache:report:latest"
func (c *Client) Key(parts ...string) string {
	if c.namespace == "" {
		return strings.Join(parts, ":")
	}
	return c.namespace + ":" + strings.Join(parts, ":")
}

// Ping checks the connection; a disabled client is always healthy
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close closes the connection, if any
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}
