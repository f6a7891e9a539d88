// internal/infrastructure/database/redis/connection.go
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/config"
)

// Client owns the Redis pool shared by the cart store and the rate limiter
type Client struct {
	rdb *redis.Client
	log logrus.FieldLogger
}

// NewConnection creates a new Redis connection and verifies it with a ping
func NewConnection(cfg *config.Config, log logrus.FieldLogger) (*Client, error) {
	opts := options(cfg.GetRedisAddr(), cfg.Redis)
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}

	log.WithFields(logrus.Fields{
		"addr":      opts.Addr,
		"db":        opts.DB,
		"pool_size": opts.PoolSize,
	}).Info("✅ Redis connection established successfully")

	return &Client{rdb: rdb, log: log}, nil
}

// options maps config onto client options, filling unset timeouts
func options(addr string, cfg config.RedisConfig) *redis.Options {
	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = 5 * time.Second
	}
	op := cfg.OpTimeout
	if op <= 0 {
		op = 3 * time.Second
	}

	return &redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  dial,
		ReadTimeout:  op,
		WriteTimeout: op,
		// WATCH retries in the cart store wait on the pool, not on the server
		PoolTimeout: op + time.Second,
	}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetClient returns the Redis client instance
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Health pings Redis and logs pool pressure when the ping fails
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		stats := c.rdb.PoolStats()
		c.log.WithError(err).WithFields(logrus.Fields{
			"total_conns": stats.TotalConns,
			"idle_conns":  stats.IdleConns,
			"timeouts":    stats.Timeouts,
		}).Warn("Redis health check failed")
		return err
	}
	return nil
}
