// Package cache holds the notifier's optional Redis store. Redis only backs
// duplicate suppression for redelivered events, so it is sized for one
// message at a time and tuned to fail fast: a slow cache must never hold up
// a notification.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ghuser/budgetly/pkg/config"
)

// ErrDisabled is returned by NewRedisClient when REDIS_URL is empty.
var ErrDisabled = errors.New("cache: redis disabled")

const (
	// connectTimeout bounds the startup ping.
	connectTimeout = 2 * time.Second
	// commandTimeout bounds a single GET/SET on the dispatch path.
	commandTimeout = 500 * time.Millisecond
)

// RedisClient wraps redis.Client for the delivery cache.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient connects to cfg.RedisURL and verifies it with a ping.
// It returns ErrDisabled when no URL is configured; callers then run without
// duplicate suppression.
func NewRedisClient(ctx context.Context, cfg *config.Config) (*RedisClient, error) {
	url := strings.TrimSpace(cfg.RedisURL)
	if url == "" {
		return nil, ErrDisabled
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	// The consumer handles one message at a time; a handful of connections
	// covers it plus a draining overrun.
	opts.PoolSize = 4
	opts.MinIdleConns = 1
	// One retry at most; after that the dispatcher fails open.
	opts.MaxRetries = 1
	opts.DialTimeout = connectTimeout
	opts.ReadTimeout = commandTimeout
	opts.WriteTimeout = commandTimeout
	opts.PoolTimeout = commandTimeout

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisClient{client: rdb}, nil
}

// Ping checks the Redis connection health.
func (r *RedisClient) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close shuts down the connection pool. Safe on a nil client.
func (r *RedisClient) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}

// Client returns the underlying redis.Client for direct use.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}
