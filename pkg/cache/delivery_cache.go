package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DeliveryTTL bounds how long a delivered event id is remembered. Broker
	// redeliveries of the same event arrive well within this window.
	DeliveryTTL = 24 * time.Hour

	deliveryKeyPrefix = "notification:delivered"
)

// DeliveryCache remembers which events already produced a notification so a
// redelivered message does not message the user twice.
// Key format: "notification:delivered:{eventID}"
type DeliveryCache struct {
	client *RedisClient
	ttl    time.Duration
}

// NewDeliveryCache creates a DeliveryCache backed by the given RedisClient.
func NewDeliveryCache(r *RedisClient) *DeliveryCache {
	return &DeliveryCache{client: r, ttl: DeliveryTTL}
}

// Delivered reports whether eventID was already marked as delivered.
func (c *DeliveryCache) Delivered(ctx context.Context, eventID string) (bool, error) {
	_, err := c.client.Client().Get(ctx, c.key(eventID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get delivery: %w", err)
	}
	return true, nil
}

// MarkDelivered records eventID with the cache TTL.
func (c *DeliveryCache) MarkDelivered(ctx context.Context, eventID string) error {
	if err := c.client.Client().Set(ctx, c.key(eventID), time.Now().UTC().Format(time.RFC3339), c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set delivery: %w", err)
	}
	return nil
}

func (c *DeliveryCache) key(eventID string) string {
	return fmt.Sprintf("%s:%s", deliveryKeyPrefix, eventID)
}
