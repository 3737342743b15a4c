package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const membershipKeyPrefix = "membership:"

type RedisMembershipCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisMembershipCache(client *redis.Client, ttl time.Duration) *RedisMembershipCache {
	return &RedisMembershipCache{client: client, ttl: ttl}
}

func (c *RedisMembershipCache) Get(ctx context.Context, tenantID, userID string) (bool, bool, error) {
	value, err := c.client.Get(ctx, membershipKey(tenantID, userID)).Result()
	if err == redis.Nil {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to get membership: %w", err)
	}
	return value == "1", true, nil
}

func (c *RedisMembershipCache) Set(ctx context.Context, tenantID, userID string, member bool) error {
	value := "0"
	if member {
		value = "1"
	}
	err := c.client.Set(ctx, membershipKey(tenantID, userID), value, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set membership: %w", err)
	}
	return nil
}

func (c *RedisMembershipCache) Invalidate(ctx context.Context, tenantID, userID string) error {
	err := c.client.Del(ctx, membershipKey(tenantID, userID)).Err()
	if err != nil {
		return fmt.Errorf("failed to invalidate membership: %w", err)
	}
	return nil
}

// Helper: build Redis key for a membership pair
func membershipKey(tenantID, userID string) string {
	return fmt.Sprintf("%s%s:%s", membershipKeyPrefix, tenantID, userID)
}
