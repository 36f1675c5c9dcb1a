package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// capabilityEntry is the cached answer for one (user, event) pair.
type capabilityEntry struct {
	Allowed  bool      `json:"allowed"`
	CachedAt time.Time `json:"cached_at"`
}

// RedisCapabilityCache stores capability answers in Redis with a TTL so
// revoked assignments stop scanning within one cache window.
type RedisCapabilityCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCapabilityCache(client *redis.Client, ttl time.Duration) *RedisCapabilityCache {
	return &RedisCapabilityCache{Client: client, TTL: ttl}
}

func capabilityKey(userID, eventID string) string {
	return fmt.Sprintf("scan_cap:%s:%s", userID, eventID)
}

func (c *RedisCapabilityCache) Get(ctx context.Context, userID, eventID string) (bool, bool, error) {
	if c.Client == nil {
		return false, false, fmt.Errorf("redis client not initialized")
	}

	raw, err := c.Client.Get(ctx, capabilityKey(userID, eventID)).Result()
	if err == redis.Nil {
		return false, false, nil
	} else if err != nil {
		return false, false, fmt.Errorf("failed to read capability cache: %w", err)
	}

	var entry capabilityEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return false, false, fmt.Errorf("failed to unmarshal capability entry: %w", err)
	}

	return entry.Allowed, true, nil
}

func (c *RedisCapabilityCache) Set(ctx context.Context, userID, eventID string, allowed bool) error {
	if c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	entry := capabilityEntry{Allowed: allowed, CachedAt: time.Now()}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal capability entry: %w", err)
	}

	return c.Client.Set(ctx, capabilityKey(userID, eventID), raw, c.TTL).Err()
}
