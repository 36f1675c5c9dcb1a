package scan_api

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// LastCodeStore remembers the previous accepted code per scanner so the
// camera entry point can drop repeated decodes of the frame still in front
// of the lens. Only the immediately preceding code is compared; a different
// code re-arms the previous one.
type LastCodeStore interface {
	Swap(ctx context.Context, scannerID, code string) (string, error)
}

// RedisLastCodeStore keeps the per-scanner state in Redis so dedupe survives
// gateway restarts and works across replicas.
type RedisLastCodeStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisLastCodeStore(client *redis.Client, ttl time.Duration) *RedisLastCodeStore {
	return &RedisLastCodeStore{Client: client, TTL: ttl}
}

// Swap stores code as the scanner's last accepted code and returns whatever
// was there before. An empty previous value means no recent scan.
func (s *RedisLastCodeStore) Swap(ctx context.Context, scannerID, code string) (string, error) {
	key := "scanner_last_code:" + scannerID
	prev, err := s.Client.GetSet(ctx, key, code).Result()
	if err == redis.Nil {
		prev = ""
	} else if err != nil {
		return "", err
	}
	if s.TTL > 0 {
		_ = s.Client.Expire(ctx, key, s.TTL).Err()
	}
	return prev, nil
}
