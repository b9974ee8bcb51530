package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/levelup-ai/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "levelup:usage:"
	// Counters outlive their day so yesterday's usage stays inspectable.
	redisKeyTTL = 48 * time.Hour
)

// incrementIfBelowScript returns {allowed, count}.
var incrementIfBelowScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local limit = tonumber(ARGV[1])
if current >= limit then
  return {0, current}
end
current = redis.call("INCR", KEYS[1])
redis.call("EXPIRE", KEYS[1], ARGV[2])
return {1, current}
`)

// RedisStore keeps counters in Redis, shared across server instances
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing client
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(key models.UsageKey) string {
	return redisKeyPrefix + key.Day + ":" + key.UserID
}

// IncrementIfBelow implements Store with a Lua script so the compare and increment run atomically
func (s *RedisStore) IncrementIfBelow(ctx context.Context, key models.UsageKey, limit int) (int, bool, error) {
	res, err := incrementIfBelowScript.Run(ctx, s.client, []string{redisKey(key)}, limit, int(redisKeyTTL.Seconds())).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("redis increment failed: %w", err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("redis increment returned %d values", len(res))
	}
	return int(res[1]), res[0] == 1, nil
}

// Count implements Store
func (s *RedisStore) Count(ctx context.Context, key models.UsageKey) (int, error) {
	n, err := s.client.Get(ctx, redisKey(key)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get failed: %w", err)
	}
	return n, nil
}

// Reset implements Store
func (s *RedisStore) Reset(ctx context.Context, key models.UsageKey) error {
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// Ping implements Store
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
