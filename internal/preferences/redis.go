package preferences

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/levelup-ai/internal/models"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "levelup:prefs:"

const (
	fieldName      = "name"
	fieldEmail     = "email"
	fieldLanguage  = "defaultLanguage"
	fieldUpdatedAt = "updatedAt"
)

// RedisStore keeps each user's preferences in a Redis hash
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing client
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Get implements Store
func (s *RedisStore) Get(ctx context.Context, userID string) (*models.Preferences, error) {
	fields, err := s.client.HGetAll(ctx, redisKeyPrefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fromHash(fields), nil
}

// Merge implements Store. HSET only writes the provided fields, so concurrent merges of
// different fields never overwrite each other.
func (s *RedisStore) Merge(ctx context.Context, userID string, update models.PreferencesUpdate) (*models.Preferences, error) {
	values := map[string]any{fieldUpdatedAt: time.Now().UTC().Format(time.RFC3339)}
	if update.Name != "" {
		values[fieldName] = update.Name
	}
	if update.Email != "" {
		values[fieldEmail] = update.Email
	}
	if update.DefaultLanguage != "" {
		values[fieldLanguage] = update.DefaultLanguage
	}

	key := redisKeyPrefix + userID
	var all *redis.MapStringStringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values)
		all = pipe.HGetAll(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis merge failed: %w", err)
	}
	return fromHash(all.Val()), nil
}

// Ping implements Store
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func fromHash(fields map[string]string) *models.Preferences {
	p := &models.Preferences{
		Name:            fields[fieldName],
		Email:           fields[fieldEmail],
		DefaultLanguage: fields[fieldLanguage],
	}
	if ts, err := time.Parse(time.RFC3339, fields[fieldUpdatedAt]); err == nil {
		p.UpdatedAt = &ts
	}
	return p
}
