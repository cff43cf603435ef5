package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/geocoder-bridge/internal/domain"
)

const redisKeyPrefix = "geocoder:"

// RedisStore keeps cached results in Redis as JSON with a TTL. Redis
// failures are logged and reported as misses.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisStore creates a store over an existing client.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, logger: logger}
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]domain.NativeAddress, bool) {
	data, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("redis cache get failed", "key", key, "error", err)
		return nil, false
	}

	var value []domain.NativeAddress
	if err := json.Unmarshal(data, &value); err != nil {
		s.logger.Warn("redis cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	return value, true
}

func (s *RedisStore) Put(ctx context.Context, key string, value []domain.NativeAddress) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("redis cache encode failed", "key", key, "error", err)
		return
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("redis cache set failed", "key", key, "error", err)
	}
}
