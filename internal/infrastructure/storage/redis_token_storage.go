package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gautamkumarcode/propmize-admin/domain"
	"github.com/redis/go-redis/v9"
)

// RedisTokenStorage implements domain.TokenStorage using Redis.
// Every dashboard client gets its own key namespace, the server-side
// equivalent of per-origin browser storage.
type RedisTokenStorage struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisTokenStorage creates a token storage scoped to clientID
func NewRedisTokenStorage(client *redis.Client, clientID string, ttl time.Duration) domain.TokenStorage {
	return &RedisTokenStorage{
		client: client,
		prefix: "dashboard:" + clientID + ":",
		ttl:    ttl,
	}
}

// Get implements domain.TokenStorage. A missing key yields "" and no error.
func (s *RedisTokenStorage) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s from Redis: %w", key, err)
	}
	return val, nil
}

// Set implements domain.TokenStorage
func (s *RedisTokenStorage) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store %s in Redis: %w", key, err)
	}
	return nil
}

// Remove implements domain.TokenStorage
func (s *RedisTokenStorage) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	return s.client.Del(ctx, full...).Err()
}
