package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const aliasKeyPrefix = "formalias:"

// RedisStore backs the alias registry with an external key-value store so
// aliases survive process restarts. A zero TTL keeps entries forever,
// matching the in-memory store's semantics.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) PutIfAbsent(ctx context.Context, alias, token string) (bool, error) {
	ok, err := s.client.SetNX(ctx, aliasKeyPrefix+alias, token, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Get(ctx context.Context, alias string) (string, bool, error) {
	token, err := s.client.Get(ctx, aliasKeyPrefix+alias).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return token, true, nil
}
