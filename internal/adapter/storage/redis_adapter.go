package storage

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

const cartKeyPrefix = "storefront:"

type RedisAdapter struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAdapter stores carts without expiry when ttl is zero.
func NewRedisAdapter(client *redis.Client, ttl time.Duration) *RedisAdapter {
	return &RedisAdapter{client: client, ttl: ttl}
}

func (r *RedisAdapter) Read(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, cartKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "get %s", key)
	}

	return value, true, nil
}

func (r *RedisAdapter) Write(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, cartKeyPrefix+key, value, r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "set %s", key)
	}
	return nil
}
