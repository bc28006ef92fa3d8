package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implements Store on top of a go-redis client.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing redis client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	return v, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, value, ttl).Result()
}

func (r *Redis) Incr(ctx context.Context, key string) (int64, error) {
	return r.client.Incr(ctx, key).Result()
}

func (r *Redis) ExpireNX(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.ExpireNX(ctx, key, ttl).Result()
	if err != nil {
		return false, err
	}
	if !ok {
		// ExpireNX reports false both for missing keys and for keys that
		// already carry an expiry. Distinguish via EXISTS.
		n, err := r.client.Exists(ctx, key).Result()
		if err != nil {
			return false, err
		}
		if n == 0 {
			return false, ErrNotFound
		}
	}

	return ok, nil
}

func (r *Redis) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// go-redis surfaces the redis sentinels as raw values: -2 missing key,
	// -1 no expiry.
	if d == time.Duration(-2) {
		return 0, ErrNotFound
	}
	if d < 0 {
		return 0, nil
	}

	return d, nil
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	return r.client.Del(ctx, keys...).Err()
}
