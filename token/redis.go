package token

import (
	"context"
	"time"

	"github.com/pkg/errors"
	redis "github.com/redis/go-redis/v9"
)

// RedisStorage keeps tokens in redis so several client processes can share
// one session. Keys are namespaced with a prefix.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ Storage = (*RedisStorage)(nil)

type RedisOption func(*RedisStorage)

// WithRedisTTL expires stored tokens after ttl; zero keeps them forever.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(r *RedisStorage) {
		r.ttl = ttl
	}
}

func NewRedisStorage(client redis.UniversalClient, prefix string, opts ...RedisOption) *RedisStorage {
	r := &RedisStorage{client: client, prefix: prefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "RedisStorage.Get")
	}
	return v, true, nil
}

func (r *RedisStorage) Set(ctx context.Context, key, value string) error {
	return errors.Wrap(r.client.Set(ctx, r.prefix+key, value, r.ttl).Err(), "RedisStorage.Set")
}

func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	return errors.Wrap(r.client.Del(ctx, r.prefix+key).Err(), "RedisStorage.Delete")
}
