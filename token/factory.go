package token

import (
	"context"

	"github.com/jrsteele09/go-bank-client/internal/config"
	"github.com/pkg/errors"
	redis "github.com/redis/go-redis/v9"
)

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// NewStorageFromConfig builds the configured storage backend. The returned
// close func releases backend resources and is never nil.
func NewStorageFromConfig(ctx context.Context, cfg config.StorageConfig) (Storage, func() error, error) {
	noop := func() error { return nil }

	switch cfg.GetStorageBackend() {
	case BackendMemory:
		return NewMemoryStorage(), noop, nil
	case BackendFile, "":
		var opts []FileOption
		if passphrase := cfg.GetTokenPassphrase(); passphrase != "" {
			opts = append(opts, WithPassphrase(passphrase))
		}
		return NewFileStorage(cfg.GetTokenFile(), opts...), noop, nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.GetRedisPassword(),
			DB:       cfg.GetRedisDB(),
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, errors.Wrapf(err, "connect to redis at %s", cfg.GetRedisAddr())
		}
		return NewRedisStorage(client, cfg.GetRedisPrefix()), client.Close, nil
	default:
		return nil, noop, errors.Errorf("unknown token storage backend %q", cfg.GetStorageBackend())
	}
}
