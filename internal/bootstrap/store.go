package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/target/sso-bridge/config"
	"github.com/target/sso-bridge/internal/adapters/badger"
	redisadapter "github.com/target/sso-bridge/internal/adapters/redis"
	"github.com/target/sso-bridge/internal/ports"
)

// TokenKV is an opened token backend together with its lifecycle hooks.
type TokenKV struct {
	KV     ports.KVStore
	Health func(ctx context.Context) error
	Close  func() error
}

// OpenTokenKV opens the key/value backend selected by cfg.Store.
func OpenTokenKV(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*TokenKV, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		client, err := ConnectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return &TokenKV{
			KV:     redisadapter.NewKVStoreWithPrefix(client, redisKeyPrefix(cfg)),
			Health: func(ctx context.Context) error { return client.Ping(ctx).Err() },
			Close:  client.Close,
		}, nil

	case config.StoreBackendMemory, config.StoreBackendBadger, "":
		inMemory := cfg.Store.Backend == config.StoreBackendMemory
		store, err := badger.Open(badger.Options{
			Path:     cfg.Store.Path,
			InMemory: inMemory,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "token store opened", "backend", "badger", "path", cfg.Store.Path, "in_memory", inMemory)
		return &TokenKV{KV: store, Health: store.Healthcheck, Close: store.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}

// redisKeyPrefix hash-tags the configured prefix in cluster mode.
func redisKeyPrefix(cfg *config.AppConfig) string {
	if cfg.Redis.UseCluster {
		return redisadapter.HashTagPrefix(cfg.Store.KeyPrefix)
	}
	return cfg.Store.KeyPrefix
}
