package codestore

import (
	"context"
	"fmt"
	"time"

	"github.com/averix/identity/config"
	"github.com/averix/identity/services/logging"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func ProvideStore(lc fx.Lifecycle, cfg *config.Config, logger *logging.Service) (Store, error) {
	if !cfg.Redis.Enabled {
		logger.Info("code store using in-process backend")
		store := NewMemoryStore()
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				store.Close()
				return nil
			},
		})
		return store, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("code store using redis backend", zap.String("addr", cfg.Redis.Addr))
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})
	return NewRedisStore(client), nil
}

var Module = fx.Options(
	fx.Provide(ProvideStore),
)
