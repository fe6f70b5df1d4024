package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/infrastructure/config"
)

// redisDialer is swapped in tests
type redisDialer func(ctx context.Context, cfg RedisConfig) (shared.IdempotencyStore, error)

func dialRedis(ctx context.Context, cfg RedisConfig) (shared.IdempotencyStore, error) {
	return NewRedisIdempotencyStore(ctx, cfg)
}

// IdempotencyStoreFactory picks the delivery key store from configuration
type IdempotencyStoreFactory struct {
	redisConfig           config.RedisConfig
	useRedis              bool
	logger                *zap.Logger
	allowInMemoryFallback bool
	dial                  redisDialer
}

// IdempotencyStoreFactoryOption is a functional option for configuring the factory
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory store. Defaults to true.
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewIdempotencyStoreFactory creates a factory for the given configuration
func NewIdempotencyStoreFactory(redisCfg config.RedisConfig, eventCfg config.EventConfig, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		redisConfig:           redisCfg,
		useRedis:              eventCfg.UseRedis,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		dial:                  dialRedis,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store when enabled, otherwise an in-memory one
func (f *IdempotencyStoreFactory) CreateStore(ctx context.Context) (shared.IdempotencyStore, error) {
	if !f.useRedis {
		f.logger.Info("Using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	}

	store, err := f.dial(ctx, RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("Using Redis idempotency store",
			zap.String("host", f.redisConfig.Host), zap.Int("port", f.redisConfig.Port))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis idempotency store unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
	return NewInMemoryIdempotencyStore(), nil
}
