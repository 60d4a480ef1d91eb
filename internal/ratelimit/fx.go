package ratelimit

import (
	"context"

	"github.com/dunamis-edu/dunamis/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("ratelimit",
	fx.Provide(NewClient),
	fx.Provide(NewTokenBucket),
)

// NewClient connects to redis when an address is configured; otherwise
// it returns nil and rate limiting is disabled.
func NewClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Info("redis not configured, rate limiting disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				_ = ctx
				return client.Close()
			},
		})
	}

	return client
}
