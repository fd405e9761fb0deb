package ratelimit

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/adcraftlabs/adcraft/internal/config"
	redis "github.com/redis/go-redis/v9"
)

func provideRedis(cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Named("ratelimit").Info("redis not configured, rate limiting disabled")
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
}

var Module = fx.Module("rate.limit",
	fx.Provide(provideRedis),
	fx.Provide(NewTokenBucket),
	fx.Provide(NewGenerateLimiter),
)
