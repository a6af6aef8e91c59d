package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sweetdelights/bakery-api/logger"
)

var RedisClient *redis.Client

// InitRedis connects to redis when REDIS_ADDR is set. A failed ping leaves
// RedisClient nil and the features that use it disabled.
func InitRedis(cfg *Config) {
	ctx := context.Background()
	if cfg.RedisAddr == "" {
		logger.Info(ctx, "REDIS_ADDR not set, login rate limiting disabled")
		RedisClient = nil
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn(ctx, "failed to connect to redis, rate limiting disabled", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		RedisClient = nil
		return
	}

	logger.Info(ctx, "redis connected", "addr", cfg.RedisAddr)
	RedisClient = client
}

// SetRedisClient replaces the redis client (primarily for testing)
func SetRedisClient(client *redis.Client) {
	RedisClient = client
}
