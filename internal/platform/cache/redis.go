package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"library_lending/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// Connect opens the shared Redis client used for login throttling and token
// revocation. It returns nil when no address is configured.
func Connect(cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.RedisAddr, err)
	}
	slog.Info("connected to redis", "addr", cfg.RedisAddr)
	return rdb, nil
}

func Close(rdb *redis.Client) {
	if rdb != nil {
		rdb.Close()
		slog.Info("redis connection closed")
	}
}
