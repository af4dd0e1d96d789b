package db

import (
	"context"
	"fmt"
	"time"

	"clinic-app-go/internal/config"
	"clinic-app-go/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const defaultRedisTimeout = 5 * time.Second

// ConnectRedis opens a client and checks it with a ping.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, log logger.Logger) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRedisTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Info("redis: connected", "addr", cfg.Addr, "db", cfg.DB)
	return client, nil
}
