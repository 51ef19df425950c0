// Package redis provides Redis-backed repository implementations
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemorsel/recipegen/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewClient creates a Redis client from configuration and verifies the
// connection with a ping
func NewClient(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (redis.UniversalClient, error) {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{cfg.Addr()},
		Password:     cfg.Password,
		DB:           cfg.Database,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  10 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr(), err)
	}

	logger.Info("Connected to Redis",
		zap.String("addr", cfg.Addr()),
		zap.Int("db", cfg.Database),
	)
	return client, nil
}
