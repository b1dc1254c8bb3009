package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/telehealth-social/internal/config"
)

const clientName = "telehealth-social"

// options builds the client options for the booking lock store. Lock traffic
// is a couple of short commands per booking, so the pool stays small.
func options(cfg config.Config) *redis.Options {
	return &redis.Options{
		Addr:         cfg.RedisAddr,
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		ClientName:   clientName,
		DB:           0,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 1,
	}
}

// NewClient connects to Redis and pings it once before returning.
func NewClient(ctx context.Context, cfg config.Config, log *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(options(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.RedisAddr, err)
	}

	log.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
	return rdb, nil
}
