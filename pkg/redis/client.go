// Package redis opens the shared Redis connection used for sessions, locks,
// rate limits, deduplication and the job queue.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	connectBackoff    = 500 * time.Millisecond
	maxConnectBackoff = 5 * time.Second
)

// Config mirrors config.RedisConfig. URL wins over the discrete fields.
type Config struct {
	URL             string
	Addr            string
	Password        string
	DB              int
	PoolSize        int
	ConnectAttempts int
}

// Client is the instrumented go-redis client.
type Client struct {
	*redis.Client
}

// Options turns cfg into go-redis options.
func Options(cfg Config) (*redis.Options, error) {
	if cfg.URL != "" {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		if cfg.PoolSize > 0 {
			opts.PoolSize = cfg.PoolSize
		}
		return opts, nil
	}
	if cfg.Addr == "" {
		return nil, errors.New("redis address is empty")
	}

	return &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}, nil
}

// New connects to Redis, retrying the first PING while the server starts up.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}

	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	rdb.AddHook(metricsHook{})

	attempts := max(cfg.ConnectAttempts, 1)
	wait := connectBackoff
	for attempt := 1; ; attempt++ {
		err = rdb.Ping(ctx).Err()
		if err == nil {
			log.Info("redis connected", slog.String("addr", opts.Addr), slog.Int("db", opts.DB))
			return &Client{rdb}, nil
		}
		if attempt == attempts {
			break
		}

		log.Warn("redis not reachable yet", slog.Int("attempt", attempt), slog.Any("error", err))
		select {
		case <-ctx.Done():
			_ = rdb.Close()
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait = min(wait*2, maxConnectBackoff)
	}

	_ = rdb.Close()
	return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
}
