package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/prohmpiriya/event-inventory/pkg/config"
	"github.com/prohmpiriya/event-inventory/pkg/retry"
	"github.com/prohmpiriya/event-inventory/pkg/saga"
)

const healthTimeout = 2 * time.Second

// ConnectOptions controls startup behaviour. Connection settings come from config.RedisConfig.
type ConnectOptions struct {
	// Retries is the number of extra pings after the first one fails
	Retries int
	Backoff time.Duration
	Tracing bool
}

// Client is the Redis connection backing saga instance storage
type Client struct {
	rdb  *redis.Client
	addr string
}

// Connect dials Redis and pings it until it answers or the retries run out
func Connect(ctx context.Context, cfg *config.RedisConfig, opts ConnectOptions) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("redis config is required")
	}

	rdb := redis.NewClient(clientOptions(cfg))
	if opts.Tracing {
		if err := redisotel.InstrumentTracing(rdb); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
		}
	}

	result := retry.New(retry.ConnectConfig(opts.Retries, opts.Backoff)).Do(ctx, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if result.Err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s after %d attempts: %w", cfg.Addr(), result.Attempts, result.Cause())
	}

	return &Client{rdb: rdb, addr: cfg.Addr()}, nil
}

func clientOptions(cfg *config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// SagaStore keeps saga instances under prefix; each key expires ttl after its last write
func (c *Client) SagaStore(prefix string, ttl time.Duration) *saga.RedisStore {
	return saga.NewRedisStore(saga.NewRedisClientAdapter(c.rdb), prefix, ttl)
}

func (c *Client) Addr() string {
	return c.addr
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// HealthCheck pings Redis; used by the readiness check
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s unreachable: %w", c.addr, err)
	}
	return nil
}
