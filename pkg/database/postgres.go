package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prohmpiriya/event-inventory/pkg/config"
	"github.com/prohmpiriya/event-inventory/pkg/retry"
)

const healthTimeout = 2 * time.Second

// ConnectOptions controls startup behaviour. Connection and pool settings come from config.DatabaseConfig.
type ConnectOptions struct {
	ConnectTimeout time.Duration
	Tracing        bool
}

// Migrator owns a piece of schema
type Migrator interface {
	Migrate(ctx context.Context) error
}

// PostgresDB is the pool shared by the repositories and the saga store
type PostgresDB struct {
	pool *pgxpool.Pool
}

// Connect opens a pool and pings it, retrying per cfg.MaxRetries and cfg.RetryInterval
func Connect(ctx context.Context, cfg *config.DatabaseConfig, opts ConnectOptions) (*PostgresDB, error) {
	if cfg == nil {
		return nil, errors.New("database config is required")
	}

	poolCfg, err := poolConfig(cfg, opts)
	if err != nil {
		return nil, err
	}

	var pool *pgxpool.Pool
	result := retry.New(retry.ConnectConfig(cfg.MaxRetries, cfg.RetryInterval)).Do(ctx, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	if result.Err != nil {
		return nil, fmt.Errorf("failed to connect to postgres at %s after %d attempts: %w",
			net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)), result.Attempts, result.Cause())
	}

	return &PostgresDB{pool: pool}, nil
}

// ConnString renders cfg as a postgres URL; credentials are escaped
func ConnString(cfg *config.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.DBName,
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {cfg.SSLMode}}.Encode()
	}
	return u.String()
}

func poolConfig(cfg *config.DatabaseConfig, opts ConnectOptions) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 && cfg.MaxIdleConns <= cfg.MaxOpenConns {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
	if opts.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = opts.ConnectTimeout
	}
	if opts.Tracing {
		poolCfg.ConnConfig.Tracer = otelpgx.NewTracer(otelpgx.WithIncludeQueryParameters())
	}
	return poolCfg, nil
}

func (db *PostgresDB) Pool() *pgxpool.Pool {
	return db.pool
}

// Migrate applies each schema in order and stops at the first failure
func (db *PostgresDB) Migrate(ctx context.Context, migrators ...Migrator) error {
	for _, m := range migrators {
		if err := m.Migrate(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (db *PostgresDB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// HealthCheck pings the pool; used by the readiness check
func (db *PostgresDB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres unreachable: %w", err)
	}
	return nil
}
