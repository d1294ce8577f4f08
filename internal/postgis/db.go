// Package postgis owns the persisted state of the service: the schema,
// the telemetry and flight writers, and the spatio-temporal query layer.
// All SQL the service issues lives in this package.
package postgis

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"svc_gis/internal/logging"
)

// Config holds PostgreSQL connection settings.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string // SSL mode (disable, require, verify-ca, verify-full). Default: disable.
	MaxConns int32  // Pool size. Default: 10.
}

// DB wraps the PostGIS connection pool. One pooled session is acquired
// per request and released when the request completes.
type DB struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// Open opens a connection pool to the PostGIS database.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, escapedPassword, cfg.Host, cfg.Port, cfg.Database, sslMode)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgis config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	if poolCfg.MaxConns <= 0 {
		poolCfg.MaxConns = 10
	}
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgis: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgis: %w", err)
	}

	return &DB{pool: pool, log: logging.Component("postgis")}, nil
}

// Close closes the connection pool.
func (d *DB) Close() {
	d.pool.Close()
}

// Pool returns the underlying connection pool for advanced operations.
func (d *DB) Pool() *pgxpool.Pool {
	return d.pool
}
