// Package database provides PostgreSQL connection pooling
// using pgx, and the embedded schema migrations.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"
)

// PoolOptions tunes the connection pool
type PoolOptions struct {
	MaxConns int32
	MinConns int32
	// Logger receives pgx query traces when LogQueries is set
	Logger     *zap.SugaredLogger
	LogQueries bool
}

// NewPool creates a new PostgreSQL connection pool
func NewPool(ctx context.Context, databaseURL string, opts PoolOptions) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}

	config.MaxConns = 25
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	config.MinConns = min(5, config.MaxConns)
	if opts.MinConns > 0 {
		config.MinConns = min(opts.MinConns, config.MaxConns)
	}
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	if opts.LogQueries && opts.Logger != nil {
		config.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   queryLogger(opts.Logger),
			LogLevel: tracelog.LogLevelDebug,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return pool, nil
}

// queryLogger forwards pgx trace events to zap at the matching level
func queryLogger(logger *zap.SugaredLogger) tracelog.LoggerFunc {
	return func(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		kv := make([]any, 0, len(data)*2)
		for k, v := range data {
			kv = append(kv, k, v)
		}
		switch level {
		case tracelog.LogLevelError:
			logger.Errorw(msg, kv...)
		case tracelog.LogLevelWarn:
			logger.Warnw(msg, kv...)
		case tracelog.LogLevelInfo:
			logger.Infow(msg, kv...)
		default:
			logger.Debugw(msg, kv...)
		}
	}
}
