package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldforce-api/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool and verifies connectivity. Transient
// connect failures (database still starting, brief network loss) are retried
// with exponential backoff up to cfg.DBConnectMaxAttempts.
func Connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	backoff := cfg.DBConnectRetryBackoff
	var lastErr error
	for attempt := 1; attempt <= cfg.DBConnectMaxAttempts; attempt++ {
		if lastErr = pool.Ping(ctx); lastErr == nil {
			return pool, nil
		}
		if attempt == cfg.DBConnectMaxAttempts {
			break
		}
		slog.Warn("database not reachable, retrying",
			"attempt", attempt, "backoff", backoff, "err", lastErr)
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	pool.Close()
	return nil, fmt.Errorf("connect database: %w", lastErr)
}
