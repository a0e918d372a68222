package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Times are stored as business wall-clock text (second precision) rather than
// timestamps so the fixed business timezone is the single source of truth;
// ISO layout keeps text comparison equivalent to chronological order.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS login_history (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'OPEN',
		session_start TEXT NOT NULL,
		session_end TEXT,
		duration INTEGER NOT NULL DEFAULT 0,
		timezone TEXT NOT NULL,
		business_day TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS login_history_user_day_idx
		ON login_history (user_id, business_day)`,
	// At most one OPEN session per user per business day. An insert hitting
	// this index lost a concurrent clock-in race and is treated as
	// "continue existing session", not a failure.
	`CREATE UNIQUE INDEX IF NOT EXISTS login_history_open_uniq
		ON login_history (user_id, business_day) WHERE status = 'OPEN'`,
	`CREATE INDEX IF NOT EXISTS login_history_status_idx
		ON login_history (status)`,
}

// Bootstrap creates the session table and indexes if they don't exist.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}
