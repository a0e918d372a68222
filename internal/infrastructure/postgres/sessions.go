package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldforce-api/internal/domain"
	"github.com/fieldforce-api/internal/pkg/businesstime"
	"github.com/fieldforce-api/internal/pkg/id"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionColumns = `id, user_id, status, session_start, session_end, duration, timezone, business_day`

// SessionRepo provides typed Postgres operations for the login_history table.
// It holds query shape only; business rules live in the attendance service.
type SessionRepo struct {
	pool *pgxpool.Pool
	zone businesstime.Zone
}

func NewSessionRepo(pool *pgxpool.Pool, zone businesstime.Zone) *SessionRepo {
	return &SessionRepo{pool: pool, zone: zone}
}

// FindOpen returns the OPEN session for the user on the given business day.
// At most one exists by the unique index. Returns domain.ErrNotFound when
// the user is not clocked in that day.
func (r *SessionRepo) FindOpen(ctx context.Context, userID, day string) (*domain.LoginSession, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM login_history
		WHERE user_id = $1 AND business_day = $2 AND status = $3`,
		userID, day, domain.SessionOpen)
	return r.scanSession(row)
}

// FindClosed returns the most recently ended CLOSED session for the user on
// the given business day, if any.
func (r *SessionRepo) FindClosed(ctx context.Context, userID, day string) (*domain.LoginSession, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM login_history
		WHERE user_id = $1 AND business_day = $2 AND status = $3
		ORDER BY session_end DESC
		LIMIT 1`,
		userID, day, domain.SessionClosed)
	return r.scanSession(row)
}

// FindOpenBefore returns the user's sessions still OPEN on a business day
// strictly earlier than the given day, oldest first.
func (r *SessionRepo) FindOpenBefore(ctx context.Context, userID, day string) ([]domain.LoginSession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM login_history
		WHERE user_id = $1 AND business_day < $2 AND status = $3
		ORDER BY business_day`,
		userID, day, domain.SessionOpen)
	if err != nil {
		return nil, fmt.Errorf("query stale open sessions: %w", err)
	}
	return r.scanSessions(rows)
}

// FindAllOpen returns every OPEN session regardless of user or day.
func (r *SessionRepo) FindAllOpen(ctx context.Context) ([]domain.LoginSession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM login_history
		WHERE status = $1
		ORDER BY business_day, user_id`,
		domain.SessionOpen)
	if err != nil {
		return nil, fmt.Errorf("query all open sessions: %w", err)
	}
	return r.scanSessions(rows)
}

// Create inserts a new OPEN session starting at start. The business day is
// derived from start, never from "now". Returns domain.ErrConflict if an
// OPEN session already exists for the same user and day.
func (r *SessionRepo) Create(ctx context.Context, userID string, start time.Time, timezone string) (*domain.LoginSession, error) {
	s := &domain.LoginSession{
		ID:           id.New(),
		UserID:       userID,
		Status:       domain.SessionOpen,
		SessionStart: start,
		Duration:     0,
		Timezone:     timezone,
		BusinessDay:  r.zone.DayOf(start),
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO login_history (id, user_id, status, session_start, duration, timezone, business_day)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.UserID, s.Status, r.zone.FormatClientTime(start), s.Duration, s.Timezone, s.BusinessDay)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("open session already exists: %w", domain.ErrConflict)
		}
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

// Reopen sets a CLOSED session back to OPEN, clearing its end time and
// duration. The original session_start is left untouched.
func (r *SessionRepo) Reopen(ctx context.Context, sessionID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE login_history
		SET status = $2, session_end = NULL, duration = 0, updated_at = now()
		WHERE id = $1`,
		sessionID, domain.SessionOpen)
	if err != nil {
		return fmt.Errorf("reopen session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Close marks a session CLOSED with the given end time and duration minutes.
func (r *SessionRepo) Close(ctx context.Context, sessionID string, end time.Time, duration int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE login_history
		SET status = $2, session_end = $3, duration = $4, updated_at = now()
		WHERE id = $1`,
		sessionID, domain.SessionClosed, r.zone.FormatClientTime(end), duration)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindInRange returns the user's sessions with business days in
// [startDay, endDay], newest first, capped at limit.
func (r *SessionRepo) FindInRange(ctx context.Context, userID, startDay, endDay string, limit int) ([]domain.LoginSession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM login_history
		WHERE user_id = $1 AND business_day BETWEEN $2 AND $3
		ORDER BY session_start DESC
		LIMIT $4`,
		userID, startDay, endDay, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions in range: %w", err)
	}
	return r.scanSessions(rows)
}

// CountOpen returns the number of OPEN sessions across all users.
func (r *SessionRepo) CountOpen(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM login_history WHERE status = $1`,
		domain.SessionOpen).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count open sessions: %w", err)
	}
	return n, nil
}

// CountDistinctWorkedDays returns how many distinct non-Sunday business days
// in [startDay, endDay] have at least one session for the user.
func (r *SessionRepo) CountDistinctWorkedDays(ctx context.Context, userID, startDay, endDay string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT business_day)
		FROM login_history
		WHERE user_id = $1
		  AND business_day BETWEEN $2 AND $3
		  AND EXTRACT(DOW FROM business_day::date) <> 0`,
		userID, startDay, endDay).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count worked days: %w", err)
	}
	return n, nil
}

func (r *SessionRepo) scanSession(row pgx.Row) (*domain.LoginSession, error) {
	var s domain.LoginSession
	var start string
	var end *string
	err := row.Scan(&s.ID, &s.UserID, &s.Status, &start, &end, &s.Duration, &s.Timezone, &s.BusinessDay)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if s.SessionStart, err = r.zone.ParseClientTime(start); err != nil {
		return nil, fmt.Errorf("scan session start: %w", err)
	}
	if end != nil {
		t, err := r.zone.ParseClientTime(*end)
		if err != nil {
			return nil, fmt.Errorf("scan session end: %w", err)
		}
		s.SessionEnd = &t
	}
	return &s, nil
}

func (r *SessionRepo) scanSessions(rows pgx.Rows) ([]domain.LoginSession, error) {
	defer rows.Close()
	sessions := []domain.LoginSession{}
	for rows.Next() {
		s, err := r.scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}
