package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldforce-api/internal/domain"
	"github.com/fieldforce-api/internal/pkg/businesstime"
)

// SessionRepository is the storage contract the attendance service requires.
// Implementations hold query shape only; all business rules live here.
type SessionRepository interface {
	FindOpen(ctx context.Context, userID, day string) (*domain.LoginSession, error)
	FindClosed(ctx context.Context, userID, day string) (*domain.LoginSession, error)
	FindOpenBefore(ctx context.Context, userID, day string) ([]domain.LoginSession, error)
	FindAllOpen(ctx context.Context) ([]domain.LoginSession, error)
	Create(ctx context.Context, userID string, start time.Time, timezone string) (*domain.LoginSession, error)
	Reopen(ctx context.Context, sessionID string) error
	Close(ctx context.Context, sessionID string, end time.Time, duration int) error
	FindInRange(ctx context.Context, userID, startDay, endDay string, limit int) ([]domain.LoginSession, error)
	CountOpen(ctx context.Context) (int, error)
	CountDistinctWorkedDays(ctx context.Context, userID, startDay, endDay string) (int, error)
}

// ClockInResult reports the outcome of a clock-in.
type ClockInResult struct {
	SessionID    string
	SessionStart time.Time
	// Continued is true when an existing same-day session was kept or
	// reopened instead of a new row being created.
	Continued bool
	Message   string
}

// ClockOutResult reports the outcome of a clock-out.
type ClockOutResult struct {
	SessionID  string
	SessionEnd time.Time
	Duration   int
	// Capped is true when the raw duration exceeded the maximum and the end
	// time was forced to the cutoff instead of the client-supplied instant.
	Capped bool
}

// StatusResult describes whether the user is currently clocked in.
type StatusResult struct {
	ClockedIn    bool
	SessionID    string
	SessionStart time.Time
	// LiveDuration is minutes since session start, uncapped: the cap applies
	// only at close time.
	LiveDuration int
}

// SweepResult aggregates one auto-clockout run.
type SweepResult struct {
	Closed int
	Failed int
}

// Service is the attendance session state machine: at most one OPEN session
// per user per business day, durations in whole minutes capped at close.
type Service interface {
	ClockIn(ctx context.Context, userID string, clientTime time.Time) (*ClockInResult, error)
	ClockOut(ctx context.Context, userID string, clientTime time.Time) (*ClockOutResult, error)
	Status(ctx context.Context, userID string) (*StatusResult, error)
	ForceClockout(ctx context.Context, userID string) (int, error)
	Sweep(ctx context.Context) (SweepResult, error)
	CountOpen(ctx context.Context) (int, error)
	GetUserSessions(ctx context.Context, userID string, q SessionQuery) (*SessionsResult, error)
}

// ServiceDeps carries the service dependencies and policy knobs.
type ServiceDeps struct {
	Repo SessionRepository
	Zone businesstime.Zone
	// CutoffHour is the forced end hour for every force-close path.
	CutoffHour int
	// MaxSessionMinutes caps any closed session's stored duration.
	MaxSessionMinutes int
	// MaxQueryLimit bounds the page size of session-history queries.
	MaxQueryLimit int
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

type service struct {
	repo       SessionRepository
	zone       businesstime.Zone
	cutoffHour int
	maxMinutes int
	maxLimit   int
	now        func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		repo:       deps.Repo,
		zone:       deps.Zone,
		cutoffHour: deps.CutoffHour,
		maxMinutes: deps.MaxSessionMinutes,
		maxLimit:   deps.MaxQueryLimit,
		now:        deps.Now,
	}
	if s.cutoffHour == 0 {
		s.cutoffHour = 18
	}
	if s.maxMinutes == 0 {
		s.maxMinutes = 480
	}
	if s.maxLimit == 0 {
		s.maxLimit = 100
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) ClockIn(ctx context.Context, userID string, clientTime time.Time) (*ClockInResult, error) {
	today := s.zone.DayOf(s.now())

	// Repair sessions a previous day's sweep might have missed.
	stale, err := s.repo.FindOpenBefore(ctx, userID, today)
	if err != nil {
		return nil, s.storageErr("clock-in", userID, err)
	}
	for i := range stale {
		if err := s.closeAtCutoff(ctx, &stale[i]); err != nil {
			slog.Warn("failed to repair stale open session",
				"user_id", userID, "session_id", stale[i].ID, "err", err)
		}
	}

	open, err := s.repo.FindOpen(ctx, userID, today)
	if err == nil {
		// Idempotent: the clock-in button can be pressed twice.
		return &ClockInResult{
			SessionID:    open.ID,
			SessionStart: open.SessionStart,
			Continued:    true,
			Message:      "continuing existing session",
		}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, s.storageErr("clock-in", userID, err)
	}

	// A clock-out earlier today is reopened rather than duplicated, so one
	// row keeps accounting for the whole day.
	closed, err := s.repo.FindClosed(ctx, userID, today)
	if err == nil {
		if err := s.repo.Reopen(ctx, closed.ID); err != nil {
			return nil, s.storageErr("clock-in", userID, err)
		}
		return &ClockInResult{
			SessionID:    closed.ID,
			SessionStart: closed.SessionStart,
			Continued:    true,
			Message:      "continuing today's session",
		}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, s.storageErr("clock-in", userID, err)
	}

	created, err := s.repo.Create(ctx, userID, clientTime, s.zone.Name())
	if errors.Is(err, domain.ErrConflict) {
		// Lost a concurrent clock-in race; continue the winner's session.
		if winner, ferr := s.repo.FindOpen(ctx, userID, today); ferr == nil {
			return &ClockInResult{
				SessionID:    winner.ID,
				SessionStart: winner.SessionStart,
				Continued:    true,
				Message:      "continuing existing session",
			}, nil
		}
		return nil, s.storageErr("clock-in", userID, err)
	}
	if err != nil {
		return nil, s.storageErr("clock-in", userID, err)
	}
	return &ClockInResult{
		SessionID:    created.ID,
		SessionStart: created.SessionStart,
		Message:      "clocked in",
	}, nil
}

func (s *service) ClockOut(ctx context.Context, userID string, clientTime time.Time) (*ClockOutResult, error) {
	today := s.zone.DayOf(s.now())

	open, err := s.repo.FindOpen(ctx, userID, today)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotClockedIn
	}
	if err != nil {
		return nil, s.storageErr("clock-out", userID, err)
	}

	raw := wholeMinutes(open.SessionStart, clientTime)
	if raw > s.maxMinutes {
		// Runaway duration (clock skew, forgotten clock-out): force the end
		// to the cutoff of the start day instead of trusting clientTime.
		end, err := s.zone.At(open.BusinessDay, s.cutoffHour)
		if err != nil {
			return nil, s.storageErr("clock-out", userID, err)
		}
		if err := s.repo.Close(ctx, open.ID, end, s.maxMinutes); err != nil {
			return nil, s.storageErr("clock-out", userID, err)
		}
		return &ClockOutResult{SessionID: open.ID, SessionEnd: end, Duration: s.maxMinutes, Capped: true}, nil
	}

	if err := s.repo.Close(ctx, open.ID, clientTime, raw); err != nil {
		return nil, s.storageErr("clock-out", userID, err)
	}
	return &ClockOutResult{SessionID: open.ID, SessionEnd: clientTime, Duration: raw}, nil
}

func (s *service) Status(ctx context.Context, userID string) (*StatusResult, error) {
	today := s.zone.DayOf(s.now())

	open, err := s.repo.FindOpen(ctx, userID, today)
	if errors.Is(err, domain.ErrNotFound) {
		return &StatusResult{ClockedIn: false}, nil
	}
	if err != nil {
		return nil, s.storageErr("status", userID, err)
	}
	return &StatusResult{
		ClockedIn:    true,
		SessionID:    open.ID,
		SessionStart: open.SessionStart,
		LiveDuration: wholeMinutes(open.SessionStart, s.now()),
	}, nil
}

func (s *service) ForceClockout(ctx context.Context, userID string) (int, error) {
	today := s.zone.DayOf(s.now())

	open, err := s.repo.FindOpenBefore(ctx, userID, today)
	if err != nil {
		return 0, s.storageErr("force-clockout", userID, err)
	}
	cur, err := s.repo.FindOpen(ctx, userID, today)
	if err == nil {
		open = append(open, *cur)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return 0, s.storageErr("force-clockout", userID, err)
	}

	if len(open) == 0 {
		return 0, domain.ErrNothingToClose
	}

	closed := 0
	for i := range open {
		if err := s.closeAtCutoff(ctx, &open[i]); err != nil {
			slog.Warn("force-clockout failed for session",
				"user_id", userID, "session_id", open[i].ID, "err", err)
			continue
		}
		closed++
	}
	if closed == 0 {
		return 0, s.storageErr("force-clockout", userID, errors.New("all closes failed"))
	}
	return closed, nil
}

// Sweep force-closes every OPEN session, any user, any day. Per-session
// failures are counted and logged, never aborting the rest of the run.
func (s *service) Sweep(ctx context.Context) (SweepResult, error) {
	open, err := s.repo.FindAllOpen(ctx)
	if err != nil {
		return SweepResult{}, s.storageErr("auto-clockout", "", err)
	}
	var res SweepResult
	for i := range open {
		if err := s.closeAtCutoff(ctx, &open[i]); err != nil {
			res.Failed++
			slog.Warn("auto-clockout failed for session",
				"user_id", open[i].UserID, "session_id", open[i].ID, "err", err)
			continue
		}
		res.Closed++
	}
	return res, nil
}

func (s *service) CountOpen(ctx context.Context) (int, error) {
	n, err := s.repo.CountOpen(ctx)
	if err != nil {
		return 0, s.storageErr("count-open", "", err)
	}
	return n, nil
}

// closeAtCutoff ends a session at CutoffHour on the session's own start day,
// with the duration computed and capped the same way as a normal clock-out.
// The clock-in repair sweep, manual force-clockout and the daily scheduler
// all close through here so the semantics cannot drift apart.
func (s *service) closeAtCutoff(ctx context.Context, sess *domain.LoginSession) error {
	end, err := s.zone.At(sess.BusinessDay, s.cutoffHour)
	if err != nil {
		return err
	}
	dur := wholeMinutes(sess.SessionStart, end)
	if dur > s.maxMinutes {
		dur = s.maxMinutes
	}
	return s.repo.Close(ctx, sess.ID, end, dur)
}

// wholeMinutes is floor((end-start)/60s), clamped at zero so a client clock
// behind the session start can never produce a negative duration.
func wholeMinutes(start, end time.Time) int {
	m := int(end.Sub(start) / time.Minute)
	if m < 0 {
		return 0
	}
	return m
}

func (s *service) storageErr(op, userID string, err error) error {
	slog.Error("attendance storage failure", "op", op, "user_id", userID, "err", err)
	return fmt.Errorf("%s: %w", op, domain.ErrStorage)
}
