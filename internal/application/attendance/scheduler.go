package attendance

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldforce-api/internal/pkg/businesstime"
)

// Scheduler fires the auto-clockout sweep once per day at a fixed wall-clock
// hour in the business timezone, guaranteeing no session stays OPEN past the
// business day it started on even if the user never clocks out.
type Scheduler struct {
	svc  Service
	zone businesstime.Zone
	hour int
	now  func() time.Time
}

func NewScheduler(svc Service, zone businesstime.Zone, hour int) *Scheduler {
	return &Scheduler{svc: svc, zone: zone, hour: hour, now: time.Now}
}

// Run blocks until ctx is cancelled, firing the sweep at hour:00 business
// time each day. A failed run is logged and the next day's run still fires.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("auto-clockout scheduler started",
		"hour", s.hour, "timezone", s.zone.Name(), "next_in", s.untilNextFire())
	for {
		timer := time.NewTimer(s.untilNextFire())
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("auto-clockout scheduler stopped")
			return
		case <-timer.C:
		}
		s.fire(ctx)
	}
}

// fire executes one sweep, recovering any panic so the scheduler can never
// take the process down.
func (s *Scheduler) fire(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("auto-clockout run panicked", "panic", r)
		}
	}()
	res, err := s.svc.Sweep(ctx)
	if err != nil {
		slog.Error("auto-clockout run failed", "err", err)
		return
	}
	slog.Info("auto-clockout run finished", "closed", res.Closed, "failed", res.Failed)
}

// untilNextFire returns the duration until the next hour:00 business time,
// today if still ahead, otherwise tomorrow.
func (s *Scheduler) untilNextFire() time.Duration {
	now := s.now().In(s.zone.Location())
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, s.zone.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
