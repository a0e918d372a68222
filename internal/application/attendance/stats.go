package attendance

import (
	"context"
	"math"
	"time"

	"github.com/fieldforce-api/internal/domain"
	"github.com/fieldforce-api/internal/pkg/businesstime"
)

// Period values accepted by session-history queries.
const (
	PeriodToday  = "today"
	PeriodWeek   = "week"
	PeriodMonth  = "month"
	PeriodCustom = "custom"
)

const defaultQueryLimit = 31

// SessionQuery selects a slice of session history.
type SessionQuery struct {
	Period    string
	StartDate string
	EndDate   string
	Limit     int
}

// AttendanceRatio is worked non-Sunday days over total non-Sunday days,
// always for the current calendar month regardless of the requested period.
type AttendanceRatio struct {
	WorkedDays       int     `json:"worked_days"`
	TotalWorkingDays int     `json:"total_working_days"`
	Percentage       float64 `json:"percentage"`
}

// SessionStats aggregates the returned sessions plus the attendance ratio.
type SessionStats struct {
	TotalSessions          int             `json:"total_sessions"`
	ActiveSessions         int             `json:"active_sessions"`
	CompletedSessions      int             `json:"completed_sessions"`
	TotalDurationMinutes   int             `json:"total_duration_minutes"`
	TotalDurationHours     float64         `json:"total_duration_hours"`
	AverageDurationMinutes float64         `json:"average_duration_minutes"`
	Attendance             AttendanceRatio `json:"attendance"`
}

// SessionsResult is the read-side view over a user's session history.
type SessionsResult struct {
	Period   string                `json:"period"`
	StartDay string                `json:"start_day"`
	EndDay   string                `json:"end_day"`
	Sessions []domain.LoginSession `json:"sessions"`
	Stats    SessionStats          `json:"stats"`
}

func (s *service) GetUserSessions(ctx context.Context, userID string, q SessionQuery) (*SessionsResult, error) {
	period, startDay, endDay := s.resolveRange(q)

	limit := q.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	sessions, err := s.repo.FindInRange(ctx, userID, startDay, endDay, limit)
	if err != nil {
		return nil, s.storageErr("get-sessions", userID, err)
	}

	stats := summarize(sessions)

	// The UI always shows "this month's attendance" next to whichever
	// period's sessions are displayed.
	now := s.now()
	monthStart, monthEnd := s.zone.MonthRange(now)
	worked, err := s.repo.CountDistinctWorkedDays(ctx, userID, monthStart, monthEnd)
	if err != nil {
		return nil, s.storageErr("get-sessions", userID, err)
	}
	total := s.zone.WorkingDaysInMonth(now)
	stats.Attendance = AttendanceRatio{
		WorkedDays:       worked,
		TotalWorkingDays: total,
		Percentage:       ratioPercent(worked, total),
	}

	return &SessionsResult{
		Period:   period,
		StartDay: startDay,
		EndDay:   endDay,
		Sessions: sessions,
		Stats:    stats,
	}, nil
}

// resolveRange maps a period to a business-day range. Unknown periods and
// invalid custom bounds fall back to today; reversed custom bounds swap.
func (s *service) resolveRange(q SessionQuery) (string, string, string) {
	now := s.now()
	switch q.Period {
	case PeriodWeek:
		start, end := s.zone.WeekRange(now)
		return PeriodWeek, start, end
	case PeriodMonth:
		start, end := s.zone.MonthRange(now)
		return PeriodMonth, start, end
	case PeriodCustom:
		start, serr := time.Parse(businesstime.DayFormat, q.StartDate)
		end, eerr := time.Parse(businesstime.DayFormat, q.EndDate)
		if serr != nil || eerr != nil {
			day, _ := s.zone.TodayRange(now)
			return PeriodToday, day, day
		}
		if start.After(end) {
			start, end = end, start
		}
		return PeriodCustom, start.Format(businesstime.DayFormat), end.Format(businesstime.DayFormat)
	default:
		day, _ := s.zone.TodayRange(now)
		return PeriodToday, day, day
	}
}

func summarize(sessions []domain.LoginSession) SessionStats {
	var stats SessionStats
	stats.TotalSessions = len(sessions)
	for i := range sessions {
		if sessions[i].IsOpen() {
			stats.ActiveSessions++
			continue
		}
		stats.CompletedSessions++
		stats.TotalDurationMinutes += sessions[i].Duration
	}
	stats.TotalDurationHours = round2(float64(stats.TotalDurationMinutes) / 60)
	if stats.CompletedSessions > 0 {
		stats.AverageDurationMinutes = round2(float64(stats.TotalDurationMinutes) / float64(stats.CompletedSessions))
	}
	return stats
}

func ratioPercent(worked, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(100 * float64(worked) / float64(total))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
