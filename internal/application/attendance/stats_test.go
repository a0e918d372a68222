package attendance

import (
	"context"
	"testing"

	"github.com/fieldforce-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// expectAttendance wires the current-month attendance lookup that every
// GetUserSessions call performs. The fixed test clock sits in January 2025.
func expectAttendance(repo *mockSessionRepo, worked int) {
	repo.On("CountDistinctWorkedDays", mock.Anything, mock.Anything, "2025-01-01", "2025-01-31").
		Return(worked, nil)
}

func TestGetUserSessions_DefaultsToToday(t *testing.T) {
	repo := &mockSessionRepo{}
	repo.On("FindInRange", mock.Anything, "u42", "2025-01-15", "2025-01-15", defaultQueryLimit).
		Return([]domain.LoginSession{}, nil)
	expectAttendance(repo, 0)

	res, err := newSvc(t, repo, "2025-01-15 10:00:00").GetUserSessions(context.Background(), "u42", SessionQuery{})

	require.NoError(t, err)
	assert.Equal(t, PeriodToday, res.Period)
	assert.Equal(t, "2025-01-15", res.StartDay)
	assert.Equal(t, "2025-01-15", res.EndDay)
	repo.AssertExpectations(t)
}

func TestGetUserSessions_UnknownPeriodFallsBackToToday(t *testing.T) {
	repo := &mockSessionRepo{}
	repo.On("FindInRange", mock.Anything, "u42", "2025-01-15", "2025-01-15", defaultQueryLimit).
		Return([]domain.LoginSession{}, nil)
	expectAttendance(repo, 0)

	res, err := newSvc(t, repo, "2025-01-15 10:00:00").GetUserSessions(context.Background(), "u42", SessionQuery{Period: "fortnight"})

	require.NoError(t, err)
	assert.Equal(t, PeriodToday, res.Period)
}

func TestGetUserSessions_WeekRangeIsMondayToSunday(t *testing.T) {
	repo := &mockSessionRepo{}
	// 2025-01-15 is a Wednesday; its week runs Mon 13th through Sun 19th.
	repo.On("FindInRange", mock.Anything, "u42", "2025-01-13", "2025-01-19", defaultQueryLimit).
		Return([]domain.LoginSession{}, nil)
	expectAttendance(repo, 0)

	res, err := newSvc(t, repo, "2025-01-15 10:00:00").GetUserSessions(context.Background(), "u42", SessionQuery{Period: PeriodWeek})

	require.NoError(t, err)
	assert.Equal(t, "2025-01-13", res.StartDay)
	assert.Equal(t, "2025-01-19", res.EndDay)
	repo.AssertExpectations(t)
}

func TestGetUserSessions_MonthRange(t *testing.T) {
	repo := &mockSessionRepo{}
	repo.On("FindInRange", mock.Anything, "u42", "2025-01-01", "2025-01-31", defaultQueryLimit).
		Return([]domain.LoginSession{}, nil)
	expectAttendance(repo, 0)

	res, err := newSvc(t, repo, "2025-01-15 10:00:00").GetUserSessions(context.Background(), "u42", SessionQuery{Period: PeriodMonth})

	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", res.StartDay)
	assert.Equal(t, "2025-01-31", res.EndDay)
}

func TestGetUserSessions_CustomRangeSwapsReversedBounds(t *testing.T) {
	repo := &mockSessionRepo{}
	repo.On("FindInRange", mock.Anything, "u42", "2025-01-02", "2025-01-10", defaultQueryLimit).
		Return([]domain.LoginSession{}, nil)
	expectAttendance(repo, 0)

	res, err := newSvc(t, repo, "2025-01-15 10:00:00").GetUserSessions(context.Background(), "u42", SessionQuery{
		Period:    PeriodCustom,
		StartDate: "2025-01-10",
		EndDate:   "2025-01-02",
	})

	require.NoError(t, err)
	assert.Equal(t, PeriodCustom, res.Period)
	assert.Equal(t, "2025-01-02", res.StartDay)
	assert.Equal(t, "2025-01-10", res.EndDay)
	repo.AssertExpectations(t)
}

func TestGetUserSessions_CustomRangeWithBadDatesFallsBackToToday(t *testing.T) {
	repo := &mockSessionRepo{}
	repo.On("FindInRange", mock.Anything, "u42", "2025-01-15", "2025-01-15", defaultQueryLimit).
		Return([]domain.LoginSession{}, nil)
	expectAttendance(repo, 0)

	res, err := newSvc(t, repo, "2025-01-15 10:00:00").GetUserSessions(context.Background(), "u42", SessionQuery{
		Period:    PeriodCustom,
		StartDate: "01/10/2025",
		EndDate:   "2025-01-15",
	})

	require.NoError(t, err)
	assert.Equal(t, PeriodToday, res.Period)
}

func TestGetUserSessions_LimitClamped(t *testing.T) {
	repo := &mockSessionRepo{}
	repo.On("FindInRange", mock.Anything, "u42", mock.Anything, mock.Anything, 100).
		Return([]domain.LoginSession{}, nil)
	expectAttendance(repo, 0)

	_, err := newSvc(t, repo, "2025-01-15 10:00:00").GetUserSessions(context.Background(), "u42", SessionQuery{Limit: 5000})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestGetUserSessions_Summary(t *testing.T) {
	repo := &mockSessionRepo{}
	open := openSession(t, "s3", "u42", "2025-01-15 08:00:00")
	closedA := openSession(t, "s1", "u42", "2025-01-13 08:00:00")
	closedA.Status = domain.SessionClosed
	closedA.Duration = 480
	closedB := openSession(t, "s2", "u42", "2025-01-14 09:00:00")
	closedB.Status = domain.SessionClosed
	closedB.Duration = 125
	repo.On("FindInRange", mock.Anything, "u42", mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.LoginSession{*open, *closedA, *closedB}, nil)
	expectAttendance(repo, 0)

	res, err := newSvc(t, repo, "2025-01-15 10:00:00").GetUserSessions(context.Background(), "u42", SessionQuery{Period: PeriodWeek})

	require.NoError(t, err)
	assert.Equal(t, 3, res.Stats.TotalSessions)
	assert.Equal(t, 1, res.Stats.ActiveSessions)
	assert.Equal(t, 2, res.Stats.CompletedSessions)
	// Open sessions contribute nothing to the totals.
	assert.Equal(t, 605, res.Stats.TotalDurationMinutes)
	assert.InDelta(t, 10.08, res.Stats.TotalDurationHours, 0.001)
	assert.InDelta(t, 302.5, res.Stats.AverageDurationMinutes, 0.001)
}

func TestGetUserSessions_AttendanceRatioAlwaysCurrentMonth(t *testing.T) {
	repo := &mockSessionRepo{}
	// Sessions requested for a custom range in December, yet the ratio is
	// still computed over January, the month the clock sits in.
	repo.On("FindInRange", mock.Anything, "u42", "2024-12-01", "2024-12-07", mock.Anything).
		Return([]domain.LoginSession{}, nil)
	expectAttendance(repo, 20)

	res, err := newSvc(t, repo, "2025-01-15 10:00:00").GetUserSessions(context.Background(), "u42", SessionQuery{
		Period:    PeriodCustom,
		StartDate: "2024-12-01",
		EndDate:   "2024-12-07",
	})

	require.NoError(t, err)
	// January 2025 has 27 non-Sunday days.
	assert.Equal(t, 20, res.Stats.Attendance.WorkedDays)
	assert.Equal(t, 27, res.Stats.Attendance.TotalWorkingDays)
	assert.InDelta(t, 74.07, res.Stats.Attendance.Percentage, 0.001)
	repo.AssertExpectations(t)
}

func TestRatioPercent_ZeroTotal(t *testing.T) {
	assert.Equal(t, 0.0, ratioPercent(3, 0))
}
