package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fieldforce-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSweep_ClosesEverySessionAtItsOwnCutoff(t *testing.T) {
	repo := &mockSessionRepo{}
	a := openSession(t, "a", "u1", "2025-01-05 08:30:00")
	b := openSession(t, "b", "u2", "2025-01-05 14:00:00")
	c := openSession(t, "c", "u3", "2025-01-04 07:00:00")
	repo.On("FindAllOpen", mock.Anything).
		Return([]domain.LoginSession{*a, *b, *c}, nil)

	// 08:30 to 18:00 is 570 minutes, capped at 480; 14:00 to 18:00 is 240;
	// the session from the 4th closes at its own day's cutoff, not today's.
	repo.On("Close", mock.Anything, "a", bt(t, "2025-01-05 18:00:00"), 480).Return(nil)
	repo.On("Close", mock.Anything, "b", bt(t, "2025-01-05 18:00:00"), 240).Return(nil)
	repo.On("Close", mock.Anything, "c", bt(t, "2025-01-04 18:00:00"), 480).Return(nil)

	res, err := newSvc(t, repo, "2025-01-05 19:00:00").Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SweepResult{Closed: 3}, res)
	repo.AssertExpectations(t)
}

func TestSweep_FailureIsIsolatedPerSession(t *testing.T) {
	repo := &mockSessionRepo{}
	a := openSession(t, "a", "u1", "2025-01-05 08:00:00")
	b := openSession(t, "b", "u2", "2025-01-05 09:00:00")
	repo.On("FindAllOpen", mock.Anything).
		Return([]domain.LoginSession{*a, *b}, nil)
	repo.On("Close", mock.Anything, "a", mock.Anything, mock.Anything).Return(errors.New("deadlock"))
	repo.On("Close", mock.Anything, "b", bt(t, "2025-01-05 18:00:00"), 480).Return(nil)

	res, err := newSvc(t, repo, "2025-01-05 19:00:00").Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SweepResult{Closed: 1, Failed: 1}, res)
}

func TestSweep_NothingOpen(t *testing.T) {
	repo := &mockSessionRepo{}
	repo.On("FindAllOpen", mock.Anything).Return([]domain.LoginSession{}, nil)

	res, err := newSvc(t, repo, "2025-01-05 19:00:00").Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, res)
}

func TestSweep_StorageFailure(t *testing.T) {
	repo := &mockSessionRepo{}
	repo.On("FindAllOpen", mock.Anything).Return(nil, errors.New("connection reset"))

	_, err := newSvc(t, repo, "2025-01-05 19:00:00").Sweep(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStorage))
}

// mockService stubs Service for scheduler tests; only Sweep is exercised.
type mockService struct {
	Service
	sweeps int
	panics bool
}

func (m *mockService) Sweep(ctx context.Context) (SweepResult, error) {
	m.sweeps++
	if m.panics {
		panic("boom")
	}
	return SweepResult{Closed: 2}, nil
}

func TestScheduler_UntilNextFire(t *testing.T) {
	cases := []struct {
		name string
		now  string
		want time.Duration
	}{
		{"before the hour", "2025-01-05 10:00:00", 9 * time.Hour},
		{"one second before", "2025-01-05 18:59:59", time.Second},
		{"exactly on the hour rolls to tomorrow", "2025-01-05 19:00:00", 24 * time.Hour},
		{"after the hour rolls to tomorrow", "2025-01-05 22:30:00", 20*time.Hour + 30*time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewScheduler(&mockService{}, testZone, 19)
			now := bt(t, tc.now)
			s.now = func() time.Time { return now }
			assert.Equal(t, tc.want, s.untilNextFire())
		})
	}
}

func TestScheduler_FireSurvivesPanic(t *testing.T) {
	svc := &mockService{panics: true}
	s := NewScheduler(svc, testZone, 19)

	assert.NotPanics(t, func() { s.fire(context.Background()) })
	assert.Equal(t, 1, svc.sweeps)
}

func TestScheduler_RunStopsOnContextCancel(t *testing.T) {
	svc := &mockService{}
	s := NewScheduler(svc, testZone, 19)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
}
