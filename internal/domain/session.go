package domain

import "time"

// Session status values.
const (
	SessionOpen   = "OPEN"
	SessionClosed = "CLOSED"
)

// LoginSession is one attendance interval for a user: OPEN while clocked in,
// CLOSED once ended (by the user, by force, or by the daily sweep).
//
// Times are wall-clock instants in the fixed business timezone. BusinessDay is
// derived from SessionStart when the row is created and never changes for the
// lifetime of the session, even across clock-out/clock-in reactivation.
type LoginSession struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Status       string     `json:"status"`
	SessionStart time.Time  `json:"session_start"`
	SessionEnd   *time.Time `json:"session_end,omitempty"`
	// Duration is whole minutes; 0 while OPEN, set at close.
	Duration    int    `json:"duration"`
	Timezone    string `json:"timezone"`
	BusinessDay string `json:"business_day"`
}

// IsOpen reports whether the session is currently clocked in.
func (s *LoginSession) IsOpen() bool { return s.Status == SessionOpen }
