// Package businesstime normalizes wall-clock instants to the single fixed
// business timezone and derives the business-day keys used to group
// attendance sessions. Every component that groups or filters sessions by day
// must go through this package; using the server's local day is a defect.
package businesstime

import (
	"fmt"
	"time"
)

// DayFormat is the business-day key layout (YYYY-MM-DD).
const DayFormat = "2006-01-02"

// ClientTimeLayout is the wall-clock layout used on the wire, second
// precision, already expressed in business time.
const ClientTimeLayout = "2006-01-02 15:04:05"

// Zone is a fixed UTC offset representing the business timezone.
type Zone struct {
	loc  *time.Location
	name string
}

// NewZone builds a Zone from an offset in minutes east of UTC.
func NewZone(offsetMinutes int) Zone {
	sign := "+"
	abs := offsetMinutes
	if abs < 0 {
		sign = "-"
		abs = -abs
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", sign, abs/60, abs%60)
	return Zone{loc: time.FixedZone(name, offsetMinutes*60), name: name}
}

// Name returns the zone identifier stored on every session row, e.g. "UTC+07:00".
func (z Zone) Name() string { return z.name }

// Location returns the underlying fixed-offset location.
func (z Zone) Location() *time.Location { return z.loc }

// DayOf converts any instant to the business day it falls on. Pure and total:
// inputs crossing midnight in either UTC or business time resolve to exactly
// one day.
func (z Zone) DayOf(t time.Time) string {
	return t.In(z.loc).Format(DayFormat)
}

// ParseClientTime parses a caller-supplied wall-clock string as business time.
func (z Zone) ParseClientTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(ClientTimeLayout, s, z.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid client time %q: %w", s, err)
	}
	return t, nil
}

// FormatClientTime renders an instant as a business wall-clock string.
func (z Zone) FormatClientTime(t time.Time) string {
	return t.In(z.loc).Format(ClientTimeLayout)
}

// At returns the instant at hour:00:00 business time on the given day.
func (z Zone) At(day string, hour int) (time.Time, error) {
	d, err := time.ParseInLocation(DayFormat, day, z.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid business day %q: %w", day, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, z.loc), nil
}

// TodayRange returns the single-day range containing now.
func (z Zone) TodayRange(now time.Time) (string, string) {
	day := z.DayOf(now)
	return day, day
}

// WeekRange returns the Monday–Sunday range of the week containing now.
func (z Zone) WeekRange(now time.Time) (string, string) {
	t := now.In(z.loc)
	back := (int(t.Weekday()) + 6) % 7 // days since Monday
	monday := t.AddDate(0, 0, -back)
	sunday := monday.AddDate(0, 0, 6)
	return monday.Format(DayFormat), sunday.Format(DayFormat)
}

// MonthRange returns the first and last day of the calendar month containing now.
func (z Zone) MonthRange(now time.Time) (string, string) {
	t := now.In(z.loc)
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, z.loc)
	last := first.AddDate(0, 1, -1)
	return first.Format(DayFormat), last.Format(DayFormat)
}

// WorkingDaysInMonth counts the days of the calendar month containing now,
// excluding Sundays. This is the denominator of the attendance ratio.
func (z Zone) WorkingDaysInMonth(now time.Time) int {
	t := now.In(z.loc)
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, z.loc)
	next := first.AddDate(0, 1, 0)
	count := 0
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Sunday {
			count++
		}
	}
	return count
}
