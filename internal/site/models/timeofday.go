package models

import (
	"fmt"
	"time"

	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
)

// TimeOfDay is a wall-clock time of day in seconds since midnight. It is a
// time-of-day, not a duration and not an instant: the deployment's
// configured cutoff location turns it into an instant on a given date.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM:SS" in the range 00:00:00–23:59:59.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%2d:%2d:%2d", &h, &m, &sec); err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "time of day must be formatted HH:MM:SS")
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "time of day out of range")
	}
	if canonical := fmt.Sprintf("%02d:%02d:%02d", h, m, sec); canonical != s {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "time of day must be formatted HH:MM:SS")
	}
	return TimeOfDay(h*3600 + m*60 + sec), nil
}

// Valid reports whether t is within a single day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < 24*3600
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(t)/3600, int(t)%3600/60, int(t)%60)
}

// On returns the instant at which this time of day occurs on the calendar
// date of day, evaluated in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.In(loc).Date()
	return time.Date(y, m, d, int(t)/3600, int(t)%3600/60, int(t)%60, 0, loc)
}

// LatestNotAfter returns the most recent instant at or before now at which
// this time of day occurred, evaluated in loc. The scheduler uses it to
// discover due and missed cutoffs from persisted state alone.
func (t TimeOfDay) LatestNotAfter(now time.Time, loc *time.Location) time.Time {
	candidate := t.On(now, loc)
	if candidate.After(now) {
		candidate = t.On(now.In(loc).AddDate(0, 0, -1), loc)
	}
	return candidate
}
