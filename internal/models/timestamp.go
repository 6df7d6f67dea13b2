package models

import (
	"time"

	"github.com/julianstephens/hemma/internal/constants"
)

// EpochTimestamp marks data that has never been edited; any real edit is newer.
var EpochTimestamp = FormatTimestamp(time.Unix(0, 0))

// FormatTimestamp renders t in the wire form, e.g. 2026-02-18T10:00:00.000Z.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(constants.TimestampFormat)
}

// ParseTimestamp parses an ISO-8601 timestamp. Unparseable input yields the
// zero time so it orders before every real timestamp.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// TimestampAtLeast reports whether a is at or after b.
func TimestampAtLeast(a, b string) bool {
	return !ParseTimestamp(a).Before(ParseTimestamp(b))
}

// DayForDate returns the day index of now relative to start, clamped into [0, TotalDays).
func DayForDate(start, now time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	n := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return ClampDay(int(n.Sub(s).Hours() / 24))
}

// ClampDay bounds a day index into [0, TotalDays).
func ClampDay(day int) int {
	if day < 0 {
		return 0
	}
	if day >= constants.TotalDays {
		return constants.TotalDays - 1
	}
	return day
}

// ValidDay reports whether day is inside [0, TotalDays).
func ValidDay(day int) bool {
	return day >= 0 && day < constants.TotalDays
}
