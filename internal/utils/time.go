package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	layoutDate = "2006-01-02"
	layoutTime = "15:04"
)

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ParseDate parses YYYY-MM-DD in local timezone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(layoutDate, strings.TrimSpace(s), time.Local)
}

// FormatDate formats time to YYYY-MM-DD in local timezone.
func FormatDate(t time.Time) string {
	return t.In(time.Local).Format(layoutDate)
}

// NormalizeClock validates and normalizes a departure time to HH:MM.
// Accepts HH:MM and HH:MM:SS.
func NormalizeClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("15:04:05", s); err == nil {
		return t.Format(layoutTime), nil
	}
	t, err := time.Parse(layoutTime, s)
	if err != nil {
		return "", fmt.Errorf("invalid time format: %q, expected HH:MM", s)
	}
	return t.Format(layoutTime), nil
}

// ClockNow returns the current local wall-clock time as HH:MM. Fixed
// width, so HH:MM strings compare correctly with <= and >=.
func ClockNow() string {
	return time.Now().Format(layoutTime)
}
