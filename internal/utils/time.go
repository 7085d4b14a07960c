package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/skillpulse/internal/constants"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// DateKey returns the YYYY-MM-DD calendar day of t in loc.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(constants.DateFormat)
}

// ParseDateKey parses a YYYY-MM-DD key as midnight in loc.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.Parse(constants.DateFormat, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// AddDays shifts a date key by n calendar days. Calendar arithmetic goes
// through time.Date so month and year boundaries and DST days are handled.
func AddDays(key string, n int) (string, error) {
	t, err := ParseDateKey(key, time.UTC)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(constants.DateFormat), nil
}

// DaysBetween returns the number of calendar days from b to a (a - b).
func DaysBetween(a, b string) (int, error) {
	ta, err := ParseDateKey(a, time.UTC)
	if err != nil {
		return 0, err
	}
	tb, err := ParseDateKey(b, time.UTC)
	if err != nil {
		return 0, err
	}
	return int(ta.Sub(tb).Hours() / 24), nil
}

// NextDailyReset returns the first daily-reset wall time (00:05 in loc) strictly
// after now.
func NextDailyReset(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(),
		constants.DailyResetHour, constants.DailyResetMinute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1,
			constants.DailyResetHour, constants.DailyResetMinute, 0, 0, loc)
	}
	return next
}

// UnixMilli converts epoch milliseconds into a time.Time.
func UnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// HoursUntil returns ceil((targetMs-nowMs)/1h), or 0 when target has passed.
func HoursUntil(nowMs, targetMs int64) int64 {
	remaining := targetMs - nowMs
	if remaining <= 0 {
		return 0
	}
	hour := time.Hour.Milliseconds()
	return (remaining + hour - 1) / hour
}
