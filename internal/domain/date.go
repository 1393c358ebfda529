package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Day is the length of one calendar day in UTC.
const Day = 24 * time.Hour

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return t, nil
}

// TruncateDate drops the clock part and normalizes to UTC.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// WeekdayIndex maps a date to 0 (Monday) .. 6 (Sunday).
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// DaysBetween returns the whole number of days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(TruncateDate(b).Sub(TruncateDate(a)) / Day)
}
