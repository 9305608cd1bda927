package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of a calendar date.
const DateLayout = "2006-01-02"

// Date is a local calendar date with no time-of-day component, formatted as
// YYYY-MM-DD. Lexical order equals chronological order.
type Date string

// ParseDate validates s as a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date(t.Format(DateLayout)), nil
}

// Today returns the local calendar date of now. The date is taken in the
// process time zone, never shifted to UTC.
func Today(now time.Time) Date {
	return Date(now.In(time.Local).Format(DateLayout))
}

// String implements fmt.Stringer.
func (d Date) String() string {
	return string(d)
}

// AddDays returns the date n days after d (before d when n is negative).
// d must be a valid date.
func (d Date) AddDays(n int) Date {
	// Arithmetic is done at UTC midnight so DST transitions cannot skip a day.
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return d
	}
	return Date(t.AddDate(0, 0, n).Format(DateLayout))
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d < other
}

// Range returns n consecutive dates starting at start.
func Range(start Date, n int) []Date {
	if n <= 0 {
		return nil
	}
	out := make([]Date, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, start.AddDays(i))
	}
	return out
}
