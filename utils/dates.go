package utils

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for all date-only fields. Comparisons are
// done on the formatted string, never on time.Time, so two dates are equal
// iff their strings are equal.
const DateLayout = "2006-01-02"

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

// DaysBetween returns to - from in whole days. Negative when to is before
// from.
func DaysBetween(from, to string) (int, error) {
	f, err := ParseDate(from)
	if err != nil {
		return 0, err
	}
	t, err := ParseDate(to)
	if err != nil {
		return 0, err
	}
	return int(t.Sub(f).Hours() / 24), nil
}

// Today is the current UTC calendar date. The UI and the backend both treat
// challenge days as UTC dates, so a run logged at 23:30 local may land on
// the next door for users far west of UTC.
func Today() string {
	return time.Now().UTC().Format(DateLayout)
}
