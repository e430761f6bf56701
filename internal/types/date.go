package types

import (
	"time"
)

// TruncateToDay drops the clock part of t and normalizes it to UTC midnight.
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from start to end.
// The result is negative when end is before start.
func DaysBetween(start, end time.Time) int {
	s := TruncateToDay(start)
	e := TruncateToDay(end)
	return int(e.Sub(s).Hours() / 24)
}

// SameDay reports whether a and b fall on the same UTC calendar day
func SameDay(a, b time.Time) bool {
	return TruncateToDay(a).Equal(TruncateToDay(b))
}

// NthWeekdayOfMonth returns the date of the nth occurrence of weekday in the
// given month. n must be between 1 and 5; when the month has fewer
// occurrences the last one is returned. n == -1 selects the last occurrence.
func NthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	candidate := first.AddDate(0, 0, offset)

	if n == -1 {
		for candidate.AddDate(0, 0, 7).Month() == month {
			candidate = candidate.AddDate(0, 0, 7)
		}
		return candidate
	}

	for i := 1; i < n; i++ {
		next := candidate.AddDate(0, 0, 7)
		if next.Month() != month {
			break
		}
		candidate = next
	}
	return candidate
}
