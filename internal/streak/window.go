package streak

import "time"

// Day boundaries are always computed in UTC and compared over half-open
// [start, end) intervals so an event at exactly midnight belongs to the
// following day only.

func DayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func DayEnd(t time.Time) time.Time {
	return DayStart(t).AddDate(0, 0, 1)
}

// DayString returns the UTC calendar day of t as "YYYY-MM-DD". It is used
// as a natural key for per-day records.
func DayString(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func SameDay(a, b time.Time) bool {
	return DayStart(a).Equal(DayStart(b))
}

// DaysBetween returns the number of calendar days from a's UTC day to b's
// UTC day. Negative when b is on an earlier day than a.
func DaysBetween(a, b time.Time) int {
	return int(DayStart(b).Sub(DayStart(a)) / (24 * time.Hour))
}

// InWindow reports whether t falls inside [start, end).
func InWindow(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
