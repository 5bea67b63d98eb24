package streak

import (
	"sort"
	"time"
)

// State is the streak counter kept per (user, room), per user globally and
// per room. LastActivity holds the UTC day of the most recent valid
// completion, nil when there has never been one. Longest never drops below
// Current.
type State struct {
	Current      int
	Longest      int
	LastActivity *time.Time
}

// Advance applies a valid completion on the given calendar day and returns
// the next state. The second return value reports whether the state changed:
// only the first valid completion of a day moves the streak, repeats on the
// same day are no-ops.
func (s State) Advance(day time.Time) (State, bool) {
	d := DayStart(day)

	if s.LastActivity == nil {
		s.Current = 1
		if s.Longest < 1 {
			s.Longest = 1
		}
		s.LastActivity = &d
		return s, true
	}

	switch gap := DaysBetween(*s.LastActivity, d); {
	case gap <= 0:
		// Same day or out-of-order backfill: nothing to do.
		return s, false
	case gap == 1:
		s.Current++
	default:
		// A full day (or more) was missed; the streak restarts.
		s.Current = 1
	}

	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	s.LastActivity = &d
	return s, true
}

// Decayed reports whether the daily sweep should zero the streak: there was
// no valid activity yesterday or today relative to now.
func (s State) Decayed(now time.Time) bool {
	if s.Current == 0 {
		return false
	}
	if s.LastActivity == nil {
		return true
	}
	return DaysBetween(*s.LastActivity, now) > 1
}

// Recompute derives a full streak state from the set of days that still
// hold at least one valid completion. It is used when a completion is
// deleted, so the stored counters never drift from the underlying history.
func Recompute(days []time.Time, now time.Time) State {
	if len(days) == 0 {
		return State{}
	}

	uniq := make(map[time.Time]struct{}, len(days))
	for _, d := range days {
		uniq[DayStart(d)] = struct{}{}
	}
	sorted := make([]time.Time, 0, len(uniq))
	for d := range uniq {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if DaysBetween(sorted[i-1], sorted[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	last := sorted[len(sorted)-1]
	current := 0
	// A run only counts as live when the last day is today or yesterday;
	// rows dated after now must not resurrect it.
	if gap := DaysBetween(last, now); gap >= 0 && gap <= 1 {
		current = run
	}

	return State{Current: current, Longest: longest, LastActivity: &last}
}
