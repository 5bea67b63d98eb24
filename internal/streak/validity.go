package streak

import "time"

// DefaultMinCompletionGap is the minimum time a task must exist before a
// same-day completion of it can count toward streaks and MVP scoring.
const DefaultMinCompletionGap = 2 * time.Hour

// CompletionValid decides whether a task completion is eligible to count
// toward streaks and the daily MVP. A completion counts when the task
// already existed before the start of the completion's calendar day in the
// room's timezone, or when at least minGap elapsed between task creation
// and completion. Everything else is treated as create-and-complete farming
// and ignored. Missing timestamps fail closed.
func CompletionValid(taskCreatedAt, completedAt *time.Time, loc *time.Location, minGap time.Duration) bool {
	if taskCreatedAt == nil || completedAt == nil {
		return false
	}
	if loc == nil {
		loc = time.UTC
	}
	if minGap <= 0 {
		minGap = DefaultMinCompletionGap
	}

	local := completedAt.In(loc)
	localDayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if taskCreatedAt.Before(localDayStart) {
		return true
	}

	return completedAt.Sub(*taskCreatedAt) >= minGap
}
