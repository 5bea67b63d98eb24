package streak

import "time"

const (
	mvpTaskCap        = 5
	mvpPointsPerTask  = 10
	mvpStreakBonus    = 20
	mvpInactivityCost = 10
	mvpConsistencyCap = 25
)

// Score computes a member's MVP score for one day.
//
//	base        = min(validTasks, 5) * 10
//	adjustment  = +20 when the streak was maintained,
//	              -10 when nothing was completed at all, 0 otherwise
//	consistency = min(currentStreak * 5, 25)
//
// The result is clamped at zero.
func Score(tasksCompleted, validTasks int, streakMaintained bool, currentStreak int) int {
	capped := validTasks
	if capped > mvpTaskCap {
		capped = mvpTaskCap
	}
	score := capped * mvpPointsPerTask

	if streakMaintained {
		score += mvpStreakBonus
	} else if tasksCompleted == 0 {
		score -= mvpInactivityCost
	}

	consistency := currentStreak * 5
	if consistency > mvpConsistencyCap {
		consistency = mvpConsistencyCap
	}
	score += consistency

	if score < 0 {
		score = 0
	}
	return score
}

// Candidate is one room member's scored day, as fed into the MVP pick.
type Candidate struct {
	UserTelegramID  int64
	Score           int
	ValidTasks      int
	FirstCompletion time.Time
}

// PickMVP selects the day's winner among members with at least one valid
// completion. Ties go to the earliest first completion of the day, then to
// the lowest telegram id, so the outcome is stable for identical inputs.
func PickMVP(candidates []Candidate) (Candidate, bool) {
	var best Candidate
	found := false
	for _, c := range candidates {
		if c.ValidTasks <= 0 {
			continue
		}
		if !found || better(c, best) {
			best = c
			found = true
		}
	}
	return best, found
}

func better(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.FirstCompletion.Equal(b.FirstCompletion) {
		return a.FirstCompletion.Before(b.FirstCompletion)
	}
	return a.UserTelegramID < b.UserTelegramID
}
