package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name             string
		tasksCompleted   int
		validTasks       int
		streakMaintained bool
		currentStreak    int
		want             int
	}{
		{"busy day with long streak", 5, 5, true, 10, 95},
		{"idle day with leftover streak", 0, 0, false, 3, 5},
		{"valid tasks capped at five", 9, 9, false, 0, 50},
		{"single task no streak", 1, 1, false, 0, 10},
		{"streak bonus without tasks", 1, 0, true, 1, 25},
		{"consistency bonus capped", 2, 2, true, 40, 65},
		{"never below zero", 0, 0, false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.tasksCompleted, tt.validTasks, tt.streakMaintained, tt.currentStreak)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPickMVP(t *testing.T) {
	at := func(h int) time.Time {
		return time.Date(2024, 1, 9, h, 0, 0, 0, time.UTC)
	}

	t.Run("highest score wins", func(t *testing.T) {
		winner, ok := PickMVP([]Candidate{
			{UserTelegramID: 1, Score: 40, ValidTasks: 2, FirstCompletion: at(8)},
			{UserTelegramID: 2, Score: 70, ValidTasks: 3, FirstCompletion: at(12)},
			{UserTelegramID: 3, Score: 55, ValidTasks: 4, FirstCompletion: at(7)},
		})
		assert.True(t, ok)
		assert.Equal(t, int64(2), winner.UserTelegramID)
	})

	t.Run("tie broken by earliest completion", func(t *testing.T) {
		winner, ok := PickMVP([]Candidate{
			{UserTelegramID: 1, Score: 70, ValidTasks: 3, FirstCompletion: at(12)},
			{UserTelegramID: 2, Score: 70, ValidTasks: 3, FirstCompletion: at(6)},
		})
		assert.True(t, ok)
		assert.Equal(t, int64(2), winner.UserTelegramID)
	})

	t.Run("full tie broken by lowest id", func(t *testing.T) {
		winner, ok := PickMVP([]Candidate{
			{UserTelegramID: 9, Score: 70, ValidTasks: 3, FirstCompletion: at(6)},
			{UserTelegramID: 4, Score: 70, ValidTasks: 3, FirstCompletion: at(6)},
		})
		assert.True(t, ok)
		assert.Equal(t, int64(4), winner.UserTelegramID)
	})

	t.Run("members without valid tasks are ineligible", func(t *testing.T) {
		_, ok := PickMVP([]Candidate{
			{UserTelegramID: 1, Score: 5, ValidTasks: 0, FirstCompletion: at(6)},
		})
		assert.False(t, ok)
	})

	t.Run("order of candidates does not matter", func(t *testing.T) {
		a := []Candidate{
			{UserTelegramID: 2, Score: 70, ValidTasks: 3, FirstCompletion: at(6)},
			{UserTelegramID: 1, Score: 70, ValidTasks: 3, FirstCompletion: at(6)},
		}
		b := []Candidate{a[1], a[0]}

		wa, _ := PickMVP(a)
		wb, _ := PickMVP(b)
		assert.Equal(t, wa, wb)
		assert.Equal(t, int64(1), wa.UserTelegramID)
	})
}
