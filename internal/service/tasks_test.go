package service

import (
	"context"
	"testing"
	"time"

	"habitrooms/internal/model"
	"habitrooms/internal/repository"
	"habitrooms/internal/service/mocks"
	"habitrooms/internal/streak"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestTaskService_CompleteTask(t *testing.T) {
	roomID := uuid.New()
	taskID := uuid.New()
	telegramID := int64(123)

	room := &model.Room{ID: roomID, Name: "morning crew", Timezone: "UTC"}
	members := []*model.RoomMember{
		{RoomID: roomID, UserTelegramID: telegramID},
		{RoomID: roomID, UserTelegramID: 456},
	}

	freshTask := func(createdAt time.Time) *model.Task {
		return &model.Task{
			ID:        taskID,
			RoomID:    roomID,
			CreatedBy: telegramID,
			Title:     "run 5k",
			Points:    10,
			CreatedAt: createdAt,
		}
	}

	t.Run("task not found", func(t *testing.T) {
		repo := &mocks.MockTaskRepository{}
		repo.On("GetTask", mock.Anything, taskID).Return(nil, repository.ErrNotFound)

		s := NewTaskService(repo, nil)
		result, err := s.CompleteTask(context.Background(), taskID, telegramID)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})

	t.Run("archived task", func(t *testing.T) {
		archivedAt := time.Now().UTC().Add(-time.Hour)
		task := freshTask(time.Now().UTC().Add(-48 * time.Hour))
		task.ArchivedAt = &archivedAt

		repo := &mocks.MockTaskRepository{}
		repo.On("GetTask", mock.Anything, taskID).Return(task, nil)

		s := NewTaskService(repo, nil)
		result, err := s.CompleteTask(context.Background(), taskID, telegramID)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrTaskArchived)
	})

	t.Run("not a room member", func(t *testing.T) {
		repo := &mocks.MockTaskRepository{}
		repo.On("GetTask", mock.Anything, taskID).Return(freshTask(time.Now().UTC().Add(-48*time.Hour)), nil)
		repo.On("IsMember", mock.Anything, roomID, telegramID).Return(false, nil)

		s := NewTaskService(repo, nil)
		result, err := s.CompleteTask(context.Background(), taskID, telegramID)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrNotRoomMember)
	})

	t.Run("already completed today", func(t *testing.T) {
		repo := &mocks.MockTaskRepository{}
		repo.On("GetTask", mock.Anything, taskID).Return(freshTask(time.Now().UTC().Add(-48*time.Hour)), nil)
		repo.On("IsMember", mock.Anything, roomID, telegramID).Return(true, nil)
		repo.On("GetRoom", mock.Anything, roomID).Return(room, nil)
		repo.On("InsertCompletion", mock.Anything, mock.Anything).Return(repository.ErrAlreadyCompleted)

		s := NewTaskService(repo, nil)
		result, err := s.CompleteTask(context.Background(), taskID, telegramID)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrAlreadyCompletedToday)
		repo.AssertNotCalled(t, "UpdateUserPoints", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("valid completion awards points and advances streaks", func(t *testing.T) {
		repo := &mocks.MockTaskRepository{}
		notifier := &mocks.MockNotifier{}

		repo.On("GetTask", mock.Anything, taskID).Return(freshTask(time.Now().UTC().Add(-48*time.Hour)), nil)
		repo.On("IsMember", mock.Anything, roomID, telegramID).Return(true, nil)
		repo.On("GetRoom", mock.Anything, roomID).Return(room, nil)
		repo.On("InsertCompletion", mock.Anything, mock.MatchedBy(func(c *model.TaskCompletion) bool {
			return c.Valid && c.PointsAwarded == 10
		})).Return(nil)
		repo.On("UpdateUserPoints", mock.Anything, telegramID, 10).Return(nil)
		repo.On("UpdateMemberPoints", mock.Anything, roomID, telegramID, 10).Return(nil)
		repo.On("MutateStreakState", mock.Anything, model.UserRoomStreakKey(roomID, telegramID), mock.Anything).
			Return(streak.State{Current: 4, Longest: 4}, true, nil)
		repo.On("MutateStreakState", mock.Anything, model.UserStreakKey(telegramID), mock.Anything).
			Return(streak.State{Current: 2, Longest: 6}, true, nil)
		repo.On("MutateStreakState", mock.Anything, model.RoomStreakKey(roomID), mock.Anything).
			Return(streak.State{Current: 9, Longest: 9}, true, nil)
		repo.On("GetRoomMembers", mock.Anything, roomID).Return(members, nil)
		notifier.On("Broadcast", []int64{123, 456}, mock.Anything).Return()
		notifier.On("Push", telegramID, mock.MatchedBy(func(n model.Notification) bool {
			inc, ok := n.(model.StreakIncremented)
			return ok && inc.CurrentStreak == 4
		})).Return()

		s := NewTaskService(repo, notifier)
		result, err := s.CompleteTask(context.Background(), taskID, telegramID)

		assert.NoError(t, err)
		assert.True(t, result.Completion.Valid)
		assert.True(t, result.StreakAdvanced)
		assert.Equal(t, 4, result.Streak.Current)
		repo.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("completion right after task creation counts no streak", func(t *testing.T) {
		repo := &mocks.MockTaskRepository{}
		notifier := &mocks.MockNotifier{}

		repo.On("GetTask", mock.Anything, taskID).Return(freshTask(time.Now().UTC().Add(-time.Minute)), nil)
		repo.On("IsMember", mock.Anything, roomID, telegramID).Return(true, nil)
		repo.On("GetRoom", mock.Anything, roomID).Return(room, nil)
		repo.On("InsertCompletion", mock.Anything, mock.MatchedBy(func(c *model.TaskCompletion) bool {
			return !c.Valid
		})).Return(nil)
		repo.On("UpdateUserPoints", mock.Anything, telegramID, 10).Return(nil)
		repo.On("UpdateMemberPoints", mock.Anything, roomID, telegramID, 10).Return(nil)
		repo.On("GetStreakState", mock.Anything, model.UserRoomStreakKey(roomID, telegramID)).
			Return(streak.State{Current: 3, Longest: 5}, nil)
		repo.On("GetRoomMembers", mock.Anything, roomID).Return(members, nil)
		notifier.On("Broadcast", mock.Anything, mock.Anything).Return()

		s := NewTaskService(repo, notifier)
		result, err := s.CompleteTask(context.Background(), taskID, telegramID)

		assert.NoError(t, err)
		assert.False(t, result.Completion.Valid)
		assert.False(t, result.StreakAdvanced)
		assert.Equal(t, 3, result.Streak.Current)
		repo.AssertNotCalled(t, "MutateStreakState", mock.Anything, mock.Anything, mock.Anything)
		notifier.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
	})

	t.Run("streak failure never fails the completion", func(t *testing.T) {
		repo := &mocks.MockTaskRepository{}
		notifier := &mocks.MockNotifier{}

		repo.On("GetTask", mock.Anything, taskID).Return(freshTask(time.Now().UTC().Add(-48*time.Hour)), nil)
		repo.On("IsMember", mock.Anything, roomID, telegramID).Return(true, nil)
		repo.On("GetRoom", mock.Anything, roomID).Return(room, nil)
		repo.On("InsertCompletion", mock.Anything, mock.Anything).Return(nil)
		repo.On("UpdateUserPoints", mock.Anything, telegramID, 10).Return(nil)
		repo.On("UpdateMemberPoints", mock.Anything, roomID, telegramID, 10).Return(nil)
		repo.On("MutateStreakState", mock.Anything, mock.Anything, mock.Anything).
			Return(streak.State{}, false, errors.New("deadlock detected"))
		repo.On("GetRoomMembers", mock.Anything, roomID).Return(members, nil)
		notifier.On("Broadcast", mock.Anything, mock.Anything).Return()

		s := NewTaskService(repo, notifier)
		result, err := s.CompleteTask(context.Background(), taskID, telegramID)

		assert.NoError(t, err)
		assert.True(t, result.Completion.Valid)
		assert.False(t, result.StreakAdvanced)
	})
}

func TestTaskService_UncompleteTask(t *testing.T) {
	roomID := uuid.New()
	taskID := uuid.New()
	telegramID := int64(123)

	room := &model.Room{ID: roomID, Timezone: "UTC"}
	task := &model.Task{ID: taskID, RoomID: roomID, Points: 10, CreatedAt: time.Now().UTC().Add(-72 * time.Hour)}

	t.Run("no completion today", func(t *testing.T) {
		repo := &mocks.MockTaskRepository{}
		repo.On("GetTask", mock.Anything, taskID).Return(task, nil)
		repo.On("GetRoom", mock.Anything, roomID).Return(room, nil)
		repo.On("DeleteCompletion", mock.Anything, taskID, telegramID, mock.Anything).
			Return(nil, repository.ErrNotFound)

		s := NewTaskService(repo, nil)
		err := s.UncompleteTask(context.Background(), taskID, telegramID)

		assert.ErrorIs(t, err, ErrCompletionNotFound)
	})

	t.Run("valid completion rolls back points and recomputes streaks", func(t *testing.T) {
		repo := &mocks.MockTaskRepository{}
		completion := &model.TaskCompletion{
			TaskID:         taskID,
			RoomID:         roomID,
			UserTelegramID: telegramID,
			PointsAwarded:  10,
			Valid:          true,
		}

		repo.On("GetTask", mock.Anything, taskID).Return(task, nil)
		repo.On("GetRoom", mock.Anything, roomID).Return(room, nil)
		repo.On("DeleteCompletion", mock.Anything, taskID, telegramID, mock.Anything).Return(completion, nil)
		repo.On("UpdateUserPoints", mock.Anything, telegramID, -10).Return(nil)
		repo.On("UpdateMemberPoints", mock.Anything, roomID, telegramID, -10).Return(nil)
		repo.On("ValidCompletionDays", mock.Anything, telegramID, &roomID).
			Return([]string{"2026-08-27", "2026-08-28"}, nil)
		repo.On("ValidCompletionDays", mock.Anything, telegramID, (*uuid.UUID)(nil)).
			Return([]string{"2026-08-28"}, nil)
		repo.On("RoomValidCompletionDays", mock.Anything, roomID).
			Return([]string{"2026-08-26", "2026-08-28"}, nil)
		repo.On("MutateStreakState", mock.Anything, model.UserRoomStreakKey(roomID, telegramID), mock.Anything).
			Return(streak.State{}, true, nil)
		repo.On("MutateStreakState", mock.Anything, model.UserStreakKey(telegramID), mock.Anything).
			Return(streak.State{}, true, nil)
		repo.On("MutateStreakState", mock.Anything, model.RoomStreakKey(roomID), mock.Anything).
			Return(streak.State{}, true, nil)

		s := NewTaskService(repo, nil)
		err := s.UncompleteTask(context.Background(), taskID, telegramID)

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("invalid completion skips streak recompute", func(t *testing.T) {
		repo := &mocks.MockTaskRepository{}
		completion := &model.TaskCompletion{
			TaskID:         taskID,
			RoomID:         roomID,
			UserTelegramID: telegramID,
			PointsAwarded:  10,
			Valid:          false,
		}

		repo.On("GetTask", mock.Anything, taskID).Return(task, nil)
		repo.On("GetRoom", mock.Anything, roomID).Return(room, nil)
		repo.On("DeleteCompletion", mock.Anything, taskID, telegramID, mock.Anything).Return(completion, nil)
		repo.On("UpdateUserPoints", mock.Anything, telegramID, -10).Return(nil)
		repo.On("UpdateMemberPoints", mock.Anything, roomID, telegramID, -10).Return(nil)

		s := NewTaskService(repo, nil)
		err := s.UncompleteTask(context.Background(), taskID, telegramID)

		assert.NoError(t, err)
		repo.AssertNotCalled(t, "MutateStreakState", mock.Anything, mock.Anything, mock.Anything)
	})
}
