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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMVPService_AwardRoomMVP(t *testing.T) {
	roomID := uuid.New()
	room := &model.Room{ID: roomID, Timezone: "UTC"}
	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	completionAt := func(hour int) *time.Time {
		ts := time.Date(2026, 8, 29, hour, 0, 0, 0, time.UTC)
		return &ts
	}

	t.Run("unknown room", func(t *testing.T) {
		repo := &mocks.MockMVPRepository{}
		repo.On("GetRoom", mock.Anything, roomID).Return(nil, repository.ErrNotFound)

		s := NewMVPService(repo, nil, nil)
		rec, err := s.AwardRoomMVP(context.Background(), roomID, day)

		assert.Nil(t, rec)
		assert.ErrorIs(t, err, ErrRoomNotFound)
		repo.AssertNotCalled(t, "MemberDayStats", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no activity means no mvp", func(t *testing.T) {
		repo := &mocks.MockMVPRepository{}
		repo.On("GetRoom", mock.Anything, roomID).Return(room, nil)
		repo.On("MemberDayStats", mock.Anything, roomID, mock.Anything, mock.Anything).
			Return([]*model.MemberDayStats{}, nil)

		s := NewMVPService(repo, nil, nil)
		rec, err := s.AwardRoomMVP(context.Background(), roomID, day)

		assert.Nil(t, rec)
		assert.ErrorIs(t, err, ErrNoEligibleMembers)
	})

	t.Run("members without valid tasks are ineligible", func(t *testing.T) {
		repo := &mocks.MockMVPRepository{}
		repo.On("GetRoom", mock.Anything, roomID).Return(room, nil)
		repo.On("MemberDayStats", mock.Anything, roomID, mock.Anything, mock.Anything).
			Return([]*model.MemberDayStats{
				{UserTelegramID: 123, TasksCompleted: 3, ValidTasks: 0, FirstCompletion: completionAt(9)},
			}, nil)
		repo.On("GetStreakState", mock.Anything, mock.Anything).Return(streak.State{}, nil)

		s := NewMVPService(repo, nil, nil)
		rec, err := s.AwardRoomMVP(context.Background(), roomID, day)

		assert.Nil(t, rec)
		assert.ErrorIs(t, err, ErrNoEligibleMembers)
	})

	t.Run("highest score wins and gets announced", func(t *testing.T) {
		repo := &mocks.MockMVPRepository{}
		notifier := &mocks.MockNotifier{}
		dm := &mocks.MockDirectMessenger{}

		active := day
		repo.On("GetRoom", mock.Anything, roomID).Return(room, nil)
		repo.On("MemberDayStats", mock.Anything, roomID, mock.Anything, mock.Anything).
			Return([]*model.MemberDayStats{
				{UserTelegramID: 123, TasksCompleted: 6, ValidTasks: 5, FirstCompletion: completionAt(8)},
				{UserTelegramID: 456, TasksCompleted: 1, ValidTasks: 1, FirstCompletion: completionAt(7)},
			}, nil)
		repo.On("GetStreakState", mock.Anything, model.UserRoomStreakKey(roomID, 123)).
			Return(streak.State{Current: 7, Longest: 7, LastActivity: &active}, nil)
		repo.On("GetStreakState", mock.Anything, model.UserRoomStreakKey(roomID, 456)).
			Return(streak.State{}, nil)
		repo.On("InsertMVPRecord", mock.Anything, mock.MatchedBy(func(rec *model.MVPRecord) bool {
			// 5 valid tasks capped at 50, +20 maintained, consistency capped at 25.
			return rec.UserTelegramID == 123 && rec.Score == 95 &&
				rec.Date == "2026-08-29" && rec.TasksCompleted == 6
		})).Return(nil)
		repo.On("GetRoomMembers", mock.Anything, roomID).Return([]*model.RoomMember{
			{RoomID: roomID, UserTelegramID: 123},
			{RoomID: roomID, UserTelegramID: 456},
		}, nil)
		notifier.On("Broadcast", []int64{123, 456}, mock.MatchedBy(func(n model.Notification) bool {
			d, ok := n.(model.MVPDecided)
			return ok && d.UserTelegramID == 123 && d.Score == 95
		})).Return()
		dm.On("SendDirectMessage", mock.Anything, int64(123), mock.Anything).Return(nil)

		s := NewMVPService(repo, notifier, dm)
		rec, err := s.AwardRoomMVP(context.Background(), roomID, day)

		assert.NoError(t, err)
		assert.Equal(t, int64(123), rec.UserTelegramID)
		assert.Equal(t, 95, rec.Score)
		repo.AssertExpectations(t)
		notifier.AssertExpectations(t)
		dm.AssertExpectations(t)
	})

	t.Run("tie broken by earliest valid completion", func(t *testing.T) {
		repo := &mocks.MockMVPRepository{}

		repo.On("GetRoom", mock.Anything, roomID).Return(room, nil)
		repo.On("MemberDayStats", mock.Anything, roomID, mock.Anything, mock.Anything).
			Return([]*model.MemberDayStats{
				{UserTelegramID: 123, TasksCompleted: 2, ValidTasks: 2, FirstCompletion: completionAt(10)},
				{UserTelegramID: 456, TasksCompleted: 2, ValidTasks: 2, FirstCompletion: completionAt(6)},
			}, nil)
		repo.On("GetStreakState", mock.Anything, mock.Anything).Return(streak.State{}, nil)
		repo.On("InsertMVPRecord", mock.Anything, mock.MatchedBy(func(rec *model.MVPRecord) bool {
			return rec.UserTelegramID == 456
		})).Return(nil)

		s := NewMVPService(repo, nil, nil)
		rec, err := s.AwardRoomMVP(context.Background(), roomID, day)

		assert.NoError(t, err)
		assert.Equal(t, int64(456), rec.UserTelegramID)
	})

	t.Run("second award of the same day is rejected", func(t *testing.T) {
		repo := &mocks.MockMVPRepository{}
		notifier := &mocks.MockNotifier{}

		repo.On("GetRoom", mock.Anything, roomID).Return(room, nil)
		repo.On("MemberDayStats", mock.Anything, roomID, mock.Anything, mock.Anything).
			Return([]*model.MemberDayStats{
				{UserTelegramID: 123, TasksCompleted: 1, ValidTasks: 1, FirstCompletion: completionAt(9)},
			}, nil)
		repo.On("GetStreakState", mock.Anything, mock.Anything).Return(streak.State{}, nil)
		repo.On("InsertMVPRecord", mock.Anything, mock.Anything).Return(repository.ErrMVPAlreadyAwarded)

		s := NewMVPService(repo, notifier, nil)
		rec, err := s.AwardRoomMVP(context.Background(), roomID, day)

		assert.Nil(t, rec)
		assert.ErrorIs(t, err, ErrMVPAlreadyAwarded)
		notifier.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything)
	})

	t.Run("streak read failure scores as no streak", func(t *testing.T) {
		repo := &mocks.MockMVPRepository{}

		repo.On("GetRoom", mock.Anything, roomID).Return(room, nil)
		repo.On("MemberDayStats", mock.Anything, roomID, mock.Anything, mock.Anything).
			Return([]*model.MemberDayStats{
				{UserTelegramID: 123, TasksCompleted: 1, ValidTasks: 1, FirstCompletion: completionAt(9)},
			}, nil)
		repo.On("GetStreakState", mock.Anything, mock.Anything).
			Return(streak.State{}, repository.ErrNotFound)
		repo.On("InsertMVPRecord", mock.Anything, mock.MatchedBy(func(rec *model.MVPRecord) bool {
			// One valid task, no streak bonuses.
			return rec.Score == 10
		})).Return(nil)

		s := NewMVPService(repo, nil, nil)
		rec, err := s.AwardRoomMVP(context.Background(), roomID, day)

		assert.NoError(t, err)
		assert.Equal(t, 10, rec.Score)
	})
}

func TestMVPService_GetRoomMVP(t *testing.T) {
	roomID := uuid.New()

	t.Run("not recorded", func(t *testing.T) {
		repo := &mocks.MockMVPRepository{}
		repo.On("GetMVPRecord", mock.Anything, roomID, "2026-08-29").Return(nil, repository.ErrNotFound)

		s := NewMVPService(repo, nil, nil)
		rec, err := s.GetRoomMVP(context.Background(), roomID, "2026-08-29")

		assert.Nil(t, rec)
		assert.ErrorIs(t, err, ErrMVPNotFound)
	})

	t.Run("found", func(t *testing.T) {
		repo := &mocks.MockMVPRepository{}
		stored := &model.MVPRecord{RoomID: roomID, Date: "2026-08-29", UserTelegramID: 123, Score: 40}
		repo.On("GetMVPRecord", mock.Anything, roomID, "2026-08-29").Return(stored, nil)

		s := NewMVPService(repo, nil, nil)
		rec, err := s.GetRoomMVP(context.Background(), roomID, "2026-08-29")

		assert.NoError(t, err)
		assert.Equal(t, stored, rec)
	})
}
