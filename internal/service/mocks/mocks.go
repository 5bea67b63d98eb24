package mocks

import (
	"context"
	"time"

	"habitrooms/internal/model"
	"habitrooms/internal/repository"
	"habitrooms/internal/streak"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) CreateTask(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) GetTask(ctx context.Context, taskID uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) ListRoomTasks(ctx context.Context, roomID uuid.UUID) ([]*model.Task, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Task), args.Error(1)
}

func (m *MockTaskRepository) ArchiveTask(ctx context.Context, taskID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, taskID, at)
	return args.Error(0)
}

func (m *MockTaskRepository) InsertCompletion(ctx context.Context, c *model.TaskCompletion) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockTaskRepository) DeleteCompletion(ctx context.Context, taskID uuid.UUID, telegramID int64, completionDate string) (*model.TaskCompletion, error) {
	args := m.Called(ctx, taskID, telegramID, completionDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TaskCompletion), args.Error(1)
}

func (m *MockTaskRepository) ValidCompletionDays(ctx context.Context, telegramID int64, roomID *uuid.UUID) ([]string, error) {
	args := m.Called(ctx, telegramID, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTaskRepository) RoomValidCompletionDays(ctx context.Context, roomID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTaskRepository) GetRoom(ctx context.Context, roomID uuid.UUID) (*model.Room, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *MockTaskRepository) GetRoomMembers(ctx context.Context, roomID uuid.UUID) ([]*model.RoomMember, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.RoomMember), args.Error(1)
}

func (m *MockTaskRepository) IsMember(ctx context.Context, roomID uuid.UUID, telegramID int64) (bool, error) {
	args := m.Called(ctx, roomID, telegramID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskRepository) UpdateUserPoints(ctx context.Context, telegramID int64, points int) error {
	args := m.Called(ctx, telegramID, points)
	return args.Error(0)
}

func (m *MockTaskRepository) UpdateMemberPoints(ctx context.Context, roomID uuid.UUID, telegramID int64, points int) error {
	args := m.Called(ctx, roomID, telegramID, points)
	return args.Error(0)
}

func (m *MockTaskRepository) GetStreakState(ctx context.Context, key model.StreakKey) (streak.State, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(streak.State), args.Error(1)
}

func (m *MockTaskRepository) MutateStreakState(ctx context.Context, key model.StreakKey, fn func(streak.State) (streak.State, bool)) (streak.State, bool, error) {
	args := m.Called(ctx, key, fn)
	return args.Get(0).(streak.State), args.Bool(1), args.Error(2)
}

type MockSocialRepository struct {
	mock.Mock
}

func (m *MockSocialRepository) GiveAppreciation(ctx context.Context, a *model.Appreciation, limit int) error {
	args := m.Called(ctx, a, limit)
	return args.Error(0)
}

func (m *MockSocialRepository) SendNudge(ctx context.Context, n *model.Nudge, day string, limit int) error {
	args := m.Called(ctx, n, day, limit)
	return args.Error(0)
}

func (m *MockSocialRepository) GetDailyQuotaUsed(ctx context.Context, actorID int64, roomID uuid.UUID, kind string, day string) (int, error) {
	args := m.Called(ctx, actorID, roomID, kind, day)
	return args.Int(0), args.Error(1)
}

func (m *MockSocialRepository) RoomAppreciationSummary(ctx context.Context, roomID uuid.UUID) ([]*model.AppreciationSummary, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.AppreciationSummary), args.Error(1)
}

func (m *MockSocialRepository) IsMember(ctx context.Context, roomID uuid.UUID, telegramID int64) (bool, error) {
	args := m.Called(ctx, roomID, telegramID)
	return args.Bool(0), args.Error(1)
}

type MockMVPRepository struct {
	mock.Mock
}

func (m *MockMVPRepository) GetRoom(ctx context.Context, roomID uuid.UUID) (*model.Room, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *MockMVPRepository) MemberDayStats(ctx context.Context, roomID uuid.UUID, start, end time.Time) ([]*model.MemberDayStats, error) {
	args := m.Called(ctx, roomID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.MemberDayStats), args.Error(1)
}

func (m *MockMVPRepository) GetStreakState(ctx context.Context, key model.StreakKey) (streak.State, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(streak.State), args.Error(1)
}

func (m *MockMVPRepository) InsertMVPRecord(ctx context.Context, rec *model.MVPRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockMVPRepository) GetMVPRecord(ctx context.Context, roomID uuid.UUID, date string) (*model.MVPRecord, error) {
	args := m.Called(ctx, roomID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MVPRecord), args.Error(1)
}

func (m *MockMVPRepository) GetRoomMembers(ctx context.Context, roomID uuid.UUID) ([]*model.RoomMember, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.RoomMember), args.Error(1)
}

type MockSweepRepository struct {
	mock.Mock
}

func (m *MockSweepRepository) ListActiveStreaks(ctx context.Context) ([]repository.StreakEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.StreakEntry), args.Error(1)
}

func (m *MockSweepRepository) MutateStreakState(ctx context.Context, key model.StreakKey, fn func(streak.State) (streak.State, bool)) (streak.State, bool, error) {
	args := m.Called(ctx, key, fn)
	return args.Get(0).(streak.State), args.Bool(1), args.Error(2)
}

func (m *MockSweepRepository) ListRoomIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Push(telegramID int64, n model.Notification) {
	m.Called(telegramID, n)
}

func (m *MockNotifier) Broadcast(telegramIDs []int64, n model.Notification) {
	m.Called(telegramIDs, n)
}

type MockDirectMessenger struct {
	mock.Mock
}

func (m *MockDirectMessenger) SendDirectMessage(ctx context.Context, telegramID int64, text string) error {
	args := m.Called(ctx, telegramID, text)
	return args.Error(0)
}

type MockMVPService struct {
	mock.Mock
}

func (m *MockMVPService) AwardRoomMVP(ctx context.Context, roomID uuid.UUID, day time.Time) (*model.MVPRecord, error) {
	args := m.Called(ctx, roomID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MVPRecord), args.Error(1)
}

func (m *MockMVPService) GetRoomMVP(ctx context.Context, roomID uuid.UUID, date string) (*model.MVPRecord, error) {
	args := m.Called(ctx, roomID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MVPRecord), args.Error(1)
}
