package service

import (
	"context"
	"errors"
	"time"

	"habitrooms/internal/model"
	"habitrooms/internal/repository"
	"habitrooms/internal/streak"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrRoomNotFound          = errors.New("room not found")
	ErrTaskNotFound          = errors.New("task not found")
	ErrTaskArchived          = errors.New("task is archived")
	ErrNotRoomMember         = errors.New("user is not a member of the room")
	ErrAlreadyRoomMember     = errors.New("user is already a member of the room")
	ErrAlreadyCompletedToday = errors.New("task already completed today")
	ErrCompletionNotFound    = errors.New("no completion to undo")
	ErrCannotTargetSelf      = errors.New("social actions cannot target yourself")
	ErrUnknownKind           = errors.New("unknown appreciation kind")
	ErrDailyLimitReached     = errors.New("daily limit reached")
	ErrDuplicateGift         = errors.New("appreciation of this kind already given to this member today")
	ErrNoEligibleMembers     = errors.New("no eligible members for mvp")
	ErrMVPAlreadyAwarded     = errors.New("mvp already awarded for this day")
	ErrMVPNotFound           = errors.New("no mvp recorded for this day")
)

type Service struct {
	*UserService
	*RoomService
	*TaskService
	*SocialService
	*MVPService
}

func NewService(users *UserService, rooms *RoomService, tasks *TaskService, social *SocialService, mvp *MVPService) *Service {
	return &Service{
		UserService:   users,
		RoomService:   rooms,
		TaskService:   tasks,
		SocialService: social,
		MVPService:    mvp,
	}
}

// Notifier is the in-app fan-out port. Implementations must not block the
// caller; delivery is best-effort.
type Notifier interface {
	Push(telegramID int64, n model.Notification)
	Broadcast(telegramIDs []int64, n model.Notification)
}

// DirectMessenger is the out-of-app push channel (Telegram bot DMs).
type DirectMessenger interface {
	SendDirectMessage(ctx context.Context, telegramID int64, text string) error
}

type UserServiceI interface {
	RegisterUser(ctx context.Context, user *model.User) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetLeaderboard(ctx context.Context) ([]*model.User, error)
	GetUserStreak(ctx context.Context, telegramID int64) (streak.State, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	UpdateUserPoints(ctx context.Context, telegramID int64, points int) error
	GetTopUsers(ctx context.Context, limit int) ([]*model.User, error)
	GetStreakState(ctx context.Context, key model.StreakKey) (streak.State, error)
}

type RoomServiceI interface {
	CreateRoom(ctx context.Context, name, timezone string, createdBy int64) (*model.Room, error)
	GetRoom(ctx context.Context, roomID uuid.UUID) (*model.Room, error)
	JoinRoom(ctx context.Context, roomID uuid.UUID, telegramID int64) error
	LeaveRoom(ctx context.Context, roomID uuid.UUID, telegramID int64) error
	GetRoomLeaderboard(ctx context.Context, roomID uuid.UUID) ([]*model.RoomMember, error)
	GetRoomStreak(ctx context.Context, roomID uuid.UUID) (streak.State, error)
}

type RoomRepository interface {
	CreateRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, roomID uuid.UUID) (*model.Room, error)
	AddMember(ctx context.Context, roomID uuid.UUID, telegramID int64, joinedAt time.Time) error
	RemoveMember(ctx context.Context, roomID uuid.UUID, telegramID int64) error
	GetRoomMembers(ctx context.Context, roomID uuid.UUID) ([]*model.RoomMember, error)
	GetStreakState(ctx context.Context, key model.StreakKey) (streak.State, error)
}

type TaskServiceI interface {
	CreateTask(ctx context.Context, roomID uuid.UUID, createdBy int64, title string, points int) (*model.Task, error)
	ListRoomTasks(ctx context.Context, roomID uuid.UUID, telegramID int64) ([]*model.Task, error)
	ArchiveTask(ctx context.Context, taskID uuid.UUID, telegramID int64) error
	CompleteTask(ctx context.Context, taskID uuid.UUID, telegramID int64) (*CompletionResult, error)
	UncompleteTask(ctx context.Context, taskID uuid.UUID, telegramID int64) error
	GetUserRoomStreak(ctx context.Context, roomID uuid.UUID, telegramID int64) (streak.State, error)
}

type TaskRepository interface {
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, taskID uuid.UUID) (*model.Task, error)
	ListRoomTasks(ctx context.Context, roomID uuid.UUID) ([]*model.Task, error)
	ArchiveTask(ctx context.Context, taskID uuid.UUID, at time.Time) error
	InsertCompletion(ctx context.Context, c *model.TaskCompletion) error
	DeleteCompletion(ctx context.Context, taskID uuid.UUID, telegramID int64, completionDate string) (*model.TaskCompletion, error)
	ValidCompletionDays(ctx context.Context, telegramID int64, roomID *uuid.UUID) ([]string, error)
	RoomValidCompletionDays(ctx context.Context, roomID uuid.UUID) ([]string, error)
	GetRoom(ctx context.Context, roomID uuid.UUID) (*model.Room, error)
	GetRoomMembers(ctx context.Context, roomID uuid.UUID) ([]*model.RoomMember, error)
	IsMember(ctx context.Context, roomID uuid.UUID, telegramID int64) (bool, error)
	UpdateUserPoints(ctx context.Context, telegramID int64, points int) error
	UpdateMemberPoints(ctx context.Context, roomID uuid.UUID, telegramID int64, points int) error
	GetStreakState(ctx context.Context, key model.StreakKey) (streak.State, error)
	MutateStreakState(ctx context.Context, key model.StreakKey, fn func(streak.State) (streak.State, bool)) (streak.State, bool, error)
}

type SocialServiceI interface {
	GiveAppreciation(ctx context.Context, roomID uuid.UUID, from, to int64, kind model.AppreciationKind) (*model.QuotaStatus, error)
	SendNudge(ctx context.Context, roomID uuid.UUID, from, to int64, message string) (*model.QuotaStatus, error)
	AppreciationsRemaining(ctx context.Context, roomID uuid.UUID, telegramID int64) (*model.QuotaStatus, error)
	RoomAppreciationSummary(ctx context.Context, roomID uuid.UUID) ([]*model.AppreciationSummary, error)
}

type SocialRepository interface {
	GiveAppreciation(ctx context.Context, a *model.Appreciation, limit int) error
	SendNudge(ctx context.Context, n *model.Nudge, day string, limit int) error
	GetDailyQuotaUsed(ctx context.Context, actorID int64, roomID uuid.UUID, kind string, day string) (int, error)
	RoomAppreciationSummary(ctx context.Context, roomID uuid.UUID) ([]*model.AppreciationSummary, error)
	IsMember(ctx context.Context, roomID uuid.UUID, telegramID int64) (bool, error)
}

type MVPServiceI interface {
	AwardRoomMVP(ctx context.Context, roomID uuid.UUID, day time.Time) (*model.MVPRecord, error)
	GetRoomMVP(ctx context.Context, roomID uuid.UUID, date string) (*model.MVPRecord, error)
}

type MVPRepository interface {
	GetRoom(ctx context.Context, roomID uuid.UUID) (*model.Room, error)
	MemberDayStats(ctx context.Context, roomID uuid.UUID, start, end time.Time) ([]*model.MemberDayStats, error)
	GetStreakState(ctx context.Context, key model.StreakKey) (streak.State, error)
	InsertMVPRecord(ctx context.Context, rec *model.MVPRecord) error
	GetMVPRecord(ctx context.Context, roomID uuid.UUID, date string) (*model.MVPRecord, error)
	GetRoomMembers(ctx context.Context, roomID uuid.UUID) ([]*model.RoomMember, error)
}

type SweepRepository interface {
	ListActiveStreaks(ctx context.Context) ([]repository.StreakEntry, error)
	MutateStreakState(ctx context.Context, key model.StreakKey, fn func(streak.State) (streak.State, bool)) (streak.State, bool, error)
	ListRoomIDs(ctx context.Context) ([]uuid.UUID, error)
}
