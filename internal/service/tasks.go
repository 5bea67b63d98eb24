package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"habitrooms/internal/model"
	"habitrooms/internal/repository"
	"habitrooms/internal/streak"
	"habitrooms/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TaskService struct {
	repo     TaskRepository
	notifier Notifier
	minGap   time.Duration
}

func NewTaskService(repo TaskRepository, notifier Notifier) *TaskService {
	return &TaskService{
		repo:     repo,
		notifier: notifier,
		minGap:   streak.DefaultMinCompletionGap,
	}
}

// CompletionResult is what a successful CompleteTask returns to the handler:
// the stored row plus the user-room streak after the completion.
type CompletionResult struct {
	Completion     *model.TaskCompletion
	Streak         streak.State
	StreakAdvanced bool
}

func (s *TaskService) CreateTask(ctx context.Context, roomID uuid.UUID, createdBy int64, title string, points int) (*model.Task, error) {
	member, err := s.repo.IsMember(ctx, roomID, createdBy)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return nil, ErrNotRoomMember
	}

	task := &model.Task{
		ID:        uuid.New(),
		RoomID:    roomID,
		CreatedBy: createdBy,
		Title:     title,
		Points:    points,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

func (s *TaskService) ListRoomTasks(ctx context.Context, roomID uuid.UUID, telegramID int64) ([]*model.Task, error) {
	member, err := s.repo.IsMember(ctx, roomID, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return nil, ErrNotRoomMember
	}

	tasks, err := s.repo.ListRoomTasks(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) ArchiveTask(ctx context.Context, taskID uuid.UUID, telegramID int64) error {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return err
	}

	member, err := s.repo.IsMember(ctx, task.RoomID, telegramID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return ErrNotRoomMember
	}

	err = s.repo.ArchiveTask(ctx, taskID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to archive task: %w", err)
	}
	return nil
}

// CompleteTask records a completion, awards its points and advances the
// member's streaks. The completion and the points are the primary action;
// streak bookkeeping and notifications are best-effort and never fail it.
func (s *TaskService) CompleteTask(ctx context.Context, taskID uuid.UUID, telegramID int64) (*CompletionResult, error) {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.ArchivedAt != nil {
		return nil, ErrTaskArchived
	}

	member, err := s.repo.IsMember(ctx, task.RoomID, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return nil, ErrNotRoomMember
	}

	room, err := s.repo.GetRoom(ctx, task.RoomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	loc := roomLocation(room)

	now := time.Now().UTC()
	valid := streak.CompletionValid(&task.CreatedAt, &now, loc, s.minGap)

	completion := &model.TaskCompletion{
		ID:             uuid.New(),
		TaskID:         task.ID,
		RoomID:         task.RoomID,
		UserTelegramID: telegramID,
		TaskCreatedAt:  task.CreatedAt,
		CompletedAt:    now,
		CompletionDate: now.In(loc).Format("2006-01-02"),
		PointsAwarded:  task.Points,
		Valid:          valid,
	}

	if err := s.repo.InsertCompletion(ctx, completion); err != nil {
		if errors.Is(err, repository.ErrAlreadyCompleted) {
			return nil, ErrAlreadyCompletedToday
		}
		return nil, fmt.Errorf("failed to record completion: %w", err)
	}

	if err := s.repo.UpdateUserPoints(ctx, telegramID, task.Points); err != nil {
		return nil, fmt.Errorf("failed to award user points: %w", err)
	}
	if err := s.repo.UpdateMemberPoints(ctx, task.RoomID, telegramID, task.Points); err != nil {
		return nil, fmt.Errorf("failed to award room points: %w", err)
	}

	result := &CompletionResult{Completion: completion}
	if valid {
		result.Streak, result.StreakAdvanced = s.advanceStreaks(ctx, completion)
	} else {
		if st, err := s.repo.GetStreakState(ctx, model.UserRoomStreakKey(task.RoomID, telegramID)); err == nil {
			result.Streak = st
		}
	}

	s.notifyCompletion(ctx, completion, result)
	return result, nil
}

// advanceStreaks moves the user-room, user-global and room streaks for a
// valid completion. Persistence failures here must not undo the completion,
// so they are logged and swallowed.
func (s *TaskService) advanceStreaks(ctx context.Context, c *model.TaskCompletion) (streak.State, bool) {
	log := logger.Logger()

	day, err := time.Parse("2006-01-02", c.CompletionDate)
	if err != nil {
		log.Error("invalid completion date", zap.String("date", c.CompletionDate), zap.Error(err))
		return streak.State{}, false
	}

	advance := func(st streak.State) (streak.State, bool) {
		return st.Advance(day)
	}

	userRoom, advanced, err := s.repo.MutateStreakState(ctx, model.UserRoomStreakKey(c.RoomID, c.UserTelegramID), advance)
	if err != nil {
		log.Error("failed to advance user-room streak",
			zap.Int64("telegram_id", c.UserTelegramID),
			zap.String("room_id", c.RoomID.String()),
			zap.Error(err))
		return streak.State{}, false
	}

	if _, _, err := s.repo.MutateStreakState(ctx, model.UserStreakKey(c.UserTelegramID), advance); err != nil {
		log.Error("failed to advance global streak",
			zap.Int64("telegram_id", c.UserTelegramID), zap.Error(err))
	}
	if _, _, err := s.repo.MutateStreakState(ctx, model.RoomStreakKey(c.RoomID), advance); err != nil {
		log.Error("failed to advance room streak",
			zap.String("room_id", c.RoomID.String()), zap.Error(err))
	}

	return userRoom, advanced
}

func (s *TaskService) notifyCompletion(ctx context.Context, c *model.TaskCompletion, result *CompletionResult) {
	if s.notifier == nil {
		return
	}

	members, err := s.repo.GetRoomMembers(ctx, c.RoomID)
	if err != nil {
		logger.Logger().Warn("failed to load members for notification",
			zap.String("room_id", c.RoomID.String()), zap.Error(err))
		return
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserTelegramID)
	}

	s.notifier.Broadcast(ids, model.TaskCompleted{
		RoomID:         c.RoomID,
		TaskID:         c.TaskID,
		UserTelegramID: c.UserTelegramID,
		PointsAwarded:  c.PointsAwarded,
		Valid:          c.Valid,
	})

	if result.StreakAdvanced {
		s.notifier.Push(c.UserTelegramID, model.StreakIncremented{
			UserTelegramID: c.UserTelegramID,
			RoomID:         c.RoomID,
			CurrentStreak:  result.Streak.Current,
			LongestStreak:  result.Streak.Longest,
		})
	}
}

// UncompleteTask deletes today's completion of the task and rolls back both
// the points and any streak movement it caused. The streaks are re-derived
// from the remaining completion history rather than decremented blindly.
func (s *TaskService) UncompleteTask(ctx context.Context, taskID uuid.UUID, telegramID int64) error {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return err
	}

	room, err := s.repo.GetRoom(ctx, task.RoomID)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}
	loc := roomLocation(room)

	today := time.Now().In(loc).Format("2006-01-02")
	completion, err := s.repo.DeleteCompletion(ctx, taskID, telegramID, today)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCompletionNotFound
		}
		return fmt.Errorf("failed to delete completion: %w", err)
	}

	if err := s.repo.UpdateUserPoints(ctx, telegramID, -completion.PointsAwarded); err != nil {
		return fmt.Errorf("failed to roll back user points: %w", err)
	}
	if err := s.repo.UpdateMemberPoints(ctx, task.RoomID, telegramID, -completion.PointsAwarded); err != nil {
		return fmt.Errorf("failed to roll back room points: %w", err)
	}

	if completion.Valid {
		s.recomputeStreaks(ctx, task.RoomID, telegramID)
	}
	return nil
}

// recomputeStreaks rebuilds all three streak scopes from stored completions.
// Best-effort, same as the forward path.
func (s *TaskService) recomputeStreaks(ctx context.Context, roomID uuid.UUID, telegramID int64) {
	log := logger.Logger()
	now := time.Now().UTC()

	set := func(key model.StreakKey, days []string) {
		parsed := parseDays(days)
		_, _, err := s.repo.MutateStreakState(ctx, key, func(streak.State) (streak.State, bool) {
			return streak.Recompute(parsed, now), true
		})
		if err != nil {
			log.Error("failed to recompute streak",
				zap.String("scope", string(key.Scope)), zap.Error(err))
		}
	}

	if days, err := s.repo.ValidCompletionDays(ctx, telegramID, &roomID); err != nil {
		log.Error("failed to load user-room completion days", zap.Error(err))
	} else {
		set(model.UserRoomStreakKey(roomID, telegramID), days)
	}

	if days, err := s.repo.ValidCompletionDays(ctx, telegramID, nil); err != nil {
		log.Error("failed to load global completion days", zap.Error(err))
	} else {
		set(model.UserStreakKey(telegramID), days)
	}

	if days, err := s.repo.RoomValidCompletionDays(ctx, roomID); err != nil {
		log.Error("failed to load room completion days", zap.Error(err))
	} else {
		set(model.RoomStreakKey(roomID), days)
	}
}

func (s *TaskService) GetUserRoomStreak(ctx context.Context, roomID uuid.UUID, telegramID int64) (streak.State, error) {
	member, err := s.repo.IsMember(ctx, roomID, telegramID)
	if err != nil {
		return streak.State{}, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return streak.State{}, ErrNotRoomMember
	}
	return s.repo.GetStreakState(ctx, model.UserRoomStreakKey(roomID, telegramID))
}

func (s *TaskService) getTask(ctx context.Context, taskID uuid.UUID) (*model.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

func roomLocation(room *model.Room) *time.Location {
	if room == nil || room.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(room.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func parseDays(days []string) []time.Time {
	out := make([]time.Time, 0, len(days))
	for _, d := range days {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out
}
