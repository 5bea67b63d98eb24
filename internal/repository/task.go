package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"habitrooms/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type Task struct {
	ID         uuid.UUID  `db:"id"`
	RoomID     uuid.UUID  `db:"room_id"`
	CreatedBy  int64      `db:"created_by"`
	Title      string     `db:"title"`
	Points     int        `db:"points"`
	CreatedAt  time.Time  `db:"created_at"`
	ArchivedAt *time.Time `db:"archived_at"`
}

type TaskCompletion struct {
	ID             uuid.UUID `db:"id"`
	TaskID         uuid.UUID `db:"task_id"`
	RoomID         uuid.UUID `db:"room_id"`
	UserTelegramID int64     `db:"user_telegram_id"`
	TaskCreatedAt  time.Time `db:"task_created_at"`
	CompletedAt    time.Time `db:"completed_at"`
	CompletionDate string    `db:"completion_date"`
	PointsAwarded  int       `db:"points_awarded"`
	Valid          bool      `db:"valid"`
}

func (t *Task) toModel() *model.Task {
	return &model.Task{
		ID:         t.ID,
		RoomID:     t.RoomID,
		CreatedBy:  t.CreatedBy,
		Title:      t.Title,
		Points:     t.Points,
		CreatedAt:  t.CreatedAt,
		ArchivedAt: t.ArchivedAt,
	}
}

func (c *TaskCompletion) toModel() *model.TaskCompletion {
	return &model.TaskCompletion{
		ID:             c.ID,
		TaskID:         c.TaskID,
		RoomID:         c.RoomID,
		UserTelegramID: c.UserTelegramID,
		TaskCreatedAt:  c.TaskCreatedAt,
		CompletedAt:    c.CompletedAt,
		CompletionDate: c.CompletionDate,
		PointsAwarded:  c.PointsAwarded,
		Valid:          c.Valid,
	}
}

func (r *Repository) CreateTask(ctx context.Context, task *model.Task) error {
	query, args, err := squirrel.
		Insert("tasks").
		SetMap(map[string]interface{}{
			"id":         task.ID,
			"room_id":    task.RoomID,
			"created_by": task.CreatedBy,
			"title":      task.Title,
			"points":     task.Points,
			"created_at": task.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build task insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

func (r *Repository) GetTask(ctx context.Context, taskID uuid.UUID) (*model.Task, error) {
	query, args, err := squirrel.
		Select("id", "room_id", "created_by", "title", "points", "created_at", "archived_at").
		From("tasks").
		Where(squirrel.Eq{"id": taskID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var task Task
	err = r.db.GetContext(ctx, &task, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return task.toModel(), nil
}

func (r *Repository) ListRoomTasks(ctx context.Context, roomID uuid.UUID) ([]*model.Task, error) {
	query, args, err := squirrel.
		Select("id", "room_id", "created_by", "title", "points", "created_at", "archived_at").
		From("tasks").
		Where(squirrel.Eq{"room_id": roomID, "archived_at": nil}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var tasks []Task
	err = r.db.SelectContext(ctx, &tasks, query, args...)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Task, 0, len(tasks))
	for i := range tasks {
		out = append(out, tasks[i].toModel())
	}
	return out, nil
}

func (r *Repository) ArchiveTask(ctx context.Context, taskID uuid.UUID, at time.Time) error {
	query, args, err := squirrel.
		Update("tasks").
		Set("archived_at", at).
		Where(squirrel.Eq{"id": taskID, "archived_at": nil}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertCompletion relies on the (task_id, user_telegram_id, completion_date)
// unique constraint to make "one completion per task per day" hold under
// concurrent requests.
func (r *Repository) InsertCompletion(ctx context.Context, c *model.TaskCompletion) error {
	query, args, err := squirrel.
		Insert("task_completions").
		SetMap(map[string]interface{}{
			"id":               c.ID,
			"task_id":          c.TaskID,
			"room_id":          c.RoomID,
			"user_telegram_id": c.UserTelegramID,
			"task_created_at":  c.TaskCreatedAt,
			"completed_at":     c.CompletedAt,
			"completion_date":  c.CompletionDate,
			"points_awarded":   c.PointsAwarded,
			"valid":            c.Valid,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build completion insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyCompleted
		}
		return fmt.Errorf("failed to insert completion: %w", err)
	}
	return nil
}

// DeleteCompletion removes a completion row and returns it so the caller can
// roll back the points and streaks it produced.
func (r *Repository) DeleteCompletion(ctx context.Context, taskID uuid.UUID, telegramID int64, completionDate string) (*model.TaskCompletion, error) {
	query, args, err := squirrel.
		Delete("task_completions").
		Where(squirrel.Eq{
			"task_id":          taskID,
			"user_telegram_id": telegramID,
			"completion_date":  completionDate,
		}).
		Suffix(`RETURNING id, task_id, room_id, user_telegram_id,
			task_created_at, completed_at, completion_date, points_awarded, valid`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var c TaskCompletion
	err = r.db.GetContext(ctx, &c, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c.toModel(), nil
}

// ValidCompletionDays returns the distinct calendar days on which the user
// still has at least one valid completion. A nil roomID means all rooms
// (the user's global streak scope).
func (r *Repository) ValidCompletionDays(ctx context.Context, telegramID int64, roomID *uuid.UUID) ([]string, error) {
	builder := squirrel.
		Select("DISTINCT completion_date").
		From("task_completions").
		Where(squirrel.Eq{"user_telegram_id": telegramID, "valid": true})
	if roomID != nil {
		builder = builder.Where(squirrel.Eq{"room_id": *roomID})
	}

	query, args, err := builder.
		OrderBy("completion_date ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var days []string
	err = r.db.SelectContext(ctx, &days, query, args...)
	if err != nil {
		return nil, err
	}
	return days, nil
}

// RoomValidCompletionDays is the room-scope variant: days on which any
// member recorded a valid completion.
func (r *Repository) RoomValidCompletionDays(ctx context.Context, roomID uuid.UUID) ([]string, error) {
	query, args, err := squirrel.
		Select("DISTINCT completion_date").
		From("task_completions").
		Where(squirrel.Eq{"room_id": roomID, "valid": true}).
		OrderBy("completion_date ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var days []string
	err = r.db.SelectContext(ctx, &days, query, args...)
	if err != nil {
		return nil, err
	}
	return days, nil
}

type memberDayStats struct {
	UserTelegramID  int64      `db:"user_telegram_id"`
	TasksCompleted  int        `db:"tasks_completed"`
	ValidTasks      int        `db:"valid_tasks"`
	FirstCompletion *time.Time `db:"first_completion"`
}

// MemberDayStats aggregates every member's activity for completions inside
// [start, end). Members with no completions that day are absent from the
// result.
func (r *Repository) MemberDayStats(ctx context.Context, roomID uuid.UUID, start, end time.Time) ([]*model.MemberDayStats, error) {
	query, args, err := squirrel.
		Select(
			"user_telegram_id",
			"COUNT(*) AS tasks_completed",
			"COUNT(*) FILTER (WHERE valid) AS valid_tasks",
			"MIN(completed_at) FILTER (WHERE valid) AS first_completion",
		).
		From("task_completions").
		Where(squirrel.Eq{"room_id": roomID}).
		Where(squirrel.GtOrEq{"completed_at": start}).
		Where(squirrel.Lt{"completed_at": end}).
		GroupBy("user_telegram_id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var stats []memberDayStats
	err = r.db.SelectContext(ctx, &stats, query, args...)
	if err != nil {
		return nil, err
	}

	out := make([]*model.MemberDayStats, 0, len(stats))
	for _, s := range stats {
		out = append(out, &model.MemberDayStats{
			UserTelegramID:  s.UserTelegramID,
			TasksCompleted:  s.TasksCompleted,
			ValidTasks:      s.ValidTasks,
			FirstCompletion: s.FirstCompletion,
		})
	}
	return out, nil
}
