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

type mvpRow struct {
	RoomID         uuid.UUID `db:"room_id"`
	Date           string    `db:"date"`
	UserTelegramID int64     `db:"user_telegram_id"`
	Score          int       `db:"score"`
	TasksCompleted int       `db:"tasks_completed"`
	CreatedAt      time.Time `db:"created_at"`
}

// InsertMVPRecord writes the day's winner once. A second insert for the same
// (room, date) is a no-op surfaced as ErrMVPAlreadyAwarded, which keeps the
// awarding job safe to re-run.
func (r *Repository) InsertMVPRecord(ctx context.Context, rec *model.MVPRecord) error {
	query, args, err := squirrel.
		Insert("mvp_records").
		SetMap(map[string]interface{}{
			"room_id":          rec.RoomID,
			"date":             rec.Date,
			"user_telegram_id": rec.UserTelegramID,
			"score":            rec.Score,
			"tasks_completed":  rec.TasksCompleted,
			"created_at":       rec.CreatedAt,
		}).
		Suffix("ON CONFLICT (room_id, date) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build mvp insert query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert mvp record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrMVPAlreadyAwarded
	}
	return nil
}

func (r *Repository) GetMVPRecord(ctx context.Context, roomID uuid.UUID, date string) (*model.MVPRecord, error) {
	query, args, err := squirrel.
		Select("room_id", "date", "user_telegram_id", "score", "tasks_completed", "created_at").
		From("mvp_records").
		Where(squirrel.Eq{"room_id": roomID, "date": date}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row mvpRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.MVPRecord{
		RoomID:         row.RoomID,
		Date:           row.Date,
		UserTelegramID: row.UserTelegramID,
		Score:          row.Score,
		TasksCompleted: row.TasksCompleted,
		CreatedAt:      row.CreatedAt,
	}, nil
}
