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
	"github.com/jmoiron/sqlx"
)

type Room struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Timezone  string    `db:"timezone"`
	CreatedBy int64     `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
	Members   int       `db:"members"`
}

type RoomMember struct {
	RoomID         uuid.UUID `db:"room_id"`
	UserTelegramID int64     `db:"user_telegram_id"`
	Username       string    `db:"username"`
	Points         int       `db:"points"`
	JoinedAt       time.Time `db:"joined_at"`
}

// CreateRoom inserts the room and enrolls its creator in one transaction.
func (r *Repository) CreateRoom(ctx context.Context, room *model.Room) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("rooms").
			SetMap(map[string]interface{}{
				"id":         room.ID,
				"name":       room.Name,
				"timezone":   room.Timezone,
				"created_by": room.CreatedBy,
				"created_at": room.CreatedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build room insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert room: %w", err)
		}

		memberQuery, memberArgs, err := squirrel.
			Insert("room_members").
			SetMap(map[string]interface{}{
				"room_id":          room.ID,
				"user_telegram_id": room.CreatedBy,
				"points":           0,
				"joined_at":        room.CreatedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build member insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, memberQuery, memberArgs...)
		if err != nil {
			return fmt.Errorf("failed to insert creator membership: %w", err)
		}

		return nil
	})
}

func (r *Repository) GetRoom(ctx context.Context, roomID uuid.UUID) (*model.Room, error) {
	query, args, err := squirrel.
		Select("r.id", "r.name", "r.timezone", "r.created_by", "r.created_at",
			"COUNT(m.user_telegram_id) AS members").
		From("rooms r").
		LeftJoin("room_members m ON m.room_id = r.id").
		Where(squirrel.Eq{"r.id": roomID}).
		GroupBy("r.id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var room Room
	err = r.db.GetContext(ctx, &room, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.Room{
		ID:        room.ID,
		Name:      room.Name,
		Timezone:  room.Timezone,
		CreatedBy: room.CreatedBy,
		CreatedAt: room.CreatedAt,
		Members:   room.Members,
	}, nil
}

func (r *Repository) ListRoomIDs(ctx context.Context) ([]uuid.UUID, error) {
	query, args, err := squirrel.
		Select("id").
		From("rooms").
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	err = r.db.SelectContext(ctx, &ids, query, args...)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Repository) AddMember(ctx context.Context, roomID uuid.UUID, telegramID int64, joinedAt time.Time) error {
	query, args, err := squirrel.
		Insert("room_members").
		SetMap(map[string]interface{}{
			"room_id":          roomID,
			"user_telegram_id": telegramID,
			"points":           0,
			"joined_at":        joinedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyMember
		}
		return err
	}
	return nil
}

func (r *Repository) RemoveMember(ctx context.Context, roomID uuid.UUID, telegramID int64) error {
	query, args, err := squirrel.
		Delete("room_members").
		Where(squirrel.Eq{"room_id": roomID, "user_telegram_id": telegramID}).
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
		return ErrNotMember
	}
	return nil
}

func (r *Repository) IsMember(ctx context.Context, roomID uuid.UUID, telegramID int64) (bool, error) {
	query, args, err := squirrel.
		Select("1").
		From("room_members").
		Where(squirrel.Eq{"room_id": roomID, "user_telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, err
	}

	var one int
	err = r.db.GetContext(ctx, &one, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *Repository) GetRoomMembers(ctx context.Context, roomID uuid.UUID) ([]*model.RoomMember, error) {
	query, args, err := squirrel.
		Select("m.room_id", "m.user_telegram_id", "u.username", "m.points", "m.joined_at").
		From("room_members m").
		Join("users u ON u.telegram_id = m.user_telegram_id").
		Where(squirrel.Eq{"m.room_id": roomID}).
		OrderBy("m.points DESC", "m.user_telegram_id ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var members []RoomMember
	err = r.db.SelectContext(ctx, &members, query, args...)
	if err != nil {
		return nil, err
	}

	out := make([]*model.RoomMember, 0, len(members))
	for _, m := range members {
		out = append(out, &model.RoomMember{
			RoomID:         m.RoomID,
			UserTelegramID: m.UserTelegramID,
			Username:       m.Username,
			Points:         m.Points,
			JoinedAt:       m.JoinedAt,
		})
	}
	return out, nil
}

func (r *Repository) UpdateMemberPoints(ctx context.Context, roomID uuid.UUID, telegramID int64, points int) error {
	query, args, err := squirrel.
		Update("room_members").
		Set("points", squirrel.Expr("points + ?", points)).
		Where(squirrel.Eq{"room_id": roomID, "user_telegram_id": telegramID}).
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
		return ErrNotMember
	}
	return nil
}
