package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"habitrooms/internal/model"

	"github.com/Masterminds/squirrel"
)

type User struct {
	TelegramID       int64     `db:"telegram_id"`
	Handle           string    `db:"handle"`
	Username         string    `db:"username"`
	Points           int       `db:"points"`
	Timezone         string    `db:"timezone"`
	IsAdmin          bool      `db:"is_admin"`
	RegistrationDate time.Time `db:"registration_date"`
	AuthDate         time.Time `db:"last_auth_date"`
}

func (u *User) toModel() *model.User {
	return &model.User{
		TelegramID:       u.TelegramID,
		Handle:           u.Handle,
		Username:         u.Username,
		Points:           u.Points,
		Timezone:         u.Timezone,
		IsAdmin:          u.IsAdmin,
		RegistrationDate: u.RegistrationDate,
		AuthDate:         u.AuthDate,
	}
}

func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query, args, err := squirrel.
		Insert("users").
		SetMap(map[string]interface{}{
			"telegram_id":       user.TelegramID,
			"handle":            user.Handle,
			"username":          user.Username,
			"timezone":          user.Timezone,
			"registration_date": user.RegistrationDate,
			"last_auth_date":    user.AuthDate,
			"points":            user.Points,
		}).
		Suffix(`ON CONFLICT (telegram_id) DO UPDATE
			SET username = EXCLUDED.username,
			    last_auth_date = EXCLUDED.last_auth_date`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

func (r *Repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user User

	query, args, err := squirrel.
		Select("telegram_id", "handle", "username", "points", "timezone",
			"is_admin", "registration_date", "last_auth_date").
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) UpdateUserPoints(ctx context.Context, telegramID int64, points int) error {
	query, args, err := squirrel.
		Update("users").
		Set("points", squirrel.Expr("points + ?", points)).
		Where(squirrel.Eq{"telegram_id": telegramID}).
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

func (r *Repository) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	query, args, err := squirrel.
		Select("telegram_id", "handle", "username", "points", "timezone",
			"is_admin", "registration_date", "last_auth_date").
		From("users").
		OrderBy("points DESC", "telegram_id ASC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var users []User
	err = r.db.SelectContext(ctx, &users, query, args...)
	if err != nil {
		return nil, err
	}

	out := make([]*model.User, 0, len(users))
	for i := range users {
		out = append(out, users[i].toModel())
	}
	return out, nil
}
