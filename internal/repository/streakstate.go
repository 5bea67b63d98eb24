package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"habitrooms/internal/model"
	"habitrooms/internal/streak"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type streakRow struct {
	Scope            string     `db:"scope"`
	RoomID           uuid.UUID  `db:"room_id"`
	UserTelegramID   int64      `db:"user_telegram_id"`
	CurrentStreak    int        `db:"current_streak"`
	LongestStreak    int        `db:"longest_streak"`
	LastActivityDate *time.Time `db:"last_activity_date"`
}

func (s *streakRow) state() streak.State {
	st := streak.State{Current: s.CurrentStreak, Longest: s.LongestStreak}
	if s.LastActivityDate != nil {
		d := streak.DayStart(*s.LastActivityDate)
		st.LastActivity = &d
	}
	return st
}

// StreakEntry pairs a streak key with its stored state, as returned to the
// decay sweep.
type StreakEntry struct {
	Key   model.StreakKey
	State streak.State
}

func keyColumns(key model.StreakKey) map[string]interface{} {
	return map[string]interface{}{
		"scope":            string(key.Scope),
		"room_id":          key.RoomID,
		"user_telegram_id": key.UserTelegramID,
	}
}

// GetStreakState returns the stored counter for the key, or a zero state
// when the key has never been active.
func (r *Repository) GetStreakState(ctx context.Context, key model.StreakKey) (streak.State, error) {
	query, args, err := squirrel.
		Select("scope", "room_id", "user_telegram_id",
			"current_streak", "longest_streak", "last_activity_date").
		From("streak_states").
		Where(squirrel.Eq(keyColumns(key))).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return streak.State{}, err
	}

	var row streakRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return streak.State{}, nil
		}
		return streak.State{}, err
	}
	return row.state(), nil
}

// MutateStreakState applies fn to the stored state under a row lock, so two
// concurrent completions of the same key cannot both read the stale counter.
// The row is created on first use. fn's second return value reports whether
// the new state must be written back.
func (r *Repository) MutateStreakState(ctx context.Context, key model.StreakKey, fn func(streak.State) (streak.State, bool)) (streak.State, bool, error) {
	var out streak.State
	var changed bool

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		insert, insertArgs, err := squirrel.
			Insert("streak_states").
			SetMap(map[string]interface{}{
				"scope":            string(key.Scope),
				"room_id":          key.RoomID,
				"user_telegram_id": key.UserTelegramID,
				"current_streak":   0,
				"longest_streak":   0,
			}).
			Suffix("ON CONFLICT (scope, room_id, user_telegram_id) DO NOTHING").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insert, insertArgs...); err != nil {
			return fmt.Errorf("failed to seed streak row: %w", err)
		}

		sel, selArgs, err := squirrel.
			Select("scope", "room_id", "user_telegram_id",
				"current_streak", "longest_streak", "last_activity_date").
			From("streak_states").
			Where(squirrel.Eq(keyColumns(key))).
			Suffix("FOR UPDATE").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var row streakRow
		if err := tx.GetContext(ctx, &row, sel, selArgs...); err != nil {
			return fmt.Errorf("failed to lock streak row: %w", err)
		}

		out, changed = fn(row.state())
		if !changed {
			return nil
		}

		update, updateArgs, err := squirrel.
			Update("streak_states").
			SetMap(map[string]interface{}{
				"current_streak":     out.Current,
				"longest_streak":     out.Longest,
				"last_activity_date": out.LastActivity,
			}).
			Where(squirrel.Eq(keyColumns(key))).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, update, updateArgs...); err != nil {
			return fmt.Errorf("failed to update streak row: %w", err)
		}
		return nil
	})
	if err != nil {
		return streak.State{}, false, err
	}
	return out, changed, nil
}

// ListActiveStreaks returns every counter the decay sweep has to look at.
func (r *Repository) ListActiveStreaks(ctx context.Context) ([]StreakEntry, error) {
	query, args, err := squirrel.
		Select("scope", "room_id", "user_telegram_id",
			"current_streak", "longest_streak", "last_activity_date").
		From("streak_states").
		Where(squirrel.Gt{"current_streak": 0}).
		OrderBy("scope", "room_id", "user_telegram_id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []streakRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	out := make([]StreakEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, StreakEntry{
			Key: model.StreakKey{
				Scope:          model.StreakScope(row.Scope),
				RoomID:         row.RoomID,
				UserTelegramID: row.UserTelegramID,
			},
			State: row.state(),
		})
	}
	return out, nil
}
