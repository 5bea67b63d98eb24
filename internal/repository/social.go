package repository

import (
	"context"
	"database/sql"
	"errors"

	"habitrooms/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// GetDailyQuotaUsed reads the (actor, room, kind, day) counter; zero when
// no slot was taken yet inside the window.
func (r *Repository) GetDailyQuotaUsed(ctx context.Context, actorID int64, roomID uuid.UUID, kind string, day string) (int, error) {
	query, args, err := squirrel.
		Select("count").
		From("daily_quotas").
		Where(squirrel.Eq{
			"actor_telegram_id": actorID,
			"room_id":           roomID,
			"kind":              kind,
			"day":               day,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = r.db.GetContext(ctx, &count, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

type appreciationSummaryRow struct {
	UserTelegramID int64          `db:"to_telegram_id"`
	Kinds          pq.StringArray `db:"kinds"`
}

// RoomAppreciationSummary lists, per member, every appreciation kind
// received in the room, newest first.
func (r *Repository) RoomAppreciationSummary(ctx context.Context, roomID uuid.UUID) ([]*model.AppreciationSummary, error) {
	query, args, err := squirrel.
		Select("to_telegram_id", "ARRAY_AGG(kind ORDER BY created_at DESC) AS kinds").
		From("appreciations").
		Where(squirrel.Eq{"room_id": roomID}).
		GroupBy("to_telegram_id").
		OrderBy("to_telegram_id ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []appreciationSummaryRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	out := make([]*model.AppreciationSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, &model.AppreciationSummary{
			UserTelegramID: row.UserTelegramID,
			Kinds:          row.Kinds,
		})
	}
	return out, nil
}

// GiveAppreciation runs the quota take and the uniqueness insert in one
// transaction, so losing either check leaves no partial state behind.
func (r *Repository) GiveAppreciation(ctx context.Context, a *model.Appreciation, limit int) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		quota, quotaArgs, err := squirrel.
			Insert("daily_quotas").
			Columns("actor_telegram_id", "room_id", "kind", "day", "count").
			Values(a.FromTelegramID, a.RoomID, "appreciation", a.Day, 1).
			Suffix(`ON CONFLICT (actor_telegram_id, room_id, kind, day)
				DO UPDATE SET count = daily_quotas.count + 1
				WHERE daily_quotas.count < ?
				RETURNING count`, limit).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var count int
		if err := tx.GetContext(ctx, &count, quota, quotaArgs...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrLimitReached
			}
			return err
		}

		insert, insertArgs, err := squirrel.
			Insert("appreciations").
			SetMap(map[string]interface{}{
				"id":               a.ID,
				"room_id":          a.RoomID,
				"from_telegram_id": a.FromTelegramID,
				"to_telegram_id":   a.ToTelegramID,
				"kind":             string(a.Kind),
				"day":              a.Day,
				"created_at":       a.CreatedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, insert, insertArgs...); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateGift
			}
			return err
		}
		return nil
	})
}

// SendNudge consumes a nudge quota slot and records the nudge atomically.
func (r *Repository) SendNudge(ctx context.Context, n *model.Nudge, day string, limit int) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		quota, quotaArgs, err := squirrel.
			Insert("daily_quotas").
			Columns("actor_telegram_id", "room_id", "kind", "day", "count").
			Values(n.FromTelegramID, n.RoomID, "nudge", day, 1).
			Suffix(`ON CONFLICT (actor_telegram_id, room_id, kind, day)
				DO UPDATE SET count = daily_quotas.count + 1
				WHERE daily_quotas.count < ?
				RETURNING count`, limit).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var count int
		if err := tx.GetContext(ctx, &count, quota, quotaArgs...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrLimitReached
			}
			return err
		}

		insert, insertArgs, err := squirrel.
			Insert("nudges").
			SetMap(map[string]interface{}{
				"id":               n.ID,
				"room_id":          n.RoomID,
				"from_telegram_id": n.FromTelegramID,
				"to_telegram_id":   n.ToTelegramID,
				"message":          n.Message,
				"created_at":       n.CreatedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, insert, insertArgs...); err != nil {
			return err
		}
		return nil
	})
}
