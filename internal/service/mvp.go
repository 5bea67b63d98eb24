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

type MVPService struct {
	repo     MVPRepository
	notifier Notifier
	dm       DirectMessenger
}

func NewMVPService(repo MVPRepository, notifier Notifier, dm DirectMessenger) *MVPService {
	return &MVPService{
		repo:     repo,
		notifier: notifier,
		dm:       dm,
	}
}

// AwardRoomMVP scores the given UTC day's activity and persists the winner.
// The record is written at most once per room per day; a re-run finds the
// existing record and returns ErrMVPAlreadyAwarded.
func (s *MVPService) AwardRoomMVP(ctx context.Context, roomID uuid.UUID, day time.Time) (*model.MVPRecord, error) {
	if _, err := s.repo.GetRoom(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	start := streak.DayStart(day)
	end := streak.DayEnd(day)

	stats, err := s.repo.MemberDayStats(ctx, roomID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load day stats: %w", err)
	}

	candidates := make([]streak.Candidate, 0, len(stats))
	byID := make(map[int64]*model.MemberDayStats, len(stats))
	for _, st := range stats {
		byID[st.UserTelegramID] = st

		state, err := s.repo.GetStreakState(ctx, model.UserRoomStreakKey(roomID, st.UserTelegramID))
		if err != nil {
			logger.Logger().Warn("failed to load streak for mvp scoring",
				zap.Int64("telegram_id", st.UserTelegramID), zap.Error(err))
			state = streak.State{}
		}

		maintained := st.ValidTasks > 0 &&
			state.LastActivity != nil &&
			streak.DaysBetween(start, *state.LastActivity) >= 0

		first := end
		if st.FirstCompletion != nil {
			first = *st.FirstCompletion
		}

		candidates = append(candidates, streak.Candidate{
			UserTelegramID:  st.UserTelegramID,
			Score:           streak.Score(st.TasksCompleted, st.ValidTasks, maintained, state.Current),
			ValidTasks:      st.ValidTasks,
			FirstCompletion: first,
		})
	}

	winner, ok := streak.PickMVP(candidates)
	if !ok {
		return nil, ErrNoEligibleMembers
	}

	rec := &model.MVPRecord{
		RoomID:         roomID,
		Date:           streak.DayString(start),
		UserTelegramID: winner.UserTelegramID,
		Score:          winner.Score,
		TasksCompleted: byID[winner.UserTelegramID].TasksCompleted,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.repo.InsertMVPRecord(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrMVPAlreadyAwarded) {
			return nil, ErrMVPAlreadyAwarded
		}
		return nil, fmt.Errorf("failed to persist mvp record: %w", err)
	}

	s.announce(ctx, rec)
	return rec, nil
}

func (s *MVPService) GetRoomMVP(ctx context.Context, roomID uuid.UUID, date string) (*model.MVPRecord, error) {
	rec, err := s.repo.GetMVPRecord(ctx, roomID, date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMVPNotFound
		}
		return nil, fmt.Errorf("failed to get mvp record: %w", err)
	}
	return rec, nil
}

// announce is best-effort on both channels.
func (s *MVPService) announce(ctx context.Context, rec *model.MVPRecord) {
	log := logger.Logger()

	if s.notifier != nil {
		members, err := s.repo.GetRoomMembers(ctx, rec.RoomID)
		if err != nil {
			log.Warn("failed to load members for mvp announcement",
				zap.String("room_id", rec.RoomID.String()), zap.Error(err))
		} else {
			ids := make([]int64, 0, len(members))
			for _, m := range members {
				ids = append(ids, m.UserTelegramID)
			}
			s.notifier.Broadcast(ids, model.MVPDecided{
				RoomID:         rec.RoomID,
				Date:           rec.Date,
				UserTelegramID: rec.UserTelegramID,
				Score:          rec.Score,
			})
		}
	}

	if s.dm != nil {
		text := fmt.Sprintf("You are your room's MVP for %s with a score of %d. Keep it up!",
			rec.Date, rec.Score)
		if err := s.dm.SendDirectMessage(ctx, rec.UserTelegramID, text); err != nil {
			log.Warn("failed to send mvp DM",
				zap.Int64("telegram_id", rec.UserTelegramID), zap.Error(err))
		}
	}
}
