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

const (
	DefaultAppreciationLimit = 5
	DefaultNudgeLimit        = 3

	quotaKindAppreciation = "appreciation"
	quotaKindNudge        = "nudge"
)

type SocialService struct {
	repo              SocialRepository
	notifier          Notifier
	dm                DirectMessenger
	appreciationLimit int
	nudgeLimit        int
}

func NewSocialService(repo SocialRepository, notifier Notifier, dm DirectMessenger) *SocialService {
	return &SocialService{
		repo:              repo,
		notifier:          notifier,
		dm:                dm,
		appreciationLimit: DefaultAppreciationLimit,
		nudgeLimit:        DefaultNudgeLimit,
	}
}

// GiveAppreciation hands one appreciation to a room member. Two limits
// apply inside the current UTC day: a total per (giver, room), and one
// appreciation of each kind per recipient. Both are enforced atomically in
// the repository, so a lost race reads as a reached limit, not an error.
func (s *SocialService) GiveAppreciation(ctx context.Context, roomID uuid.UUID, from, to int64, kind model.AppreciationKind) (*model.QuotaStatus, error) {
	if from == to {
		return nil, ErrCannotTargetSelf
	}
	if !kind.Valid() {
		return nil, ErrUnknownKind
	}
	if err := s.checkMembers(ctx, roomID, from, to); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	a := &model.Appreciation{
		ID:             uuid.New(),
		RoomID:         roomID,
		FromTelegramID: from,
		ToTelegramID:   to,
		Kind:           kind,
		Day:            streak.DayString(now),
		CreatedAt:      now,
	}

	err := s.repo.GiveAppreciation(ctx, a, s.appreciationLimit)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrLimitReached):
			return nil, ErrDailyLimitReached
		case errors.Is(err, repository.ErrDuplicateGift):
			return nil, ErrDuplicateGift
		}
		return nil, fmt.Errorf("failed to give appreciation: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Push(to, model.AppreciationReceived{
			RoomID:         roomID,
			FromTelegramID: from,
			Kind:           kind,
		})
	}

	return s.quotaStatus(ctx, roomID, from, quotaKindAppreciation, a.Day, s.appreciationLimit)
}

// SendNudge pokes an inactive room member, within the sender's daily nudge
// quota. The nudge also goes out as a bot DM; DM failure never fails the
// nudge.
func (s *SocialService) SendNudge(ctx context.Context, roomID uuid.UUID, from, to int64, message string) (*model.QuotaStatus, error) {
	if from == to {
		return nil, ErrCannotTargetSelf
	}
	if err := s.checkMembers(ctx, roomID, from, to); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	day := streak.DayString(now)
	n := &model.Nudge{
		ID:             uuid.New(),
		RoomID:         roomID,
		FromTelegramID: from,
		ToTelegramID:   to,
		Message:        message,
		CreatedAt:      now,
	}

	err := s.repo.SendNudge(ctx, n, day, s.nudgeLimit)
	if err != nil {
		if errors.Is(err, repository.ErrLimitReached) {
			return nil, ErrDailyLimitReached
		}
		return nil, fmt.Errorf("failed to send nudge: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Push(to, model.NudgeReceived{
			RoomID:         roomID,
			FromTelegramID: from,
			Message:        message,
		})
	}
	if s.dm != nil {
		text := "You got a nudge from a roommate. Time to get a task done!"
		if message != "" {
			text = fmt.Sprintf("Nudge from a roommate: %s", message)
		}
		if err := s.dm.SendDirectMessage(ctx, to, text); err != nil {
			logger.Logger().Warn("failed to send nudge DM",
				zap.Int64("telegram_id", to), zap.Error(err))
		}
	}

	return s.quotaStatus(ctx, roomID, from, quotaKindNudge, day, s.nudgeLimit)
}

func (s *SocialService) AppreciationsRemaining(ctx context.Context, roomID uuid.UUID, telegramID int64) (*model.QuotaStatus, error) {
	member, err := s.repo.IsMember(ctx, roomID, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return nil, ErrNotRoomMember
	}

	day := streak.DayString(time.Now().UTC())
	return s.quotaStatus(ctx, roomID, telegramID, quotaKindAppreciation, day, s.appreciationLimit)
}

func (s *SocialService) RoomAppreciationSummary(ctx context.Context, roomID uuid.UUID) ([]*model.AppreciationSummary, error) {
	summary, err := s.repo.RoomAppreciationSummary(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load appreciation summary: %w", err)
	}
	return summary, nil
}

func (s *SocialService) quotaStatus(ctx context.Context, roomID uuid.UUID, actorID int64, kind, day string, limit int) (*model.QuotaStatus, error) {
	used, err := s.repo.GetDailyQuotaUsed(ctx, actorID, roomID, kind, day)
	if err != nil {
		return nil, fmt.Errorf("failed to read quota: %w", err)
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return &model.QuotaStatus{Limit: limit, Used: used, Remaining: remaining}, nil
}

func (s *SocialService) checkMembers(ctx context.Context, roomID uuid.UUID, from, to int64) error {
	for _, id := range []int64{from, to} {
		member, err := s.repo.IsMember(ctx, roomID, id)
		if err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if !member {
			return ErrNotRoomMember
		}
	}
	return nil
}
