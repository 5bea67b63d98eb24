package service

import (
	"context"
	"testing"

	"habitrooms/internal/model"
	"habitrooms/internal/repository"
	"habitrooms/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSocialService_GiveAppreciation(t *testing.T) {
	roomID := uuid.New()
	from := int64(123)
	to := int64(456)

	t.Run("cannot appreciate yourself", func(t *testing.T) {
		s := NewSocialService(&mocks.MockSocialRepository{}, nil, nil)
		quota, err := s.GiveAppreciation(context.Background(), roomID, from, from, model.AppreciationKudos)

		assert.Nil(t, quota)
		assert.ErrorIs(t, err, ErrCannotTargetSelf)
	})

	t.Run("unknown kind", func(t *testing.T) {
		s := NewSocialService(&mocks.MockSocialRepository{}, nil, nil)
		quota, err := s.GiveAppreciation(context.Background(), roomID, from, to, model.AppreciationKind("golfclap"))

		assert.Nil(t, quota)
		assert.ErrorIs(t, err, ErrUnknownKind)
	})

	t.Run("recipient not in room", func(t *testing.T) {
		repo := &mocks.MockSocialRepository{}
		repo.On("IsMember", mock.Anything, roomID, from).Return(true, nil)
		repo.On("IsMember", mock.Anything, roomID, to).Return(false, nil)

		s := NewSocialService(repo, nil, nil)
		quota, err := s.GiveAppreciation(context.Background(), roomID, from, to, model.AppreciationFire)

		assert.Nil(t, quota)
		assert.ErrorIs(t, err, ErrNotRoomMember)
	})

	t.Run("daily limit reached", func(t *testing.T) {
		repo := &mocks.MockSocialRepository{}
		repo.On("IsMember", mock.Anything, roomID, mock.Anything).Return(true, nil)
		repo.On("GiveAppreciation", mock.Anything, mock.Anything, DefaultAppreciationLimit).
			Return(repository.ErrLimitReached)

		s := NewSocialService(repo, nil, nil)
		quota, err := s.GiveAppreciation(context.Background(), roomID, from, to, model.AppreciationKudos)

		assert.Nil(t, quota)
		assert.ErrorIs(t, err, ErrDailyLimitReached)
	})

	t.Run("same kind to same member twice", func(t *testing.T) {
		repo := &mocks.MockSocialRepository{}
		repo.On("IsMember", mock.Anything, roomID, mock.Anything).Return(true, nil)
		repo.On("GiveAppreciation", mock.Anything, mock.Anything, DefaultAppreciationLimit).
			Return(repository.ErrDuplicateGift)

		s := NewSocialService(repo, nil, nil)
		quota, err := s.GiveAppreciation(context.Background(), roomID, from, to, model.AppreciationHeart)

		assert.Nil(t, quota)
		assert.ErrorIs(t, err, ErrDuplicateGift)
	})

	t.Run("success notifies recipient and returns quota", func(t *testing.T) {
		repo := &mocks.MockSocialRepository{}
		notifier := &mocks.MockNotifier{}

		repo.On("IsMember", mock.Anything, roomID, mock.Anything).Return(true, nil)
		repo.On("GiveAppreciation", mock.Anything, mock.MatchedBy(func(a *model.Appreciation) bool {
			return a.RoomID == roomID && a.FromTelegramID == from && a.ToTelegramID == to &&
				a.Kind == model.AppreciationKudos
		}), DefaultAppreciationLimit).Return(nil)
		repo.On("GetDailyQuotaUsed", mock.Anything, from, roomID, "appreciation", mock.Anything).Return(3, nil)
		notifier.On("Push", to, mock.MatchedBy(func(n model.Notification) bool {
			a, ok := n.(model.AppreciationReceived)
			return ok && a.FromTelegramID == from
		})).Return()

		s := NewSocialService(repo, notifier, nil)
		quota, err := s.GiveAppreciation(context.Background(), roomID, from, to, model.AppreciationKudos)

		assert.NoError(t, err)
		assert.Equal(t, DefaultAppreciationLimit, quota.Limit)
		assert.Equal(t, 3, quota.Used)
		assert.Equal(t, 2, quota.Remaining)
		notifier.AssertExpectations(t)
	})
}

func TestSocialService_SendNudge(t *testing.T) {
	roomID := uuid.New()
	from := int64(123)
	to := int64(456)

	t.Run("daily limit reached", func(t *testing.T) {
		repo := &mocks.MockSocialRepository{}
		repo.On("IsMember", mock.Anything, roomID, mock.Anything).Return(true, nil)
		repo.On("SendNudge", mock.Anything, mock.Anything, mock.Anything, DefaultNudgeLimit).
			Return(repository.ErrLimitReached)

		s := NewSocialService(repo, nil, nil)
		quota, err := s.SendNudge(context.Background(), roomID, from, to, "")

		assert.Nil(t, quota)
		assert.ErrorIs(t, err, ErrDailyLimitReached)
	})

	t.Run("DM failure does not fail the nudge", func(t *testing.T) {
		repo := &mocks.MockSocialRepository{}
		notifier := &mocks.MockNotifier{}
		dm := &mocks.MockDirectMessenger{}

		repo.On("IsMember", mock.Anything, roomID, mock.Anything).Return(true, nil)
		repo.On("SendNudge", mock.Anything, mock.Anything, mock.Anything, DefaultNudgeLimit).Return(nil)
		repo.On("GetDailyQuotaUsed", mock.Anything, from, roomID, "nudge", mock.Anything).Return(1, nil)
		notifier.On("Push", to, mock.Anything).Return()
		dm.On("SendDirectMessage", mock.Anything, to, mock.Anything).
			Return(errors.New("bot was blocked by the user"))

		s := NewSocialService(repo, notifier, dm)
		quota, err := s.SendNudge(context.Background(), roomID, from, to, "get moving")

		assert.NoError(t, err)
		assert.Equal(t, 2, quota.Remaining)
		dm.AssertExpectations(t)
	})

	t.Run("custom message reaches the DM text", func(t *testing.T) {
		repo := &mocks.MockSocialRepository{}
		dm := &mocks.MockDirectMessenger{}

		repo.On("IsMember", mock.Anything, roomID, mock.Anything).Return(true, nil)
		repo.On("SendNudge", mock.Anything, mock.MatchedBy(func(n *model.Nudge) bool {
			return n.Message == "stretch break?"
		}), mock.Anything, DefaultNudgeLimit).Return(nil)
		repo.On("GetDailyQuotaUsed", mock.Anything, from, roomID, "nudge", mock.Anything).Return(1, nil)
		dm.On("SendDirectMessage", mock.Anything, to, "Nudge from a roommate: stretch break?").Return(nil)

		s := NewSocialService(repo, nil, dm)
		_, err := s.SendNudge(context.Background(), roomID, from, to, "stretch break?")

		assert.NoError(t, err)
		dm.AssertExpectations(t)
	})
}

func TestSocialService_AppreciationsRemaining(t *testing.T) {
	roomID := uuid.New()

	t.Run("not a member", func(t *testing.T) {
		repo := &mocks.MockSocialRepository{}
		repo.On("IsMember", mock.Anything, roomID, int64(123)).Return(false, nil)

		s := NewSocialService(repo, nil, nil)
		quota, err := s.AppreciationsRemaining(context.Background(), roomID, 123)

		assert.Nil(t, quota)
		assert.ErrorIs(t, err, ErrNotRoomMember)
	})

	t.Run("quota never goes negative", func(t *testing.T) {
		repo := &mocks.MockSocialRepository{}
		repo.On("IsMember", mock.Anything, roomID, int64(123)).Return(true, nil)
		repo.On("GetDailyQuotaUsed", mock.Anything, int64(123), roomID, "appreciation", mock.Anything).
			Return(DefaultAppreciationLimit+1, nil)

		s := NewSocialService(repo, nil, nil)
		quota, err := s.AppreciationsRemaining(context.Background(), roomID, 123)

		assert.NoError(t, err)
		assert.Equal(t, 0, quota.Remaining)
	})
}
