package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"habitrooms/internal/model"
	"habitrooms/internal/repository"
	"habitrooms/internal/streak"

	"github.com/google/uuid"
)

type RoomService struct {
	repo RoomRepository
}

func NewRoomService(repo RoomRepository) *RoomService {
	return &RoomService{
		repo: repo,
	}
}

func (s *RoomService) CreateRoom(ctx context.Context, name, timezone string, createdBy int64) (*model.Room, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("invalid room timezone %q: %w", timezone, err)
	}

	room := &model.Room{
		ID:        uuid.New(),
		Name:      name,
		Timezone:  timezone,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
		Members:   1,
	}

	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return room, nil
}

func (s *RoomService) GetRoom(ctx context.Context, roomID uuid.UUID) (*model.Room, error) {
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return room, nil
}

func (s *RoomService) JoinRoom(ctx context.Context, roomID uuid.UUID, telegramID int64) error {
	if _, err := s.GetRoom(ctx, roomID); err != nil {
		return err
	}

	err := s.repo.AddMember(ctx, roomID, telegramID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyMember) {
			return ErrAlreadyRoomMember
		}
		return fmt.Errorf("failed to join room: %w", err)
	}
	return nil
}

func (s *RoomService) LeaveRoom(ctx context.Context, roomID uuid.UUID, telegramID int64) error {
	err := s.repo.RemoveMember(ctx, roomID, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotMember) {
			return ErrNotRoomMember
		}
		return fmt.Errorf("failed to leave room: %w", err)
	}
	return nil
}

func (s *RoomService) GetRoomLeaderboard(ctx context.Context, roomID uuid.UUID) ([]*model.RoomMember, error) {
	if _, err := s.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}

	members, err := s.repo.GetRoomMembers(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room members: %w", err)
	}
	return members, nil
}

// GetRoomStreak returns the room's shared streak: consecutive days on which
// any member recorded a valid completion.
func (s *RoomService) GetRoomStreak(ctx context.Context, roomID uuid.UUID) (streak.State, error) {
	if _, err := s.GetRoom(ctx, roomID); err != nil {
		return streak.State{}, err
	}
	return s.repo.GetStreakState(ctx, model.RoomStreakKey(roomID))
}
