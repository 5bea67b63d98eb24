package service

import (
	"context"
	"errors"
	"fmt"

	"habitrooms/internal/model"
	"habitrooms/internal/repository"
	"habitrooms/internal/streak"
)

const leaderboardSize = 100

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

func (s *UserService) RegisterUser(ctx context.Context, user *model.User) error {
	if user.Timezone == "" {
		user.Timezone = "UTC"
	}
	err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

func (s *UserService) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by telegram ID: %w", err)
	}
	return user, nil
}

func (s *UserService) GetLeaderboard(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.GetTopUsers(ctx, leaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	return users, nil
}

// GetUserStreak returns the user's global streak across all rooms.
func (s *UserService) GetUserStreak(ctx context.Context, telegramID int64) (streak.State, error) {
	if _, err := s.GetUserByTelegramID(ctx, telegramID); err != nil {
		return streak.State{}, err
	}
	return s.repo.GetStreakState(ctx, model.UserStreakKey(telegramID))
}
