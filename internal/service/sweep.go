package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"habitrooms/internal/model"
	"habitrooms/internal/streak"
	"habitrooms/pkg/logger"

	"go.uber.org/zap"
)

// sweepOffset delays the nightly run slightly past UTC midnight so that
// completions racing the boundary land on the correct side of it.
const sweepOffset = 5 * time.Minute

// SweepService owns the nightly jobs: zeroing streaks that missed a day and
// awarding yesterday's MVP in every room. Both jobs are idempotent, so a
// crash mid-run needs no recovery beyond running again.
type SweepService struct {
	repo     SweepRepository
	mvp      MVPServiceI
	notifier Notifier

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSweepService(repo SweepRepository, mvp MVPServiceI, notifier Notifier) *SweepService {
	return &SweepService{
		repo:     repo,
		mvp:      mvp,
		notifier: notifier,
	}
}

// Start launches the nightly loop. Stop (or cancelling the parent context)
// shuts it down.
func (s *SweepService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			now := time.Now().UTC()
			next := streak.DayEnd(now).Add(sweepOffset)

			timer := time.NewTimer(next.Sub(now))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			s.RunNightly(ctx, time.Now().UTC())
		}
	}()
}

func (s *SweepService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// RunNightly performs one full pass: decay first, then MVP awards over the
// previous day, which by then is a closed window.
func (s *SweepService) RunNightly(ctx context.Context, now time.Time) {
	s.RunDecaySweep(ctx, now)
	s.AwardDailyMVPs(ctx, now.AddDate(0, 0, -1))
}

// RunDecaySweep zeroes every streak with no valid activity yesterday or
// today. One broken entry never stops the rest of the sweep.
func (s *SweepService) RunDecaySweep(ctx context.Context, now time.Time) {
	log := logger.Logger()

	entries, err := s.repo.ListActiveStreaks(ctx)
	if err != nil {
		log.Error("decay sweep: failed to list streaks", zap.Error(err))
		return
	}

	reset := 0
	for _, entry := range entries {
		if !entry.State.Decayed(now) {
			continue
		}

		lost := entry.State.Current
		_, changed, err := s.repo.MutateStreakState(ctx, entry.Key, func(st streak.State) (streak.State, bool) {
			// Re-check under the lock: a completion may have landed since
			// the listing.
			if !st.Decayed(now) {
				return st, false
			}
			st.Current = 0
			return st, true
		})
		if err != nil {
			log.Error("decay sweep: failed to reset streak",
				zap.String("scope", string(entry.Key.Scope)),
				zap.Int64("telegram_id", entry.Key.UserTelegramID),
				zap.Error(err))
			continue
		}
		if !changed {
			continue
		}
		reset++

		if s.notifier != nil && entry.Key.Scope != model.StreakScopeRoom {
			s.notifier.Push(entry.Key.UserTelegramID, model.StreakReset{
				UserTelegramID: entry.Key.UserTelegramID,
				RoomID:         entry.Key.RoomID,
				LostStreak:     lost,
			})
		}
	}

	log.Info("decay sweep finished",
		zap.Int("checked", len(entries)), zap.Int("reset", reset))
}

// AwardDailyMVPs decides the MVP of the given day for every room. Rooms
// whose award fails or that already have one are skipped, not fatal.
func (s *SweepService) AwardDailyMVPs(ctx context.Context, day time.Time) {
	log := logger.Logger()

	rooms, err := s.repo.ListRoomIDs(ctx)
	if err != nil {
		log.Error("mvp sweep: failed to list rooms", zap.Error(err))
		return
	}

	awarded := 0
	for _, roomID := range rooms {
		_, err := s.mvp.AwardRoomMVP(ctx, roomID, day)
		switch {
		case err == nil:
			awarded++
		case errors.Is(err, ErrNoEligibleMembers), errors.Is(err, ErrMVPAlreadyAwarded):
			// Quiet day or a re-run; nothing to do.
		default:
			log.Error("mvp sweep: failed to award room",
				zap.String("room_id", roomID.String()), zap.Error(err))
		}
	}

	log.Info("mvp sweep finished",
		zap.Int("rooms", len(rooms)), zap.Int("awarded", awarded))
}
