package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"spinloot_backend/internal/model"
	"spinloot_backend/internal/repository"

	"github.com/google/uuid"
)

const MaxSpinsPerDay = 3

// SpinRewards is the wheel, walked in order during selection. The
// probabilities sum to 1.0 by construction.
var SpinRewards = []model.SpinReward{
	{Points: 100, Description: "COSMIC JACKPOT!", Probability: 0.05},
	{Points: 50, Description: "Stellar Win", Probability: 0.10},
	{Points: 25, Description: "Galaxy Win", Probability: 0.15},
	{Points: 15, Description: "Space Win", Probability: 0.30},
	{Points: 10, Description: "Planet Win", Probability: 0.40},
}

type SpinnerService struct {
	repo       UserRepository
	scoreboard Scoreboard
	rand       func() float64
}

func NewSpinnerService(repo UserRepository, scoreboard Scoreboard) *SpinnerService {
	return &SpinnerService{
		repo:       repo,
		scoreboard: scoreboard,
		rand:       rand.Float64,
	}
}

// NewSpinnerServiceWithRand injects the random draw, for deterministic
// outcomes in tests.
func NewSpinnerServiceWithRand(repo UserRepository, scoreboard Scoreboard, draw func() float64) *SpinnerService {
	s := NewSpinnerService(repo, scoreboard)
	s.rand = draw
	return s
}

// drawReward walks the table accumulating probability and returns the
// first entry whose cumulative weight reaches the draw. Floating point
// drift falls through to the last entry.
func (s *SpinnerService) drawReward() model.SpinReward {
	r := s.rand()
	cumulative := 0.0
	for _, reward := range SpinRewards {
		cumulative += reward.Probability
		if r <= cumulative {
			return reward
		}
	}
	return SpinRewards[len(SpinRewards)-1]
}

// applyDayRollover resets the daily spin counter when the last spin was
// on an earlier calendar day. The reset is persisted even when the
// caller is only reading status.
func (s *SpinnerService) applyDayRollover(ctx context.Context, user *model.User, now time.Time) error {
	if user.LastSpinnerSpin == nil || model.SameDay(*user.LastSpinnerSpin, now) {
		return nil
	}
	if user.SpinnerSpinsToday == 0 {
		return nil
	}

	user.SpinnerSpinsToday = 0
	if err := s.repo.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to persist spin counter reset: %w", err)
	}
	return nil
}

func (s *SpinnerService) getUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Spin draws a weighted reward, grants its points through the ledger and
// advances the daily counter.
func (s *SpinnerService) Spin(ctx context.Context, userID uuid.UUID) (*model.SpinResult, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.applyDayRollover(ctx, user, now); err != nil {
		return nil, err
	}

	if user.SpinnerSpinsToday >= MaxSpinsPerDay {
		return nil, ErrSpinsExhausted
	}

	reward := s.drawReward()

	user.LastSpinnerSpin = &now
	user.SpinnerSpinsToday++
	user.AddPoints(reward.Points, model.SourceSpinner, "Daily spinner: "+reward.Description, "")

	if err := s.repo.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save spin: %w", err)
	}

	if s.scoreboard != nil {
		s.scoreboard.SetScore(ctx, user.WalletAddress, user.TotalPoints)
	}

	return &model.SpinResult{
		Points:       reward.Points,
		Description:  reward.Description,
		TotalPoints:  user.TotalPoints,
		CurrentTier:  user.CurrentTier,
		SpinsToday:   user.SpinnerSpinsToday,
		CanSpinAgain: user.SpinnerSpinsToday < MaxSpinsPerDay,
	}, nil
}

// GetStatus reports the day's spin allowance. The rollover reset is
// applied and persisted here too.
func (s *SpinnerService) GetStatus(ctx context.Context, userID uuid.UUID) (*model.SpinnerStatus, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.applyDayRollover(ctx, user, now); err != nil {
		return nil, err
	}

	status := &model.SpinnerStatus{
		SpinsToday:     user.SpinnerSpinsToday,
		MaxSpinsPerDay: MaxSpinsPerDay,
		CanSpin:        user.SpinnerSpinsToday < MaxSpinsPerDay,
		LastSpin:       user.LastSpinnerSpin,
		NextReset:      nextResetTime(now),
	}
	if !status.CanSpin {
		status.Reason = "You have already spun 3 times today. Come back tomorrow!"
	}

	return status, nil
}

// GetHistory pages through the user's spinner entries, newest first.
func (s *SpinnerService) GetHistory(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.PointsEntry, Pagination, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, Pagination{}, err
	}

	var history []model.PointsEntry
	for _, entry := range user.PointsHistory {
		if entry.Source == model.SourceSpinner {
			history = append(history, entry)
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp.After(history[j].Timestamp)
	})

	start, end, p := paginate(len(history), page, limit)
	return history[start:end], p, nil
}

// nextResetTime is the upcoming UTC midnight.
func nextResetTime(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}
