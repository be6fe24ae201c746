package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"spinloot_backend/internal/model"
	"spinloot_backend/internal/repository"
	"spinloot_backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReferralService struct {
	users      UserRepository
	referrals  ReferralRepository
	scoreboard Scoreboard
	linkBase   string
}

func NewReferralService(users UserRepository, referrals ReferralRepository, scoreboard Scoreboard, linkBase string) *ReferralService {
	return &ReferralService{
		users:      users,
		referrals:  referrals,
		scoreboard: scoreboard,
		linkBase:   linkBase,
	}
}

// Apply wires up a referral for a freshly registered user: relationship
// record, referredBy link, welcome bonus for the new user and referral
// bonus for the referrer. An unknown code or a self-referral is a silent
// no-op so registration never fails on a bad code.
func (s *ReferralService) Apply(ctx context.Context, newUser *model.User, referralCode string, meta model.ReferralMetadata) error {
	referrer, err := s.users.GetUserByReferralCode(ctx, referralCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Logger().Info("referral code not found, skipping",
				zap.String("referral_code", referralCode))
			return nil
		}
		return fmt.Errorf("failed to look up referral code: %w", err)
	}

	if referrer.ID == newUser.ID {
		return nil
	}

	ref := &model.Referral{
		ID:               uuid.New(),
		ReferrerID:       referrer.ID,
		ReferredID:       newUser.ID,
		ReferralCode:     referrer.ReferralCode,
		Status:           model.ReferralPending,
		ReferrerEarnings: model.ReferrerBonus,
		ReferredBonus:    model.ReferredBonus,
		Source:           model.ReferralSourceLink,
		Metadata:         meta,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.referrals.CreateReferral(ctx, ref); err != nil {
		return fmt.Errorf("failed to create referral record: %w", err)
	}

	if newUser.ReferredBy == nil {
		newUser.ReferredBy = &referrer.ID
	}
	newUser.AddPoints(model.ReferredBonus, model.SourceReferral,
		"Welcome bonus for using referral code "+referrer.ReferralCode, "")
	if err := s.users.SaveUser(ctx, newUser); err != nil {
		return fmt.Errorf("failed to save referred user: %w", err)
	}

	referrer.AddReferral(newUser.ID, newUser.WalletAddress, model.ReferrerBonus)
	if err := s.users.SaveUser(ctx, referrer); err != nil {
		return fmt.Errorf("failed to save referrer: %w", err)
	}

	if err := s.referrals.UpdateReferralStatus(ctx, ref.ID, model.ReferralActive, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to activate referral: %w", err)
	}

	if s.scoreboard != nil {
		s.scoreboard.SetScore(ctx, newUser.WalletAddress, newUser.TotalPoints)
		s.scoreboard.SetScore(ctx, referrer.WalletAddress, referrer.TotalPoints)
	}

	return nil
}

// ReferralInfo is the user's shareable referral summary.
type ReferralInfo struct {
	ReferralCode          string
	ReferralCount         int
	TotalReferralEarnings int
	ReferralLink          string
}

func (s *ReferralService) GetInfo(ctx context.Context, userID uuid.UUID) (*ReferralInfo, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ReferralInfo{
		ReferralCode:          user.ReferralCode,
		ReferralCount:         user.ReferralCount,
		TotalReferralEarnings: user.TotalReferralEarnings,
		ReferralLink:          s.linkBase + "/ref/" + user.ReferralCode,
	}, nil
}

func (s *ReferralService) GetList(ctx context.Context, userID uuid.UUID, status model.ReferralStatus, page, limit int) ([]*model.ReferralListEntry, Pagination, error) {
	entries, err := s.referrals.GetReferralsByUser(ctx, userID, status)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("failed to get referrals: %w", err)
	}

	start, end, p := paginate(len(entries), page, limit)
	return entries[start:end], p, nil
}

func (s *ReferralService) GetStats(ctx context.Context, userID uuid.UUID) (*model.ReferralStats, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	counts, err := s.referrals.GetReferralStatusCounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get referral stats: %w", err)
	}

	thisMonth, err := s.referrals.CountReferralsSince(ctx, userID, startOfMonth(time.Now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("failed to count this month's referrals: %w", err)
	}

	stats := &model.ReferralStats{
		Pending:       counts[model.ReferralPending],
		Active:        counts[model.ReferralActive],
		Completed:     counts[model.ReferralCompleted],
		TotalEarnings: user.TotalReferralEarnings,
		ThisMonth:     thisMonth,
	}
	stats.Total = stats.Pending + stats.Active + stats.Completed

	return stats, nil
}

// Validate resolves a referral code to its owner for the public
// validation endpoint.
func (s *ReferralService) Validate(ctx context.Context, referralCode string) (*model.User, error) {
	if referralCode == "" {
		return nil, ErrReferralCodeRequired
	}

	referrer, err := s.users.GetUserByReferralCode(ctx, referralCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidReferralCode
		}
		return nil, fmt.Errorf("failed to look up referral code: %w", err)
	}

	return referrer, nil
}

// GetTopReferrers pages through users ranked by referral count.
func (s *ReferralService) GetTopReferrers(ctx context.Context, page, limit int) ([]*model.ReferralLeader, Pagination, error) {
	total, err := s.users.CountReferrers(ctx)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("failed to count referrers: %w", err)
	}

	start, _, p := paginate(total, page, limit)
	leaders, err := s.users.GetReferralLeaderboard(ctx, p.Limit, start)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("failed to get referral leaderboard: %w", err)
	}

	return leaders, p, nil
}

// ReferralRewards is the milestone-progress view. The milestone bonus is
// display only; nothing grants it automatically.
type ReferralRewards struct {
	CurrentTier    model.Tier
	ReferralCount  int
	TotalEarnings  int
	NextMilestone  *model.Milestone
	RewardsHistory []model.PointsEntry
}

func (s *ReferralService) GetRewards(ctx context.Context, userID uuid.UUID) (*ReferralRewards, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var history []model.PointsEntry
	for _, entry := range user.PointsHistory {
		if entry.Source == model.SourceReferral {
			history = append(history, entry)
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp.After(history[j].Timestamp)
	})
	if len(history) > 10 {
		history = history[:10]
	}

	return &ReferralRewards{
		CurrentTier:    user.CurrentTier,
		ReferralCount:  user.ReferralCount,
		TotalEarnings:  user.TotalReferralEarnings,
		NextMilestone:  model.NextMilestone(user.ReferralCount),
		RewardsHistory: history,
	}, nil
}

func (s *ReferralService) GetReferredUsers(ctx context.Context, userID uuid.UUID) ([]model.ReferralGrant, int, int, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, 0, 0, err
	}

	return user.ReferredUsers, user.ReferralCount, user.TotalReferralEarnings, nil
}

func (s *ReferralService) getUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func startOfMonth(now time.Time) time.Time {
	y, m, _ := now.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}
