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

type UserService struct {
	repo       UserRepository
	referrals  ReferralServiceI
	tokens     TokenIssuer
	scoreboard Scoreboard
}

func NewUserService(repo UserRepository, referrals ReferralServiceI, tokens TokenIssuer, scoreboard Scoreboard) *UserService {
	return &UserService{
		repo:       repo,
		referrals:  referrals,
		tokens:     tokens,
		scoreboard: scoreboard,
	}
}

type ConnectWalletInput struct {
	WalletAddress string
	ReferralCode  string
	DisplayName   string
	Email         string
	Metadata      model.ReferralMetadata
}

// ConnectWallet finds or registers the user behind a wallet address and
// issues an auth token. The third return value reports whether a new
// user was created. A bad referral code never blocks registration.
func (s *UserService) ConnectWallet(ctx context.Context, req ConnectWalletInput) (*model.User, string, bool, error) {
	user, err := s.repo.GetUserByWalletAddress(ctx, req.WalletAddress)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, "", false, fmt.Errorf("failed to look up wallet: %w", err)
	}

	if user != nil {
		now := time.Now().UTC()
		user.LastLogin = &now
		if err := s.repo.SaveUser(ctx, user); err != nil {
			return nil, "", false, fmt.Errorf("failed to update last login: %w", err)
		}

		token, err := s.tokens.Issue(user.ID, user.WalletAddress, user.Role)
		if err != nil {
			return nil, "", false, fmt.Errorf("failed to issue token: %w", err)
		}
		return user, token, false, nil
	}

	user = model.NewUser(req.WalletAddress)
	user.DisplayName = req.DisplayName
	user.Email = req.Email

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, "", false, fmt.Errorf("failed to create user: %w", err)
	}

	if req.ReferralCode != "" {
		if err := s.referrals.Apply(ctx, user, req.ReferralCode, req.Metadata); err != nil {
			logger.Logger().Warn("failed to apply referral on registration",
				zap.String("referral_code", req.ReferralCode),
				zap.Error(err))
		}
	}

	token, err := s.tokens.Issue(user.ID, user.WalletAddress, user.Role)
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to issue token: %w", err)
	}

	return user, token, true, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

type ProfileUpdate struct {
	DisplayName *string
	Email       *string
	Avatar      *string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*model.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.DisplayName != nil {
		user.DisplayName = *update.DisplayName
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.Avatar != nil {
		user.Avatar = *update.Avatar
	}

	if err := s.repo.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	return user, nil
}

// GetPointsHistory returns one page of the history, newest first.
func (s *UserService) GetPointsHistory(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.PointsEntry, Pagination, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, Pagination{}, err
	}

	history := make([]model.PointsEntry, len(user.PointsHistory))
	copy(history, user.PointsHistory)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp.After(history[j].Timestamp)
	})

	start, end, p := paginate(len(history), page, limit)
	return history[start:end], p, nil
}

func (s *UserService) GetCompletedTasks(ctx context.Context, userID uuid.UUID) ([]*model.TaskCompletion, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	completions := make([]*model.TaskCompletion, 0, len(user.CompletedTasks))
	for _, tc := range user.CompletedTasks {
		completions = append(completions, tc)
	}
	sort.Slice(completions, func(i, j int) bool {
		return completions[i].TaskID < completions[j].TaskID
	})

	return completions, nil
}

// LeaderboardRow is one public leaderboard entry. Wallet addresses are
// shortened before they leave the service.
type LeaderboardRow struct {
	WalletAddress string
	DisplayName   string
	TotalPoints   int
	CurrentTier   model.Tier
}

// GetLeaderboard serves the top totals from the redis mirror when one
// is configured and falls back to the users table otherwise.
func (s *UserService) GetLeaderboard(ctx context.Context) ([]LeaderboardRow, error) {
	if s.scoreboard != nil {
		entries, err := s.scoreboard.Top(ctx, 100)
		if err != nil {
			logger.Logger().Warn("leaderboard mirror read failed, falling back to database",
				zap.Error(err))
		} else if len(entries) > 0 {
			rows := make([]LeaderboardRow, len(entries))
			for i, entry := range entries {
				rows[i] = LeaderboardRow{
					WalletAddress: model.ShortWallet(entry.WalletAddress),
					TotalPoints:   entry.Points,
					CurrentTier:   model.TierFor(entry.Points),
				}
			}
			return rows, nil
		}
	}

	users, err := s.repo.GetTopUsers(ctx, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}

	rows := make([]LeaderboardRow, len(users))
	for i, user := range users {
		rows[i] = LeaderboardRow{
			WalletAddress: user.WalletDisplay(),
			DisplayName:   user.DisplayName,
			TotalPoints:   user.TotalPoints,
			CurrentTier:   user.CurrentTier,
		}
	}
	return rows, nil
}
