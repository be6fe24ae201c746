package service

import (
	"context"
	"testing"
	"time"

	"spinloot_backend/internal/leaderboard"
	"spinloot_backend/internal/model"
	"spinloot_backend/internal/repository"
	"spinloot_backend/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestUserService_ConnectWallet(t *testing.T) {
	t.Run("new wallet registers a user", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		mockTokens := &mocks.MockTokenIssuer{}
		referrals := NewReferralService(mockRepo, &mocks.MockReferralRepository{}, nil, "")
		s := NewUserService(mockRepo, referrals, mockTokens, nil)

		mockRepo.On("GetUserByWalletAddress", mock.Anything, "0xAbCdEf1234567890").
			Return(nil, repository.ErrNotFound)
		mockRepo.On("CreateUser", mock.Anything, mock.Anything).Return(nil)
		mockTokens.On("Issue", mock.Anything, "0xabcdef1234567890", model.RoleUser).
			Return("signed-token", nil)

		user, token, created, err := s.ConnectWallet(context.Background(), ConnectWalletInput{
			WalletAddress: "0xAbCdEf1234567890",
			DisplayName:   "astro",
		})
		assert.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "signed-token", token)
		assert.Equal(t, "0xabcdef1234567890", user.WalletAddress)
		assert.Equal(t, "astro", user.DisplayName)
		assert.Equal(t, "0XABCDEF", user.ReferralCode)
		assert.Zero(t, user.TotalPoints)
	})

	t.Run("known wallet logs in", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		mockTokens := &mocks.MockTokenIssuer{}
		s := NewUserService(mockRepo, nil, mockTokens, nil)

		existing := model.NewUser("0xabcdef1234567890")
		mockRepo.On("GetUserByWalletAddress", mock.Anything, "0xabcdef1234567890").
			Return(existing, nil)
		mockRepo.On("SaveUser", mock.Anything, existing).Return(nil)
		mockTokens.On("Issue", existing.ID, existing.WalletAddress, model.RoleUser).
			Return("signed-token", nil)

		user, token, created, err := s.ConnectWallet(context.Background(), ConnectWalletInput{
			WalletAddress: "0xabcdef1234567890",
		})
		assert.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "signed-token", token)
		assert.Equal(t, existing, user)
		assert.NotNil(t, user.LastLogin)
		mockRepo.AssertNotCalled(t, "CreateUser")
	})

	t.Run("registration with referral code credits both users", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		mockRefs := &mocks.MockReferralRepository{}
		mockTokens := &mocks.MockTokenIssuer{}
		referrals := NewReferralService(mockRepo, mockRefs, nil, "")
		s := NewUserService(mockRepo, referrals, mockTokens, nil)

		referrer := model.NewUser("0xreferrer00000000")

		mockRepo.On("GetUserByWalletAddress", mock.Anything, "0xnewuser000000000").
			Return(nil, repository.ErrNotFound)
		mockRepo.On("GetUserByReferralCode", mock.Anything, referrer.ReferralCode).
			Return(referrer, nil)
		mockRepo.On("CreateUser", mock.Anything, mock.Anything).Return(nil)
		mockRepo.On("SaveUser", mock.Anything, mock.Anything).Return(nil)
		mockRefs.On("CreateReferral", mock.Anything, mock.Anything).Return(nil)
		mockRefs.On("UpdateReferralStatus", mock.Anything, mock.Anything, model.ReferralActive, mock.Anything).
			Return(nil)
		mockTokens.On("Issue", mock.Anything, mock.Anything, model.RoleUser).
			Return("signed-token", nil)

		user, _, created, err := s.ConnectWallet(context.Background(), ConnectWalletInput{
			WalletAddress: "0xnewuser000000000",
			ReferralCode:  referrer.ReferralCode,
		})
		assert.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, model.ReferredBonus, user.TotalPoints)
		assert.Equal(t, &referrer.ID, user.ReferredBy)
		assert.Equal(t, 1, referrer.ReferralCount)
		assert.Equal(t, model.ReferrerBonus, referrer.TotalPoints)
	})

	t.Run("bad referral code never blocks registration", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		mockTokens := &mocks.MockTokenIssuer{}
		referrals := NewReferralService(mockRepo, &mocks.MockReferralRepository{}, nil, "")
		s := NewUserService(mockRepo, referrals, mockTokens, nil)

		mockRepo.On("GetUserByWalletAddress", mock.Anything, "0xnewuser000000000").
			Return(nil, repository.ErrNotFound)
		mockRepo.On("GetUserByReferralCode", mock.Anything, "NOSUCH00").
			Return(nil, repository.ErrNotFound)
		mockRepo.On("CreateUser", mock.Anything, mock.Anything).Return(nil)
		mockTokens.On("Issue", mock.Anything, mock.Anything, model.RoleUser).
			Return("signed-token", nil)

		user, _, created, err := s.ConnectWallet(context.Background(), ConnectWalletInput{
			WalletAddress: "0xnewuser000000000",
			ReferralCode:  "NOSUCH00",
		})
		assert.NoError(t, err)
		assert.True(t, created)
		assert.Zero(t, user.TotalPoints)
		assert.Nil(t, user.ReferredBy)
	})
}

func TestUserService_UpdateProfile(t *testing.T) {
	mockRepo := &mocks.MockUserRepository{}
	s := NewUserService(mockRepo, nil, nil, nil)

	user := model.NewUser("0xabcdef1234567890")
	user.DisplayName = "old name"
	user.Email = "old@example.com"

	mockRepo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)
	mockRepo.On("SaveUser", mock.Anything, user).Return(nil)

	name := "new name"
	updated, err := s.UpdateProfile(context.Background(), user.ID, ProfileUpdate{
		DisplayName: &name,
	})
	assert.NoError(t, err)
	assert.Equal(t, "new name", updated.DisplayName)
	assert.Equal(t, "old@example.com", updated.Email)
}

func TestUserService_GetPointsHistory(t *testing.T) {
	mockRepo := &mocks.MockUserRepository{}
	s := NewUserService(mockRepo, nil, nil, nil)

	user := model.NewUser("0xabcdef1234567890")
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		user.PointsHistory = append(user.PointsHistory, model.PointsEntry{
			Amount:    10,
			Source:    model.SourceTask,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}
	user.TotalPoints = 50

	mockRepo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)

	history, p, err := s.GetPointsHistory(context.Background(), user.ID, 1, 2)
	assert.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Equal(t, 5, p.Total)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNextPage)
	assert.False(t, p.HasPrevPage)

	// Newest first.
	assert.True(t, history[0].Timestamp.After(history[1].Timestamp))

	last, p, err := s.GetPointsHistory(context.Background(), user.ID, 3, 2)
	assert.NoError(t, err)
	assert.Len(t, last, 1)
	assert.False(t, p.HasNextPage)
	assert.True(t, p.HasPrevPage)
}

func TestUserService_GetLeaderboard(t *testing.T) {
	t.Run("served from the redis mirror when available", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		mockBoard := &mocks.MockScoreboard{}
		s := NewUserService(mockRepo, nil, nil, mockBoard)

		mockBoard.On("Top", mock.Anything, 100).Return([]leaderboard.Entry{
			{WalletAddress: "0x1234567890abcdef1234567890abcdef12345678", Points: 75},
			{WalletAddress: "0xaaaa567890abcdef1234567890abcdef1234bbbb", Points: 40},
		}, nil)

		rows, err := s.GetLeaderboard(context.Background())
		assert.NoError(t, err)
		assert.Len(t, rows, 2)
		assert.Equal(t, "0x1234...5678", rows[0].WalletAddress)
		assert.Equal(t, 75, rows[0].TotalPoints)
		assert.Equal(t, model.TierCosmicCreator, rows[0].CurrentTier)
		assert.Equal(t, model.TierSpaceExplorer, rows[1].CurrentTier)
		mockRepo.AssertNotCalled(t, "GetTopUsers")
	})

	t.Run("falls back to the database on mirror failure", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		mockBoard := &mocks.MockScoreboard{}
		s := NewUserService(mockRepo, nil, nil, mockBoard)

		top := model.NewUser("0x1234567890abcdef1234567890abcdef12345678")
		top.DisplayName = "astro"
		top.TotalPoints = 75
		top.CurrentTier = model.TierCosmicCreator

		mockBoard.On("Top", mock.Anything, 100).
			Return(nil, assert.AnError)
		mockRepo.On("GetTopUsers", mock.Anything, 100).
			Return([]*model.User{top}, nil)

		rows, err := s.GetLeaderboard(context.Background())
		assert.NoError(t, err)
		assert.Len(t, rows, 1)
		assert.Equal(t, "0x1234...5678", rows[0].WalletAddress)
		assert.Equal(t, "astro", rows[0].DisplayName)
		assert.Equal(t, 75, rows[0].TotalPoints)
	})
}

func TestUserService_GetCompletedTasks(t *testing.T) {
	mockRepo := &mocks.MockUserRepository{}
	s := NewUserService(mockRepo, nil, nil, nil)

	user := model.NewUser("0xabcdef1234567890")
	user.RecordTaskCompletion("quote_tweet", 5)
	user.RecordTaskCompletion("follow", 1)

	mockRepo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)

	completions, err := s.GetCompletedTasks(context.Background(), user.ID)
	assert.NoError(t, err)
	assert.Len(t, completions, 2)
	assert.Equal(t, "follow", completions[0].TaskID)
	assert.Equal(t, "quote_tweet", completions[1].TaskID)
}
