package service

import (
	"context"
	"testing"
	"time"

	"spinloot_backend/internal/model"
	"spinloot_backend/internal/repository"
	"spinloot_backend/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSpinRewards_ProbabilitiesSumToOne(t *testing.T) {
	sum := 0.0
	for _, reward := range SpinRewards {
		sum += reward.Probability
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestSpinnerService_DrawReward(t *testing.T) {
	tests := []struct {
		name       string
		draw       float64
		wantPoints int
	}{
		{name: "jackpot band", draw: 0.01, wantPoints: 100},
		{name: "jackpot upper edge", draw: 0.05, wantPoints: 100},
		{name: "stellar band", draw: 0.10, wantPoints: 50},
		{name: "galaxy band", draw: 0.25, wantPoints: 25},
		{name: "space band", draw: 0.50, wantPoints: 15},
		{name: "planet band", draw: 0.90, wantPoints: 10},
		{name: "upper edge falls through to last", draw: 1.0, wantPoints: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSpinnerServiceWithRand(&mocks.MockUserRepository{}, nil, func() float64 {
				return tt.draw
			})
			assert.Equal(t, tt.wantPoints, s.drawReward().Points)
		})
	}
}

func TestSpinnerService_Spin(t *testing.T) {
	t.Run("user not found", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		s := NewSpinnerService(mockRepo, nil)

		user := model.NewUser("0xabcdef1234567890")
		mockRepo.On("GetUserByID", mock.Anything, user.ID).
			Return(nil, repository.ErrNotFound)

		result, err := s.Spin(context.Background(), user.ID)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("successful spin grants points", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		s := NewSpinnerServiceWithRand(mockRepo, nil, func() float64 { return 0.2 })

		user := model.NewUser("0xabcdef1234567890")
		mockRepo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)
		mockRepo.On("SaveUser", mock.Anything, user).Return(nil)

		result, err := s.Spin(context.Background(), user.ID)
		assert.NoError(t, err)
		assert.Equal(t, 25, result.Points)
		assert.Equal(t, "Galaxy Win", result.Description)
		assert.Equal(t, 25, result.TotalPoints)
		assert.Equal(t, 1, result.SpinsToday)
		assert.True(t, result.CanSpinAgain)

		assert.Equal(t, 25, user.TotalPoints)
		assert.Len(t, user.PointsHistory, 1)
		assert.Equal(t, model.SourceSpinner, user.PointsHistory[0].Source)
		assert.NotNil(t, user.LastSpinnerSpin)
	})

	t.Run("third spin of the day is the last", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		s := NewSpinnerServiceWithRand(mockRepo, nil, func() float64 { return 0.9 })

		user := model.NewUser("0xabcdef1234567890")
		mockRepo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)
		mockRepo.On("SaveUser", mock.Anything, user).Return(nil)

		var result *model.SpinResult
		var err error
		for i := 0; i < MaxSpinsPerDay; i++ {
			result, err = s.Spin(context.Background(), user.ID)
			assert.NoError(t, err)
		}
		assert.Equal(t, MaxSpinsPerDay, result.SpinsToday)
		assert.False(t, result.CanSpinAgain)

		result, err = s.Spin(context.Background(), user.ID)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrSpinsExhausted)

		assert.Equal(t, 30, user.TotalPoints)
		assert.Len(t, user.PointsHistory, MaxSpinsPerDay)
	})

	t.Run("counter resets on day rollover", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		s := NewSpinnerServiceWithRand(mockRepo, nil, func() float64 { return 0.9 })

		user := model.NewUser("0xabcdef1234567890")
		yesterday := time.Now().UTC().AddDate(0, 0, -1)
		user.LastSpinnerSpin = &yesterday
		user.SpinnerSpinsToday = MaxSpinsPerDay

		mockRepo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)
		mockRepo.On("SaveUser", mock.Anything, user).Return(nil)

		result, err := s.Spin(context.Background(), user.ID)
		assert.NoError(t, err)
		assert.Equal(t, 1, result.SpinsToday)
		assert.True(t, result.CanSpinAgain)

		// One save for the reset, one for the spin itself.
		mockRepo.AssertNumberOfCalls(t, "SaveUser", 2)
	})
}

func TestSpinnerService_GetStatus(t *testing.T) {
	t.Run("fresh user can spin", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		s := NewSpinnerService(mockRepo, nil)

		user := model.NewUser("0xabcdef1234567890")
		mockRepo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)

		status, err := s.GetStatus(context.Background(), user.ID)
		assert.NoError(t, err)
		assert.True(t, status.CanSpin)
		assert.Equal(t, 0, status.SpinsToday)
		assert.Equal(t, MaxSpinsPerDay, status.MaxSpinsPerDay)
		assert.Empty(t, status.Reason)
		assert.Nil(t, status.LastSpin)

		now := time.Now().UTC()
		assert.True(t, status.NextReset.After(now))
		assert.True(t, model.SameDay(status.NextReset, now.AddDate(0, 0, 1)))
		assert.Zero(t, status.NextReset.Hour())
	})

	t.Run("exhausted user gets a reason", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		s := NewSpinnerService(mockRepo, nil)

		user := model.NewUser("0xabcdef1234567890")
		now := time.Now().UTC()
		user.LastSpinnerSpin = &now
		user.SpinnerSpinsToday = MaxSpinsPerDay

		mockRepo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)

		status, err := s.GetStatus(context.Background(), user.ID)
		assert.NoError(t, err)
		assert.False(t, status.CanSpin)
		assert.Equal(t, "You have already spun 3 times today. Come back tomorrow!", status.Reason)
	})

	t.Run("status read persists the rollover reset", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		s := NewSpinnerService(mockRepo, nil)

		user := model.NewUser("0xabcdef1234567890")
		yesterday := time.Now().UTC().AddDate(0, 0, -1)
		user.LastSpinnerSpin = &yesterday
		user.SpinnerSpinsToday = 2

		mockRepo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)
		mockRepo.On("SaveUser", mock.Anything, user).Return(nil)

		status, err := s.GetStatus(context.Background(), user.ID)
		assert.NoError(t, err)
		assert.True(t, status.CanSpin)
		assert.Equal(t, 0, status.SpinsToday)
		mockRepo.AssertNumberOfCalls(t, "SaveUser", 1)
	})
}

func TestSpinnerService_GetHistory(t *testing.T) {
	mockRepo := &mocks.MockUserRepository{}
	s := NewSpinnerService(mockRepo, nil)

	user := model.NewUser("0xabcdef1234567890")
	user.AddPoints(5, model.SourceTask, "Follow @SpinLoot", "follow")
	user.AddPoints(10, model.SourceSpinner, "Daily spinner: Planet Win", "")
	user.AddPoints(25, model.SourceSpinner, "Daily spinner: Galaxy Win", "")

	mockRepo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)

	history, p, err := s.GetHistory(context.Background(), user.ID, 1, 20)
	assert.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Equal(t, 2, p.Total)
	for _, entry := range history {
		assert.Equal(t, model.SourceSpinner, entry.Source)
	}
}
