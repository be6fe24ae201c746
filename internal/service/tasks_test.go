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

func followTask() *model.Task {
	return &model.Task{
		TaskID:         "follow",
		Title:          "Follow @SpinLoot",
		Points:         5,
		MaxCompletions: 1,
		Type:           model.TaskOnce,
		IsActive:       true,
	}
}

func quoteTweetTask() *model.Task {
	return &model.Task{
		TaskID:         "quote_tweet",
		Title:          "Quote-tweet Pinned Post",
		Points:         10,
		MaxCompletions: 5,
		Type:           model.TaskDaily,
		IsActive:       true,
	}
}

func TestTaskService_CompleteTask(t *testing.T) {
	t.Run("user not found", func(t *testing.T) {
		mockUsers := &mocks.MockUserRepository{}
		mockTasks := &mocks.MockTaskRepository{}
		s := NewTaskService(mockUsers, mockTasks, nil)

		user := model.NewUser("0xabcdef1234567890")
		mockUsers.On("GetUserByID", mock.Anything, user.ID).
			Return(nil, repository.ErrNotFound)

		result, err := s.CompleteTask(context.Background(), user.ID, "follow")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("task not found", func(t *testing.T) {
		mockUsers := &mocks.MockUserRepository{}
		mockTasks := &mocks.MockTaskRepository{}
		s := NewTaskService(mockUsers, mockTasks, nil)

		user := model.NewUser("0xabcdef1234567890")
		mockUsers.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)
		mockTasks.On("GetTaskByID", mock.Anything, "missing").
			Return(nil, repository.ErrNotFound)

		result, err := s.CompleteTask(context.Background(), user.ID, "missing")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})

	t.Run("first completion grants points", func(t *testing.T) {
		mockUsers := &mocks.MockUserRepository{}
		mockTasks := &mocks.MockTaskRepository{}
		s := NewTaskService(mockUsers, mockTasks, nil)

		user := model.NewUser("0xabcdef1234567890")
		mockUsers.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)
		mockUsers.On("SaveUser", mock.Anything, user).Return(nil)
		mockTasks.On("GetTaskByID", mock.Anything, "follow").Return(followTask(), nil)

		result, err := s.CompleteTask(context.Background(), user.ID, "follow")
		assert.NoError(t, err)
		assert.Equal(t, 5, result.PointsEarned)
		assert.Equal(t, 5, result.TotalPoints)
		assert.Equal(t, 1, result.Completions)
		assert.True(t, result.Completed)

		assert.Len(t, user.PointsHistory, 1)
		assert.Equal(t, "follow", user.PointsHistory[0].TaskID)
		assert.Equal(t, model.SourceTask, user.PointsHistory[0].Source)
	})

	t.Run("once task cannot be repeated", func(t *testing.T) {
		mockUsers := &mocks.MockUserRepository{}
		mockTasks := &mocks.MockTaskRepository{}
		s := NewTaskService(mockUsers, mockTasks, nil)

		user := model.NewUser("0xabcdef1234567890")
		mockUsers.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)
		mockUsers.On("SaveUser", mock.Anything, user).Return(nil)
		mockTasks.On("GetTaskByID", mock.Anything, "follow").Return(followTask(), nil)

		_, err := s.CompleteTask(context.Background(), user.ID, "follow")
		assert.NoError(t, err)

		result, err := s.CompleteTask(context.Background(), user.ID, "follow")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrTaskOnlyOnce)

		// The rejected attempt must not touch the ledger.
		assert.Equal(t, 5, user.TotalPoints)
		assert.Len(t, user.PointsHistory, 1)
	})

	t.Run("daily task stops at the daily limit", func(t *testing.T) {
		mockUsers := &mocks.MockUserRepository{}
		mockTasks := &mocks.MockTaskRepository{}
		s := NewTaskService(mockUsers, mockTasks, nil)

		user := model.NewUser("0xabcdef1234567890")
		mockUsers.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)
		mockUsers.On("SaveUser", mock.Anything, user).Return(nil)
		mockTasks.On("GetTaskByID", mock.Anything, "quote_tweet").Return(quoteTweetTask(), nil)

		for i := 0; i < 5; i++ {
			_, err := s.CompleteTask(context.Background(), user.ID, "quote_tweet")
			assert.NoError(t, err)
		}

		result, err := s.CompleteTask(context.Background(), user.ID, "quote_tweet")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrMaxCompletionsReached)
		assert.Equal(t, 50, user.TotalPoints)
	})

	t.Run("daily limit resets on a new day", func(t *testing.T) {
		mockUsers := &mocks.MockUserRepository{}
		mockTasks := &mocks.MockTaskRepository{}
		s := NewTaskService(mockUsers, mockTasks, nil)

		task := quoteTweetTask()
		task.MaxCompletions = 10

		user := model.NewUser("0xabcdef1234567890")
		user.CompletedTasks["quote_tweet"] = &model.TaskCompletion{
			TaskID:           "quote_tweet",
			Completions:      5,
			CompletionsToday: 5,
			LastCompleted:    time.Now().UTC().AddDate(0, 0, -1),
		}

		mockUsers.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)
		mockUsers.On("SaveUser", mock.Anything, user).Return(nil)
		mockTasks.On("GetTaskByID", mock.Anything, "quote_tweet").Return(task, nil)

		result, err := s.CompleteTask(context.Background(), user.ID, "quote_tweet")
		assert.NoError(t, err)
		assert.Equal(t, 6, result.Completions)
		assert.Equal(t, 1, user.CompletedTasks["quote_tweet"].CompletionsToday)
	})
}

func TestCheckTaskEligibility(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name    string
		task    *model.Task
		record  *model.TaskCompletion
		wantErr error
	}{
		{
			name:    "no record yet",
			task:    followTask(),
			record:  nil,
			wantErr: nil,
		},
		{
			name: "once task already completed",
			task: followTask(),
			record: &model.TaskCompletion{
				TaskID: "follow", Completions: 1, Completed: true, LastCompleted: now,
			},
			wantErr: ErrTaskOnlyOnce,
		},
		{
			name: "lifetime ceiling reached",
			task: quoteTweetTask(),
			record: &model.TaskCompletion{
				TaskID: "quote_tweet", Completions: 5, LastCompleted: now.AddDate(0, 0, -3),
			},
			wantErr: ErrMaxCompletionsReached,
		},
		{
			name: "daily limit reached today",
			task: func() *model.Task {
				task := quoteTweetTask()
				task.MaxCompletions = 2
				return task
			}(),
			record: &model.TaskCompletion{
				TaskID: "quote_tweet", Completions: 1, CompletionsToday: 2, LastCompleted: now,
			},
			wantErr: ErrDailyLimitReached,
		},
		{
			name: "yesterday's completions do not count",
			task: quoteTweetTask(),
			record: &model.TaskCompletion{
				TaskID: "quote_tweet", Completions: 3, CompletionsToday: 5,
				LastCompleted: now.AddDate(0, 0, -1),
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := model.NewUser("0xabcdef1234567890")
			if tt.record != nil {
				user.CompletedTasks[tt.task.TaskID] = tt.record
			}
			err := checkTaskEligibility(user, tt.task, now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestTaskService_GetTaskProgress(t *testing.T) {
	mockUsers := &mocks.MockUserRepository{}
	mockTasks := &mocks.MockTaskRepository{}
	s := NewTaskService(mockUsers, mockTasks, nil)

	user := model.NewUser("0xabcdef1234567890")
	user.RecordTaskCompletion("follow", 1)

	mockUsers.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)
	mockTasks.On("GetActiveTasks", mock.Anything).
		Return([]*model.Task{followTask(), quoteTweetTask()}, nil)

	progress, got, err := s.GetTaskProgress(context.Background(), user.ID)
	assert.NoError(t, err)
	assert.Equal(t, user, got)
	assert.Len(t, progress, 2)

	assert.Equal(t, "follow", progress[0].Task.TaskID)
	assert.True(t, progress[0].Completed)
	assert.False(t, progress[0].CanComplete)
	assert.NotNil(t, progress[0].LastCompleted)

	assert.Equal(t, "quote_tweet", progress[1].Task.TaskID)
	assert.False(t, progress[1].Completed)
	assert.True(t, progress[1].CanComplete)
	assert.Nil(t, progress[1].LastCompleted)
}

func TestTaskService_GetTaskStats(t *testing.T) {
	mockUsers := &mocks.MockUserRepository{}
	mockTasks := &mocks.MockTaskRepository{}
	s := NewTaskService(mockUsers, mockTasks, nil)

	user := model.NewUser("0xabcdef1234567890")
	user.RecordTaskCompletion("follow", 1)
	user.AddPoints(5, model.SourceTask, "Follow @SpinLoot", "follow")
	user.AddPoints(100, model.SourceReferral, "Referral bonus", "")
	user.AddPoints(25, model.SourceSpinner, "Daily spinner: Galaxy Win", "")

	mockUsers.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)
	mockTasks.On("GetActiveTasks", mock.Anything).
		Return([]*model.Task{followTask(), quoteTweetTask()}, nil)

	stats, err := s.GetTaskStats(context.Background(), user.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.TotalTasks)
	assert.Equal(t, 1, stats.CompletedTasks)
	assert.Equal(t, 130, stats.TotalPoints)
	assert.Equal(t, model.TierCosmicCreator, stats.CurrentTier)
	assert.Equal(t, 5, stats.PointsFromTasks)
	assert.Equal(t, 100, stats.PointsFromReferrals)
	assert.Equal(t, 25, stats.PointsFromSpinner)
}
