package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spinloot_backend/internal/model"
	"spinloot_backend/internal/repository"

	"github.com/google/uuid"
)

type TaskService struct {
	users      UserRepository
	tasks      TaskRepository
	scoreboard Scoreboard
}

func NewTaskService(users UserRepository, tasks TaskRepository, scoreboard Scoreboard) *TaskService {
	return &TaskService{
		users:      users,
		tasks:      tasks,
		scoreboard: scoreboard,
	}
}

func (s *TaskService) GetActiveTasks(ctx context.Context) ([]*model.Task, error) {
	tasks, err := s.tasks.GetActiveTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, taskID string) (*model.Task, error) {
	task, err := s.tasks.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// checkTaskEligibility applies the completion rules for one task against
// one user's record. MaxCompletions always comes from the catalog entry.
func checkTaskEligibility(user *model.User, task *model.Task, now time.Time) error {
	tc := user.CompletedTasks[task.TaskID]
	if tc == nil {
		return nil
	}

	if task.Type == model.TaskOnce && tc.Completed {
		return ErrTaskOnlyOnce
	}

	if tc.Completions >= task.MaxCompletions {
		return ErrMaxCompletionsReached
	}

	if task.Type == model.TaskDaily && model.SameDay(tc.LastCompleted, now) {
		if tc.CompletionsToday >= task.MaxCompletions {
			return ErrDailyLimitReached
		}
	}

	return nil
}

// CompleteTask grants the task's points if the user is still eligible.
// Eligibility is evaluated against the freshly loaded aggregate right
// before mutating; the version guard on save catches concurrent writers.
func (s *TaskService) CompleteTask(ctx context.Context, userID uuid.UUID, taskID string) (*model.TaskCompletionResult, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	task, err := s.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := checkTaskEligibility(user, task, time.Now().UTC()); err != nil {
		return nil, err
	}

	tc := user.RecordTaskCompletion(task.TaskID, task.MaxCompletions)
	user.AddPoints(task.Points, model.SourceTask, task.Title, task.TaskID)

	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save task completion: %w", err)
	}

	if s.scoreboard != nil {
		s.scoreboard.SetScore(ctx, user.WalletAddress, user.TotalPoints)
	}

	return &model.TaskCompletionResult{
		TaskID:       task.TaskID,
		PointsEarned: task.Points,
		TotalPoints:  user.TotalPoints,
		CurrentTier:  user.CurrentTier,
		Completions:  tc.Completions,
		Completed:    tc.Completed,
	}, nil
}

// GetTaskProgress joins the active catalog with the user's records and
// reports per-task eligibility.
func (s *TaskService) GetTaskProgress(ctx context.Context, userID uuid.UUID) ([]*model.TaskProgress, *model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	tasks, err := s.GetActiveTasks(ctx)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	progress := make([]*model.TaskProgress, len(tasks))
	for i, task := range tasks {
		p := &model.TaskProgress{
			Task:        *task,
			CanComplete: checkTaskEligibility(user, task, now) == nil,
		}
		if tc := user.CompletedTasks[task.TaskID]; tc != nil {
			p.Completions = tc.Completions
			p.Completed = tc.Completed
			last := tc.LastCompleted
			p.LastCompleted = &last
		}
		progress[i] = p
	}

	return progress, user, nil
}

func (s *TaskService) GetTaskStats(ctx context.Context, userID uuid.UUID) (*model.TaskStats, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	tasks, err := s.GetActiveTasks(ctx)
	if err != nil {
		return nil, err
	}

	stats := &model.TaskStats{
		TotalTasks:  len(tasks),
		TotalPoints: user.TotalPoints,
		CurrentTier: user.CurrentTier,
	}

	for _, tc := range user.CompletedTasks {
		if tc.Completed {
			stats.CompletedTasks++
		}
	}

	for _, entry := range user.PointsHistory {
		switch entry.Source {
		case model.SourceTask:
			stats.PointsFromTasks += entry.Amount
		case model.SourceReferral:
			stats.PointsFromReferrals += entry.Amount
		case model.SourceSpinner:
			stats.PointsFromSpinner += entry.Amount
		}
	}

	return stats, nil
}
