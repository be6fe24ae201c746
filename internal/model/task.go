package model

import "time"

type TaskType string

const (
	TaskOnce    TaskType = "once"
	TaskDaily   TaskType = "daily"
	TaskLimited TaskType = "limited"
)

type TaskCategory string

const (
	CategorySocial     TaskCategory = "social"
	CategoryEngagement TaskCategory = "engagement"
	CategoryReferral   TaskCategory = "referral"
	CategorySpecial    TaskCategory = "special"
)

// Task is a catalog entry. The catalog is the single source of truth
// for MaxCompletions; eligibility checks never consult anything else.
type Task struct {
	TaskID         string
	Title          string
	Description    string
	Points         int
	MaxCompletions int
	Type           TaskType
	Action         string
	Link           string
	IsActive       bool
	Category       TaskCategory
	Requirements   []string
	StartDate      time.Time
	EndDate        *time.Time
	Order          int
}

// TaskProgress joins a catalog entry with one user's completion record
// for progress displays.
type TaskProgress struct {
	Task          Task
	Completions   int
	Completed     bool
	LastCompleted *time.Time
	CanComplete   bool
}

// TaskCompletionResult is returned after a successful completion.
type TaskCompletionResult struct {
	TaskID       string
	PointsEarned int
	TotalPoints  int
	CurrentTier  Tier
	Completions  int
	Completed    bool
}

// TaskStats aggregates a user's task activity per points source.
type TaskStats struct {
	TotalTasks          int
	CompletedTasks      int
	TotalPoints         int
	CurrentTier         Tier
	PointsFromTasks     int
	PointsFromReferrals int
	PointsFromSpinner   int
}
