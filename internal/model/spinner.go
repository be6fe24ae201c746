package model

import "time"

// SpinReward is one slot of the spinner wheel.
type SpinReward struct {
	Points      int
	Description string
	Probability float64
}

// SpinResult is the outcome of one spin.
type SpinResult struct {
	Points       int
	Description  string
	TotalPoints  int
	CurrentTier  Tier
	SpinsToday   int
	CanSpinAgain bool
}

// SpinnerStatus reports a user's spin allowance for the current day.
type SpinnerStatus struct {
	SpinsToday     int
	MaxSpinsPerDay int
	CanSpin        bool
	Reason         string
	LastSpin       *time.Time
	NextReset      time.Time
}
