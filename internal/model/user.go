package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Tier string

const (
	TierNewcomer      Tier = "Newcomer"
	TierSpaceExplorer Tier = "Space Explorer"
	TierCosmicCreator Tier = "Cosmic Creator"
)

// TierFor maps a points total to its display tier. Thresholds are
// inclusive at the lower bound of each band.
func TierFor(totalPoints int) Tier {
	switch {
	case totalPoints >= 60:
		return TierCosmicCreator
	case totalPoints >= 30:
		return TierSpaceExplorer
	default:
		return TierNewcomer
	}
}

type PointsSource string

const (
	SourceTask     PointsSource = "task"
	SourceReferral PointsSource = "referral"
	SourceSpinner  PointsSource = "daily_spinner"
	SourceAdmin    PointsSource = "admin"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// PointsEntry is one immutable line of a user's points history.
type PointsEntry struct {
	Amount      int          `json:"amount"`
	Source      PointsSource `json:"source"`
	Description string       `json:"description"`
	TaskID      string       `json:"task_id,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}

// TaskCompletion tracks a user's progress on a single catalog task.
// CompletionsToday only counts completions whose lastCompleted falls on
// the current calendar day; it is reset lazily on day rollover.
type TaskCompletion struct {
	TaskID           string    `json:"task_id"`
	Completions      int       `json:"completions"`
	CompletionsToday int       `json:"completions_today"`
	LastCompleted    time.Time `json:"last_completed"`
	Completed        bool      `json:"completed"`
}

// ReferralGrant records one referred user and the points the referrer
// earned for them.
type ReferralGrant struct {
	UserID        uuid.UUID `json:"user_id"`
	WalletAddress string    `json:"wallet_address"`
	JoinedAt      time.Time `json:"joined_at"`
	EarnedPoints  int       `json:"earned_points"`
}

// User is the aggregate root of the rewards ledger. It exclusively owns
// its points history, task completion records and referral grants;
// TotalPoints and CurrentTier are derived and only ever written through
// AddPoints.
type User struct {
	ID            uuid.UUID
	WalletAddress string
	DisplayName   string
	Email         string
	Avatar        string
	Role          Role
	IsActive      bool
	LastLogin     *time.Time

	ReferralCode          string
	ReferredBy            *uuid.UUID
	ReferralCount         int
	TotalReferralEarnings int
	ReferredUsers         []ReferralGrant

	TotalPoints   int
	CurrentTier   Tier
	PointsHistory []PointsEntry

	CompletedTasks map[string]*TaskCompletion

	LastSpinnerSpin   *time.Time
	SpinnerSpinsToday int

	RegistrationDate time.Time

	// Version guards concurrent read-modify-write cycles on the
	// aggregate. The repository bumps it on every successful save.
	Version int64
}

// NewUser creates an aggregate for a freshly connected wallet. The
// referral code is derived deterministically from the wallet address.
func NewUser(walletAddress string) *User {
	now := time.Now().UTC()
	return &User{
		ID:               uuid.New(),
		WalletAddress:    strings.ToLower(walletAddress),
		Role:             RoleUser,
		IsActive:         true,
		ReferralCode:     ReferralCodeFor(walletAddress),
		CurrentTier:      TierNewcomer,
		CompletedTasks:   make(map[string]*TaskCompletion),
		RegistrationDate: now,
	}
}

// ReferralCodeFor derives a user's referral code from their wallet
// address: the first eight characters, uppercased.
func ReferralCodeFor(walletAddress string) string {
	addr := strings.ToLower(walletAddress)
	if len(addr) > 8 {
		addr = addr[:8]
	}
	return strings.ToUpper(addr)
}

// AddPoints is the single mutation entrypoint of the ledger: it appends
// a history entry, moves the total and recomputes the tier in one step,
// so TotalPoints always equals the sum of PointsHistory amounts.
func (u *User) AddPoints(amount int, source PointsSource, description, taskID string) PointsEntry {
	entry := PointsEntry{
		Amount:      amount,
		Source:      source,
		Description: description,
		TaskID:      taskID,
		Timestamp:   time.Now().UTC(),
	}
	u.PointsHistory = append(u.PointsHistory, entry)
	u.TotalPoints += amount
	u.CurrentTier = TierFor(u.TotalPoints)
	return entry
}

// RecordTaskCompletion updates the completion record for taskID and
// marks it completed once the lifetime counter reaches maxCompletions.
// The per-day counter restarts whenever the previous completion was on
// an earlier calendar day.
func (u *User) RecordTaskCompletion(taskID string, maxCompletions int) *TaskCompletion {
	now := time.Now().UTC()

	if u.CompletedTasks == nil {
		u.CompletedTasks = make(map[string]*TaskCompletion)
	}

	tc, ok := u.CompletedTasks[taskID]
	if !ok {
		tc = &TaskCompletion{TaskID: taskID}
		u.CompletedTasks[taskID] = tc
	}

	if !SameDay(tc.LastCompleted, now) {
		tc.CompletionsToday = 0
	}

	tc.Completions++
	tc.CompletionsToday++
	tc.LastCompleted = now
	if tc.Completions >= maxCompletions {
		tc.Completed = true
	}

	return tc
}

// AddReferral credits the referrer side of an activated referral.
func (u *User) AddReferral(referredID uuid.UUID, referredWallet string, earnedPoints int) {
	u.ReferralCount++
	u.TotalReferralEarnings += earnedPoints
	u.ReferredUsers = append(u.ReferredUsers, ReferralGrant{
		UserID:        referredID,
		WalletAddress: referredWallet,
		JoinedAt:      time.Now().UTC(),
		EarnedPoints:  earnedPoints,
	})
	u.AddPoints(earnedPoints, SourceReferral, "Referral bonus for user "+referredWallet, "")
}

// WalletDisplay is the shortened wallet address used in user-facing
// payloads, e.g. 0x1234...abcd.
func (u *User) WalletDisplay() string {
	return ShortWallet(u.WalletAddress)
}

func ShortWallet(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// SameDay reports whether two instants fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
