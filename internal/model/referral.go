package model

import (
	"time"

	"github.com/google/uuid"
)

type ReferralStatus string

const (
	ReferralPending   ReferralStatus = "pending"
	ReferralActive    ReferralStatus = "active"
	ReferralCompleted ReferralStatus = "completed"
)

type ReferralSource string

const (
	ReferralSourceLink   ReferralSource = "link"
	ReferralSourceManual ReferralSource = "manual"
	ReferralSourceCode   ReferralSource = "code"
)

const (
	// ReferrerBonus is granted to the referrer when a referral activates.
	ReferrerBonus = 100
	// ReferredBonus is the welcome bonus granted to the referred user.
	ReferredBonus = 50
)

// Referral is the relationship record between a referrer and a referred
// user. At most one record exists per ordered (referrer, referred) pair.
type Referral struct {
	ID               uuid.UUID
	ReferrerID       uuid.UUID
	ReferredID       uuid.UUID
	ReferralCode     string
	Status           ReferralStatus
	ReferrerEarnings int
	ReferredBonus    int
	Source           ReferralSource
	Metadata         ReferralMetadata
	ActivationDate   *time.Time
	CompletionDate   *time.Time
	CreatedAt        time.Time
}

// ReferralMetadata captures the request context of a referral for audit.
type ReferralMetadata struct {
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
}

// ReferralMilestones are the referral counts at which progress displays
// advertise a bonus. The bonus shown is count*10 points; it is display
// only, nothing grants it automatically.
var ReferralMilestones = []int{5, 10, 25, 50, 100}

// Milestone describes the next referral milestone for a user.
type Milestone struct {
	Count     int
	Points    int
	Remaining int
}

// NextMilestone returns the smallest milestone strictly greater than
// currentCount, or nil when all milestones are passed.
func NextMilestone(currentCount int) *Milestone {
	for _, m := range ReferralMilestones {
		if m > currentCount {
			return &Milestone{
				Count:     m,
				Points:    m * 10,
				Remaining: m - currentCount,
			}
		}
	}
	return nil
}

// ReferralStats summarises a user's referrals per status.
type ReferralStats struct {
	Total         int
	Pending       int
	Active        int
	Completed     int
	TotalEarnings int
	ThisMonth     int
}

// ReferralListEntry is one row of a user's referral list, joined with
// the referred user's public fields.
type ReferralListEntry struct {
	Referral
	ReferredWallet      string
	ReferredDisplayName string
	ReferredAvatar      string
	ReferredJoinedAt    time.Time
}

// ReferralLeader is one row of the referral leaderboard.
type ReferralLeader struct {
	UserID                uuid.UUID
	DisplayName           string
	WalletAddress         string
	Avatar                string
	ReferralCount         int
	TotalReferralEarnings int
}
