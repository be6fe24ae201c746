package api

import (
	"errors"
	"net/http"
	"time"

	"spinloot_backend/internal/model"
	"spinloot_backend/internal/service"
	"spinloot_backend/pkg/auth"
	"spinloot_backend/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type referralRoutes struct {
	rs service.ReferralServiceI
	a  *auth.JWTAuth
}

func NewReferralRoutes(handler *gin.RouterGroup, rs service.ReferralServiceI, a *auth.JWTAuth) {
	r := &referralRoutes{rs: rs, a: a}
	h := handler.Group("/referrals")
	{
		h.POST("/validate", r.ValidateCode)
		h.GET("/leaderboard", r.GetLeaderboard)

		private := h.Group("/")
		private.Use(a.Middleware())
		{
			private.GET("/info", r.GetInfo)
			private.GET("/list", r.GetList)
			private.GET("/stats", r.GetStats)
			private.GET("/rewards", r.GetRewards)
			private.GET("/referred-users", r.GetReferredUsers)
		}
	}
}

func (r *referralRoutes) GetInfo(c *gin.Context) {
	log := logger.Logger()

	caller, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("auth user not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	info, err := r.rs.GetInfo(c.Request.Context(), caller.ID)
	if err != nil {
		log.Error("failed to get referral info", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referral info"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referral_code":           info.ReferralCode,
		"referral_count":          info.ReferralCount,
		"total_referral_earnings": info.TotalReferralEarnings,
		"referral_link":           info.ReferralLink,
	})
}

type ReferralListEntryResponse struct {
	Status              string     `json:"status"`
	ReferralCode        string     `json:"referral_code"`
	ReferrerEarnings    int        `json:"referrer_earnings"`
	ReferredWallet      string     `json:"referred_wallet"`
	ReferredDisplayName string     `json:"referred_display_name,omitempty"`
	ActivationDate      *time.Time `json:"activation_date,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

func (r *referralRoutes) GetList(c *gin.Context) {
	log := logger.Logger()

	caller, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("auth user not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	page, limit := pageParams(c)
	status := model.ReferralStatus(c.Query("status"))

	entries, pagination, err := r.rs.GetList(c.Request.Context(), caller.ID, status, page, limit)
	if err != nil {
		log.Error("failed to get referrals list", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referrals list"})
		return
	}

	out := make([]ReferralListEntryResponse, len(entries))
	for i, entry := range entries {
		out[i] = ReferralListEntryResponse{
			Status:              string(entry.Status),
			ReferralCode:        entry.ReferralCode,
			ReferrerEarnings:    entry.ReferrerEarnings,
			ReferredWallet:      entry.ReferredWallet,
			ReferredDisplayName: entry.ReferredDisplayName,
			ActivationDate:      entry.ActivationDate,
			CreatedAt:           entry.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"referrals":  out,
		"pagination": toPaginationResponse(pagination),
	})
}

func (r *referralRoutes) GetStats(c *gin.Context) {
	log := logger.Logger()

	caller, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("auth user not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	stats, err := r.rs.GetStats(c.Request.Context(), caller.ID)
	if err != nil {
		log.Error("failed to get referral stats", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referral stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": gin.H{
			"total":          stats.Total,
			"pending":        stats.Pending,
			"active":         stats.Active,
			"completed":      stats.Completed,
			"total_earnings": stats.TotalEarnings,
			"this_month":     stats.ThisMonth,
		},
	})
}

type ValidateReferralRequest struct {
	ReferralCode string `json:"referral_code"`
}

func (r *referralRoutes) ValidateCode(c *gin.Context) {
	log := logger.Logger()

	var req ValidateReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ReferralCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "referral code is required"})
		return
	}

	referrer, err := r.rs.Validate(c.Request.Context(), req.ReferralCode)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReferralCode) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invalid referral code"})
			return
		}
		log.Error("failed to validate referral code", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate referral code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"referrer": gin.H{
			"display_name":   referrer.DisplayName,
			"wallet_address": referrer.WalletDisplay(),
		},
	})
}

func (r *referralRoutes) GetLeaderboard(c *gin.Context) {
	log := logger.Logger()

	page, limit := pageParams(c)
	leaders, pagination, err := r.rs.GetTopReferrers(c.Request.Context(), page, limit)
	if err != nil {
		log.Error("failed to get referral leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referral leaderboard"})
		return
	}

	out := make([]gin.H, len(leaders))
	for i, leader := range leaders {
		out[i] = gin.H{
			"display_name":            leader.DisplayName,
			"wallet_address":          leader.WalletAddress,
			"avatar":                  leader.Avatar,
			"referral_count":          leader.ReferralCount,
			"total_referral_earnings": leader.TotalReferralEarnings,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard": out,
		"pagination":  toPaginationResponse(pagination),
	})
}

func (r *referralRoutes) GetRewards(c *gin.Context) {
	log := logger.Logger()

	caller, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("auth user not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	rewards, err := r.rs.GetRewards(c.Request.Context(), caller.ID)
	if err != nil {
		log.Error("failed to get referral rewards", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referral rewards"})
		return
	}

	resp := gin.H{
		"current_tier":    string(rewards.CurrentTier),
		"referral_count":  rewards.ReferralCount,
		"total_earnings":  rewards.TotalEarnings,
		"rewards_history": toPointsEntryResponses(rewards.RewardsHistory),
	}
	if rewards.NextMilestone != nil {
		resp["next_milestone"] = gin.H{
			"count":     rewards.NextMilestone.Count,
			"points":    rewards.NextMilestone.Points,
			"remaining": rewards.NextMilestone.Remaining,
		}
	}

	c.JSON(http.StatusOK, gin.H{"rewards": resp})
}

func (r *referralRoutes) GetReferredUsers(c *gin.Context) {
	log := logger.Logger()

	caller, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("auth user not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	referred, count, earnings, err := r.rs.GetReferredUsers(c.Request.Context(), caller.ID)
	if err != nil {
		log.Error("failed to get referred users", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referred users"})
		return
	}

	out := make([]gin.H, len(referred))
	for i, grant := range referred {
		out[i] = gin.H{
			"user_id":        grant.UserID,
			"wallet_address": grant.WalletAddress,
			"joined_at":      grant.JoinedAt,
			"earned_points":  grant.EarnedPoints,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"referred_users": out,
		"total_referred": count,
		"total_earnings": earnings,
	})
}
