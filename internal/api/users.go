package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"spinloot_backend/internal/model"
	"spinloot_backend/internal/service"
	"spinloot_backend/pkg/auth"
	"spinloot_backend/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type userRoutes struct {
	us service.UserServiceI
	a  *auth.JWTAuth
}

func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI, a *auth.JWTAuth) {
	r := &userRoutes{us: us, a: a}

	h := handler.Group("/auth")
	{
		h.POST("/connect-wallet", r.ConnectWallet)

		private := h.Group("/")
		private.Use(a.Middleware())
		{
			private.GET("/profile", r.GetProfile)
			private.PUT("/profile", r.UpdateProfile)
			private.GET("/points-history", r.GetPointsHistory)
			private.GET("/completed-tasks", r.GetCompletedTasks)
		}
	}

	users := handler.Group("/users")
	{
		users.GET("/leaderboard", r.GetLeaderboard)
	}
}

type ConnectWalletRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
	ReferralCode  string `json:"referral_code"`
	DisplayName   string `json:"display_name"`
	Email         string `json:"email"`
}

type UserResponse struct {
	ID                    string     `json:"id"`
	WalletAddress         string     `json:"wallet_address"`
	DisplayName           string     `json:"display_name,omitempty"`
	Email                 string     `json:"email,omitempty"`
	Avatar                string     `json:"avatar,omitempty"`
	Role                  string     `json:"role"`
	TotalPoints           int        `json:"total_points"`
	CurrentTier           string     `json:"current_tier"`
	ReferralCode          string     `json:"referral_code"`
	ReferralCount         int        `json:"referral_count"`
	TotalReferralEarnings int        `json:"total_referral_earnings"`
	IsActive              bool       `json:"is_active"`
	LastLogin             *time.Time `json:"last_login,omitempty"`
	RegistrationDate      time.Time  `json:"registration_date"`
}

func toUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:                    user.ID.String(),
		WalletAddress:         user.WalletAddress,
		DisplayName:           user.DisplayName,
		Email:                 user.Email,
		Avatar:                user.Avatar,
		Role:                  string(user.Role),
		TotalPoints:           user.TotalPoints,
		CurrentTier:           string(user.CurrentTier),
		ReferralCode:          user.ReferralCode,
		ReferralCount:         user.ReferralCount,
		TotalReferralEarnings: user.TotalReferralEarnings,
		IsActive:              user.IsActive,
		LastLogin:             user.LastLogin,
		RegistrationDate:      user.RegistrationDate,
	}
}

func (r *userRoutes) ConnectWallet(c *gin.Context) {
	log := logger.Logger()

	var req ConnectWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet address is required"})
		return
	}

	input := service.ConnectWalletInput{
		WalletAddress: req.WalletAddress,
		ReferralCode:  req.ReferralCode,
		DisplayName:   req.DisplayName,
		Email:         req.Email,
		Metadata: model.ReferralMetadata{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Referrer:  c.Request.Referer(),
		},
	}

	user, token, created, err := r.us.ConnectWallet(c.Request.Context(), input)
	if err != nil {
		log.Error("failed to connect wallet", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to connect wallet"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	c.JSON(status, gin.H{
		"user":  toUserResponse(user),
		"token": token,
	})
}

func (r *userRoutes) GetProfile(c *gin.Context) {
	log := logger.Logger()

	caller, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("auth user not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	user, err := r.us.GetProfile(c.Request.Context(), caller.ID)
	if err != nil {
		log.Error("failed to get profile", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Email       *string `json:"email"`
	Avatar      *string `json:"avatar"`
}

func (r *userRoutes) UpdateProfile(c *gin.Context) {
	log := logger.Logger()

	caller, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("auth user not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := r.us.UpdateProfile(c.Request.Context(), caller.ID, service.ProfileUpdate{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Avatar:      req.Avatar,
	})
	if err != nil {
		log.Error("failed to update profile", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

type PointsEntryResponse struct {
	Amount      int       `json:"amount"`
	Source      string    `json:"source"`
	Description string    `json:"description"`
	TaskID      string    `json:"task_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func toPointsEntryResponses(entries []model.PointsEntry) []PointsEntryResponse {
	out := make([]PointsEntryResponse, len(entries))
	for i, entry := range entries {
		out[i] = PointsEntryResponse{
			Amount:      entry.Amount,
			Source:      string(entry.Source),
			Description: entry.Description,
			TaskID:      entry.TaskID,
			Timestamp:   entry.Timestamp,
		}
	}
	return out
}

type PaginationResponse struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"total_pages"`
	HasNextPage bool `json:"has_next_page"`
	HasPrevPage bool `json:"has_prev_page"`
}

func toPaginationResponse(p service.Pagination) PaginationResponse {
	return PaginationResponse(p)
}

func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	return page, limit
}

func (r *userRoutes) GetPointsHistory(c *gin.Context) {
	log := logger.Logger()

	caller, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("auth user not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	page, limit := pageParams(c)
	history, pagination, err := r.us.GetPointsHistory(c.Request.Context(), caller.ID, page, limit)
	if err != nil {
		log.Error("failed to get points history", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get points history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"points_history": toPointsEntryResponses(history),
		"pagination":     toPaginationResponse(pagination),
	})
}

type TaskCompletionResponse struct {
	TaskID        string    `json:"task_id"`
	Completions   int       `json:"completions"`
	LastCompleted time.Time `json:"last_completed"`
	Completed     bool      `json:"completed"`
}

func (r *userRoutes) GetCompletedTasks(c *gin.Context) {
	log := logger.Logger()

	caller, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("auth user not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	completions, err := r.us.GetCompletedTasks(c.Request.Context(), caller.ID)
	if err != nil {
		log.Error("failed to get completed tasks", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get completed tasks"})
		return
	}

	out := make([]TaskCompletionResponse, len(completions))
	for i, tc := range completions {
		out[i] = TaskCompletionResponse{
			TaskID:        tc.TaskID,
			Completions:   tc.Completions,
			LastCompleted: tc.LastCompleted,
			Completed:     tc.Completed,
		}
	}

	c.JSON(http.StatusOK, gin.H{"completed_tasks": out})
}

func (r *userRoutes) GetLeaderboard(c *gin.Context) {
	log := logger.Logger()

	rows, err := r.us.GetLeaderboard(c.Request.Context())
	if err != nil {
		log.Error("failed to get leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	out := make([]gin.H, len(rows))
	for i, row := range rows {
		out[i] = gin.H{
			"rank":           i + 1,
			"wallet_address": row.WalletAddress,
			"display_name":   row.DisplayName,
			"total_points":   row.TotalPoints,
			"current_tier":   string(row.CurrentTier),
		}
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": out})
}
