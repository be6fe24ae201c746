package api

import (
	"errors"
	"net/http"

	"spinloot_backend/internal/service"
	"spinloot_backend/pkg/auth"
	"spinloot_backend/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type spinnerRoutes struct {
	ss service.SpinnerServiceI
	a  *auth.JWTAuth
}

func NewSpinnerRoutes(handler *gin.RouterGroup, ss service.SpinnerServiceI, a *auth.JWTAuth) {
	r := &spinnerRoutes{ss: ss, a: a}
	h := handler.Group("/spinner")
	h.Use(a.Middleware())
	{
		h.POST("/spin", r.Spin)
		h.GET("/status", r.GetStatus)
		h.GET("/history", r.GetHistory)
	}
}

func (r *spinnerRoutes) Spin(c *gin.Context) {
	log := logger.Logger()

	caller, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("auth user not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	result, err := r.ss.Spin(c.Request.Context(), caller.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrSpinsExhausted):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "You have already spun 3 times today. Come back tomorrow!",
			})
		default:
			log.Error("failed to spin", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to spin"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"spin_result": gin.H{
			"points":      result.Points,
			"description": result.Description,
		},
		"total_points":   result.TotalPoints,
		"current_tier":   string(result.CurrentTier),
		"spins_today":    result.SpinsToday,
		"can_spin_again": result.CanSpinAgain,
	})
}

func (r *spinnerRoutes) GetStatus(c *gin.Context) {
	log := logger.Logger()

	caller, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("auth user not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	status, err := r.ss.GetStatus(c.Request.Context(), caller.ID)
	if err != nil {
		log.Error("failed to get spinner status", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get spinner status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"spins_today":       status.SpinsToday,
		"max_spins_per_day": status.MaxSpinsPerDay,
		"can_spin":          status.CanSpin,
		"reason":            status.Reason,
		"last_spin":         status.LastSpin,
		"next_reset":        status.NextReset,
	})
}

func (r *spinnerRoutes) GetHistory(c *gin.Context) {
	log := logger.Logger()

	caller, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("auth user not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	page, limit := pageParams(c)
	history, pagination, err := r.ss.GetHistory(c.Request.Context(), caller.ID, page, limit)
	if err != nil {
		log.Error("failed to get spinner history", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get spinner history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history":    toPointsEntryResponses(history),
		"pagination": toPaginationResponse(pagination),
	})
}
