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

type taskRoutes struct {
	ts service.TaskServiceI
	a  *auth.JWTAuth
}

func NewTaskRoutes(handler *gin.RouterGroup, ts service.TaskServiceI, a *auth.JWTAuth) {
	r := &taskRoutes{ts: ts, a: a}
	h := handler.Group("/tasks")
	{
		h.GET("/", r.GetTasks)

		private := h.Group("/")
		private.Use(a.Middleware())
		{
			private.GET("/progress", r.GetTaskProgress)
			private.GET("/stats", r.GetTaskStats)
			private.POST("/:task_id/complete", r.CompleteTask)
		}

		h.GET("/:task_id", r.GetTaskByID)
	}
}

type TaskResponse struct {
	TaskID         string     `json:"task_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Points         int        `json:"points"`
	MaxCompletions int        `json:"max_completions"`
	Type           string     `json:"type"`
	Action         string     `json:"action"`
	Link           string     `json:"link,omitempty"`
	Category       string     `json:"category"`
	Requirements   []string   `json:"requirements,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
}

func toTaskResponse(task *model.Task) TaskResponse {
	return TaskResponse{
		TaskID:         task.TaskID,
		Title:          task.Title,
		Description:    task.Description,
		Points:         task.Points,
		MaxCompletions: task.MaxCompletions,
		Type:           string(task.Type),
		Action:         task.Action,
		Link:           task.Link,
		Category:       string(task.Category),
		Requirements:   task.Requirements,
		EndDate:        task.EndDate,
	}
}

func (r *taskRoutes) GetTasks(c *gin.Context) {
	log := logger.Logger()

	tasks, err := r.ts.GetActiveTasks(c.Request.Context())
	if err != nil {
		log.Error("failed to get tasks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get tasks"})
		return
	}

	out := make([]TaskResponse, len(tasks))
	for i, task := range tasks {
		out[i] = toTaskResponse(task)
	}

	c.JSON(http.StatusOK, gin.H{"tasks": out})
}

func (r *taskRoutes) GetTaskByID(c *gin.Context) {
	log := logger.Logger()

	task, err := r.ts.GetTaskByID(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		log.Error("failed to get task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": toTaskResponse(task)})
}

func (r *taskRoutes) CompleteTask(c *gin.Context) {
	log := logger.Logger()

	caller, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("auth user not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	result, err := r.ts.CompleteTask(c.Request.Context(), caller.ID, c.Param("task_id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		case errors.Is(err, service.ErrTaskOnlyOnce):
			c.JSON(http.StatusBadRequest, gin.H{"error": "This task can only be completed once"})
		case errors.Is(err, service.ErrMaxCompletionsReached):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Maximum completions reached for this task"})
		case errors.Is(err, service.ErrDailyLimitReached):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Daily limit reached for this task"})
		default:
			log.Error("failed to complete task", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete task"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"points_earned": result.PointsEarned,
		"total_points":  result.TotalPoints,
		"current_tier":  string(result.CurrentTier),
		"task_completion": gin.H{
			"task_id":     result.TaskID,
			"completions": result.Completions,
			"completed":   result.Completed,
		},
	})
}

type TaskProgressResponse struct {
	TaskResponse
	Completions   int        `json:"completions"`
	Completed     bool       `json:"completed"`
	LastCompleted *time.Time `json:"last_completed,omitempty"`
	CanComplete   bool       `json:"can_complete"`
}

func (r *taskRoutes) GetTaskProgress(c *gin.Context) {
	log := logger.Logger()

	caller, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("auth user not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	progress, user, err := r.ts.GetTaskProgress(c.Request.Context(), caller.ID)
	if err != nil {
		log.Error("failed to get task progress", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get task progress"})
		return
	}

	out := make([]TaskProgressResponse, len(progress))
	for i, p := range progress {
		out[i] = TaskProgressResponse{
			TaskResponse:  toTaskResponse(&p.Task),
			Completions:   p.Completions,
			Completed:     p.Completed,
			LastCompleted: p.LastCompleted,
			CanComplete:   p.CanComplete,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"task_progress": out,
		"total_points":  user.TotalPoints,
		"current_tier":  string(user.CurrentTier),
	})
}

func (r *taskRoutes) GetTaskStats(c *gin.Context) {
	log := logger.Logger()

	caller, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("auth user not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	stats, err := r.ts.GetTaskStats(c.Request.Context(), caller.ID)
	if err != nil {
		log.Error("failed to get task stats", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get task stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": gin.H{
			"total_tasks":           stats.TotalTasks,
			"completed_tasks":       stats.CompletedTasks,
			"total_points":          stats.TotalPoints,
			"current_tier":          string(stats.CurrentTier),
			"points_from_tasks":     stats.PointsFromTasks,
			"points_from_referrals": stats.PointsFromReferrals,
			"points_from_spinner":   stats.PointsFromSpinner,
		},
	})
}
