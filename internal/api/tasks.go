package api

import (
	"errors"
	"net/http"

	"habitrooms/internal/service"
	"habitrooms/pkg/auth"
	"habitrooms/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type taskRoutes struct {
	ts service.TaskServiceI
	a  *auth.TelegramAuth
}

func NewTaskRoutes(handler *gin.RouterGroup, ts service.TaskServiceI, a *auth.TelegramAuth) {
	r := &taskRoutes{ts: ts, a: a}

	rooms := handler.Group("/rooms")
	rooms.Use(a.TelegramAuthMiddleware())
	{
		rooms.POST("/:room_id/tasks", r.CreateTask)
		rooms.GET("/:room_id/tasks", r.ListTasks)
		rooms.GET("/:room_id/streak/me", r.GetMyRoomStreak)
	}

	tasks := handler.Group("/tasks")
	tasks.Use(a.TelegramAuthMiddleware())
	{
		tasks.DELETE("/:task_id", r.ArchiveTask)
		tasks.POST("/:task_id/complete", r.CompleteTask)
		tasks.DELETE("/:task_id/complete", r.UncompleteTask)
	}
}

type CreateTaskRequest struct {
	Title  string `json:"title" binding:"required"`
	Points int    `json:"points"`
}

func (r *taskRoutes) CreateTask(c *gin.Context) {
	log := logger.Logger()

	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	task, err := r.ts.CreateTask(c.Request.Context(), roomID, user.ID, req.Title, req.Points)
	if err != nil {
		if errors.Is(err, service.ErrNotRoomMember) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this room"})
			return
		}
		log.Error("failed to create task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"task_id":    task.ID,
		"room_id":    task.RoomID,
		"title":      task.Title,
		"points":     task.Points,
		"created_at": task.CreatedAt,
	})
}

func (r *taskRoutes) ListTasks(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	tasks, err := r.ts.ListRoomTasks(c.Request.Context(), roomID, user.ID)
	if err != nil {
		if errors.Is(err, service.ErrNotRoomMember) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this room"})
			return
		}
		logger.Logger().Error("failed to list tasks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks"})
		return
	}

	response := make([]gin.H, 0, len(tasks))
	for _, t := range tasks {
		response = append(response, gin.H{
			"task_id":    t.ID,
			"title":      t.Title,
			"points":     t.Points,
			"created_by": t.CreatedBy,
			"created_at": t.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, response)
}

func (r *taskRoutes) ArchiveTask(c *gin.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	err := r.ts.ArchiveTask(c.Request.Context(), taskID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		case errors.Is(err, service.ErrNotRoomMember):
			c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this room"})
		default:
			logger.Logger().Error("failed to archive task", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to archive task"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"task_id": taskID, "archived": true})
}

func (r *taskRoutes) CompleteTask(c *gin.Context) {
	log := logger.Logger()

	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := r.ts.CompleteTask(c.Request.Context(), taskID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		case errors.Is(err, service.ErrTaskArchived):
			c.JSON(http.StatusGone, gin.H{"error": "task is archived"})
		case errors.Is(err, service.ErrNotRoomMember):
			c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this room"})
		case errors.Is(err, service.ErrAlreadyCompletedToday):
			c.JSON(http.StatusConflict, gin.H{"error": "task already completed today"})
		default:
			log.Error("failed to complete task", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete task"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_id":              taskID,
		"completed_at":         result.Completion.CompletedAt,
		"completion_date":      result.Completion.CompletionDate,
		"points_awarded":       result.Completion.PointsAwarded,
		"counts_toward_streak": result.Completion.Valid,
		"current_streak":       result.Streak.Current,
		"longest_streak":       result.Streak.Longest,
	})
}

func (r *taskRoutes) UncompleteTask(c *gin.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	err := r.ts.UncompleteTask(c.Request.Context(), taskID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		case errors.Is(err, service.ErrCompletionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "no completion to undo today"})
		default:
			logger.Logger().Error("failed to uncomplete task", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to uncomplete task"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"task_id": taskID, "uncompleted": true})
}

func (r *taskRoutes) GetMyRoomStreak(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	state, err := r.ts.GetUserRoomStreak(c.Request.Context(), roomID, user.ID)
	if err != nil {
		if errors.Is(err, service.ErrNotRoomMember) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this room"})
			return
		}
		logger.Logger().Error("failed to get room streak", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get streak"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room_id":            roomID,
		"telegram_id":        user.ID,
		"current_streak":     state.Current,
		"longest_streak":     state.Longest,
		"last_activity_date": state.LastActivity,
	})
}
