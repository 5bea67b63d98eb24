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

type roomRoutes struct {
	rs service.RoomServiceI
	ms service.MVPServiceI
	a  *auth.TelegramAuth
}

func NewRoomRoutes(handler *gin.RouterGroup, rs service.RoomServiceI, ms service.MVPServiceI, a *auth.TelegramAuth) {
	r := &roomRoutes{rs: rs, ms: ms, a: a}
	h := handler.Group("/rooms")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/", r.CreateRoom)
		h.GET("/:room_id", r.GetRoom)
		h.POST("/:room_id/join", r.JoinRoom)
		h.DELETE("/:room_id/leave", r.LeaveRoom)
		h.GET("/:room_id/leaderboard", r.GetRoomLeaderboard)
		h.GET("/:room_id/streak", r.GetRoomStreak)
		h.GET("/:room_id/mvp", r.GetRoomMVP)
	}
}

type CreateRoomRequest struct {
	Name     string `json:"name" binding:"required"`
	Timezone string `json:"timezone"`
}

func (r *roomRoutes) CreateRoom(c *gin.Context) {
	log := logger.Logger()

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	room, err := r.rs.CreateRoom(c.Request.Context(), req.Name, req.Timezone, user.ID)
	if err != nil {
		log.Error("failed to create room", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create room"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"room_id":    room.ID,
		"name":       room.Name,
		"timezone":   room.Timezone,
		"created_by": room.CreatedBy,
		"created_at": room.CreatedAt,
	})
}

func (r *roomRoutes) GetRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	room, err := r.rs.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		logger.Logger().Error("failed to get room", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room_id":    room.ID,
		"name":       room.Name,
		"timezone":   room.Timezone,
		"created_by": room.CreatedBy,
		"created_at": room.CreatedAt,
		"members":    room.Members,
	})
}

func (r *roomRoutes) JoinRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	err := r.rs.JoinRoom(c.Request.Context(), roomID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		case errors.Is(err, service.ErrAlreadyRoomMember):
			c.JSON(http.StatusConflict, gin.H{"error": "already a member of this room"})
		default:
			logger.Logger().Error("failed to join room", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join room"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "joined": true})
}

func (r *roomRoutes) LeaveRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	err := r.rs.LeaveRoom(c.Request.Context(), roomID, user.ID)
	if err != nil {
		if errors.Is(err, service.ErrNotRoomMember) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not a member of this room"})
			return
		}
		logger.Logger().Error("failed to leave room", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to leave room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "left": true})
}

func (r *roomRoutes) GetRoomLeaderboard(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	members, err := r.rs.GetRoomLeaderboard(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		logger.Logger().Error("failed to get room leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	response := make([]gin.H, 0, len(members))
	for i, m := range members {
		response = append(response, gin.H{
			"position":    i + 1,
			"telegram_id": m.UserTelegramID,
			"username":    m.Username,
			"points":      m.Points,
			"joined_at":   m.JoinedAt,
		})
	}

	c.JSON(http.StatusOK, response)
}

func (r *roomRoutes) GetRoomStreak(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	state, err := r.rs.GetRoomStreak(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		logger.Logger().Error("failed to get room streak", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get streak"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room_id":            roomID,
		"current_streak":     state.Current,
		"longest_streak":     state.Longest,
		"last_activity_date": state.LastActivity,
	})
}

// GetRoomMVP serves the persisted record only; the winner is decided once,
// by the nightly job.
func (r *roomRoutes) GetRoomMVP(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required"})
		return
	}

	rec, err := r.ms.GetRoomMVP(c.Request.Context(), roomID, date)
	if err != nil {
		if errors.Is(err, service.ErrMVPNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no mvp recorded for this day"})
			return
		}
		logger.Logger().Error("failed to get mvp", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get mvp"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room_id":         rec.RoomID,
		"date":            rec.Date,
		"telegram_id":     rec.UserTelegramID,
		"score":           rec.Score,
		"tasks_completed": rec.TasksCompleted,
	})
}
