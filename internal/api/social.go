package api

import (
	"errors"
	"net/http"

	"habitrooms/internal/model"
	"habitrooms/internal/service"
	"habitrooms/pkg/auth"
	"habitrooms/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type socialRoutes struct {
	ss service.SocialServiceI
	a  *auth.TelegramAuth
}

func NewSocialRoutes(handler *gin.RouterGroup, ss service.SocialServiceI, a *auth.TelegramAuth) {
	r := &socialRoutes{ss: ss, a: a}
	h := handler.Group("/rooms")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/:room_id/appreciations", r.GiveAppreciation)
		h.GET("/:room_id/appreciations/remaining", r.AppreciationsRemaining)
		h.GET("/:room_id/appreciations/summary", r.AppreciationSummary)
		h.POST("/:room_id/nudges", r.SendNudge)
	}
}

type GiveAppreciationRequest struct {
	To   int64  `json:"to" binding:"required"`
	Kind string `json:"kind" binding:"required"`
}

func (r *socialRoutes) GiveAppreciation(c *gin.Context) {
	log := logger.Logger()

	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req GiveAppreciationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	quota, err := r.ss.GiveAppreciation(c.Request.Context(), roomID, user.ID, req.To, model.AppreciationKind(req.Kind))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCannotTargetSelf):
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot appreciate yourself"})
		case errors.Is(err, service.ErrUnknownKind):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown appreciation kind"})
		case errors.Is(err, service.ErrNotRoomMember):
			c.JSON(http.StatusForbidden, gin.H{"error": "both users must be members of the room"})
		case errors.Is(err, service.ErrDailyLimitReached):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "daily appreciation limit reached"})
		case errors.Is(err, service.ErrDuplicateGift):
			c.JSON(http.StatusConflict, gin.H{"error": "already gave this appreciation today"})
		default:
			log.Error("failed to give appreciation", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to give appreciation"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room_id":   roomID,
		"to":        req.To,
		"kind":      req.Kind,
		"remaining": quota.Remaining,
	})
}

func (r *socialRoutes) AppreciationsRemaining(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	quota, err := r.ss.AppreciationsRemaining(c.Request.Context(), roomID, user.ID)
	if err != nil {
		if errors.Is(err, service.ErrNotRoomMember) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this room"})
			return
		}
		logger.Logger().Error("failed to get quota", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get quota"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"limit":     quota.Limit,
		"used":      quota.Used,
		"remaining": quota.Remaining,
	})
}

func (r *socialRoutes) AppreciationSummary(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	summary, err := r.ss.RoomAppreciationSummary(c.Request.Context(), roomID)
	if err != nil {
		logger.Logger().Error("failed to get appreciation summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get summary"})
		return
	}

	response := make([]gin.H, 0, len(summary))
	for _, s := range summary {
		response = append(response, gin.H{
			"telegram_id": s.UserTelegramID,
			"kinds":       s.Kinds,
		})
	}

	c.JSON(http.StatusOK, response)
}

type SendNudgeRequest struct {
	To      int64  `json:"to" binding:"required"`
	Message string `json:"message"`
}

func (r *socialRoutes) SendNudge(c *gin.Context) {
	log := logger.Logger()

	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req SendNudgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	quota, err := r.ss.SendNudge(c.Request.Context(), roomID, user.ID, req.To, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCannotTargetSelf):
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot nudge yourself"})
		case errors.Is(err, service.ErrNotRoomMember):
			c.JSON(http.StatusForbidden, gin.H{"error": "both users must be members of the room"})
		case errors.Is(err, service.ErrDailyLimitReached):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "daily nudge limit reached"})
		default:
			log.Error("failed to send nudge", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send nudge"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room_id":   roomID,
		"to":        req.To,
		"remaining": quota.Remaining,
	})
}
