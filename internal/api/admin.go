package api

import (
	"errors"
	"net/http"
	"time"

	"habitrooms/internal/middleware"
	"habitrooms/internal/service"
	"habitrooms/pkg/auth"
	"habitrooms/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type adminRoutes struct {
	sweep *service.SweepService
	ms    service.MVPServiceI
	a     *auth.TelegramAuth
}

// NewAdminRoutes exposes the nightly jobs for manual runs. Both endpoints
// are idempotent, so an operator can safely retry them.
func NewAdminRoutes(handler *gin.RouterGroup, sweep *service.SweepService, ms service.MVPServiceI,
	a *auth.TelegramAuth, authz *middleware.Authorization) {
	r := &adminRoutes{sweep: sweep, ms: ms, a: a}
	h := handler.Group("/admin")
	h.Use(a.TelegramAuthMiddleware())
	h.Use(authz.AdminOnly())
	{
		h.POST("/sweep/decay", r.RunDecaySweep)
		h.POST("/rooms/:room_id/mvp", r.AwardRoomMVP)
	}
}

func (r *adminRoutes) RunDecaySweep(c *gin.Context) {
	r.sweep.RunDecaySweep(c.Request.Context(), time.Now().UTC())
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (r *adminRoutes) AwardRoomMVP(c *gin.Context) {
	log := logger.Logger()

	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	day := time.Now().UTC().AddDate(0, 0, -1)
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	record, err := r.ms.AwardRoomMVP(c.Request.Context(), roomID, day)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		case errors.Is(err, service.ErrNoEligibleMembers):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no eligible members for this day"})
		case errors.Is(err, service.ErrMVPAlreadyAwarded):
			c.JSON(http.StatusConflict, gin.H{"error": "mvp already awarded for this day"})
		default:
			log.Error("failed to award mvp", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to award mvp"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room_id":         record.RoomID,
		"date":            record.Date,
		"telegram_id":     record.UserTelegramID,
		"score":           record.Score,
		"tasks_completed": record.TasksCompleted,
	})
}
