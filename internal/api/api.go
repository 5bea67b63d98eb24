package api

import (
	"net/http"

	"habitrooms/pkg/auth"
	"habitrooms/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentUser pulls the authenticated Telegram identity that the auth
// middleware stored on the request.
func currentUser(c *gin.Context) (*auth.TelegramUserData, bool) {
	userData, exists := c.Get("telegram_user")
	if !exists {
		logger.Logger().Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}

	user, ok := userData.(*auth.TelegramUserData)
	if !ok {
		logger.Logger().Error("invalid type assertion for telegram user data")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}
	return user, true
}

func roomIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room_id"})
		return uuid.Nil, false
	}
	return id, true
}

func taskIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task_id"})
		return uuid.Nil, false
	}
	return id, true
}
