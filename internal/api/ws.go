package api

import (
	"net/http"
	"strconv"

	"habitrooms/internal/notifier"
	"habitrooms/pkg/auth"
	"habitrooms/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsRoutes struct {
	hub *notifier.Hub
	a   *auth.TelegramAuth
}

func NewWSRoutes(handler *gin.RouterGroup, hub *notifier.Hub, a *auth.TelegramAuth) {
	r := &wsRoutes{hub: hub, a: a}
	h := handler.Group("/ws")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/:telegram_id", r.Connect)
	}
}

func (r *wsRoutes) Connect(c *gin.Context) {
	log := logger.Logger()

	telegramID, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram id"})
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}
	if user.ID != telegramID {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot open a socket for another user"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("failed to upgrade connection", zap.Error(err))
		return
	}

	r.hub.Register(telegramID, conn)
}
