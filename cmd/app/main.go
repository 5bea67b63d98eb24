package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"habitrooms/internal/api"
	"habitrooms/internal/middleware"
	"habitrooms/internal/notifier"
	"habitrooms/internal/repository"
	"habitrooms/internal/service"
	"habitrooms/pkg/auth"
	"habitrooms/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	hub := notifier.NewHub()
	hub.Start(ctx)
	defer hub.Stop()

	var dm service.DirectMessenger
	if cfg.TelegramAuth.TelegramBotToken != "" {
		messenger, err := notifier.NewTelegramMessenger(cfg.TelegramAuth.TelegramBotToken)
		if err != nil {
			zapLogger.Fatal("Failed to initialize telegram messenger", zap.Error(err))
		}
		dm = messenger
	} else {
		zapLogger.Warn("No bot token configured, direct messages disabled")
	}

	userService := service.NewUserService(repo)
	roomService := service.NewRoomService(repo)
	taskService := service.NewTaskService(repo, hub)
	socialService := service.NewSocialService(repo, hub, dm)
	mvpService := service.NewMVPService(repo, hub, dm)

	sweepService := service.NewSweepService(repo, mvpService, hub)
	sweepService.Start(ctx)
	defer sweepService.Stop()

	telegramAuth := auth.NewTelegramAuth(cfg.TelegramAuth.TelegramBotToken, cfg.TelegramAuth.DebugMode)
	authz := middleware.NewAuthorization(userService)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(rateLimiter.Middleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	corsConfig.AllowHeaders = []string{"*"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour

	router.Use(cors.New(corsConfig))

	a := router.Group("/api/v1")
	api.NewUserRoutes(a, userService, telegramAuth)
	api.NewRoomRoutes(a, roomService, mvpService, telegramAuth)
	api.NewTaskRoutes(a, taskService, telegramAuth)
	api.NewSocialRoutes(a, socialService, telegramAuth)
	api.NewAdminRoutes(a, sweepService, mvpService, telegramAuth, authz)
	api.NewWSRoutes(a, hub, telegramAuth)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		zapLogger.Info("Starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown failed", zap.Error(err))
	}
}
