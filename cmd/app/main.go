package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"spinloot_backend/internal/api"
	"spinloot_backend/internal/leaderboard"
	"spinloot_backend/internal/repository"
	"spinloot_backend/internal/service"
	"spinloot_backend/pkg/auth"
	"spinloot_backend/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	// Leaderboard mirror is optional: skip it when no redis is configured.
	var scoreboard service.Scoreboard
	var board *leaderboard.Service
	if cfg.Redis.Addr != "" {
		board, err = leaderboard.New(cfg.Redis)
		if err != nil {
			zapLogger.Fatal("Failed to initialize leaderboard", zap.Error(err))
		}
		defer board.Close()
		scoreboard = board
	}

	jwtAuth := auth.NewJWTAuth(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)

	referralService := service.NewReferralService(repo, repo, scoreboard, cfg.FrontendURL)
	userService := service.NewUserService(repo, referralService, jwtAuth, scoreboard)
	taskService := service.NewTaskService(repo, repo, scoreboard)
	spinnerService := service.NewSpinnerService(repo, scoreboard)
	svc := service.NewService(userService, taskService, spinnerService, referralService)

	router := gin.New()
	router.Use(gin.Recovery())

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
	api.NewUserRoutes(a, svc, jwtAuth)
	api.NewTaskRoutes(a, svc, jwtAuth)
	api.NewSpinnerRoutes(a, svc, jwtAuth)
	api.NewReferralRoutes(a, svc, jwtAuth)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
