package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fablelab/fablelab-backend/internal/db"
	"github.com/fablelab/fablelab-backend/internal/handlers"
	"github.com/fablelab/fablelab-backend/internal/logger"
	"github.com/fablelab/fablelab-backend/internal/middleware"
	"github.com/fablelab/fablelab-backend/internal/repos"
	"github.com/fablelab/fablelab-backend/internal/server"
	"github.com/fablelab/fablelab-backend/internal/services"
	"github.com/fablelab/fablelab-backend/internal/utils"

	redisclient "github.com/fablelab/fablelab-backend/internal/clients/redis"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	redisAddr := utils.GetEnv("REDIS_ADDR", "localhost:6379", log)
	debounceMs := utils.GetEnvAsInt("SYNC_DEBOUNCE_MS", 1000, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Redis
	cacheService, err := redisclient.NewCacheService(log, redisAddr)
	if err != nil {
		log.Warn("Redis init failed; legacy-cache migration disabled", "error", err)
		cacheService = nil
	}

	// Repos
	log.Info("Setting up Repos from main...")
	progressRepo := repos.NewProgressRepo(thePG, log)
	gamificationRepo := repos.NewGamificationRepo(thePG, log)
	settingsRepo := repos.NewSettingsRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	syncGateway := services.NewSyncGateway(
		log,
		progressRepo,
		gamificationRepo,
		settingsRepo,
		time.Duration(debounceMs)*time.Millisecond,
	)
	authService := services.NewAuthService(log, jwtSecretKey)
	sessionManager := services.NewSessionManager(log, syncGateway, cacheService)

	// Handlers
	log.Info("Setting up handlers from main...")
	sessionHandler := handlers.NewSessionHandler(log, sessionManager)
	progressHandler := handlers.NewProgressHandler(log, sessionManager)
	gamificationHandler := handlers.NewGamificationHandler(log, sessionManager)
	settingsHandler := handlers.NewSettingsHandler(log, sessionManager)
	themeHandler := handlers.NewThemeHandler(log, sessionManager)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:      authMiddleware,
		SessionHandler:      sessionHandler,
		ProgressHandler:     progressHandler,
		GamificationHandler: gamificationHandler,
		SettingsHandler:     settingsHandler,
		ThemeHandler:        themeHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
	syncGateway.Flush()
}
