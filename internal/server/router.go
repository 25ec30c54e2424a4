package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/fablelab/fablelab-backend/internal/handlers"
	"github.com/fablelab/fablelab-backend/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware      *middleware.AuthMiddleware
	SessionHandler      *handlers.SessionHandler
	ProgressHandler     *handlers.ProgressHandler
	GamificationHandler *handlers.GamificationHandler
	SettingsHandler     *handlers.SettingsHandler
	ThemeHandler        *handlers.ThemeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	// Session
	api.POST("/session/signin", cfg.SessionHandler.SignIn)
	api.POST("/session/signout", cfg.SessionHandler.SignOut)
	// Progress
	api.GET("/progress", cfg.ProgressHandler.GetProgress)
	api.POST("/progress/lessons/:id/complete", cfg.ProgressHandler.CompleteLesson)
	api.POST("/progress/quiz-scores", cfg.ProgressHandler.SaveQuizScore)
	api.PUT("/progress/cursor", cfg.ProgressHandler.SetCursor)
	api.POST("/progress/exercises/:id/submit", cfg.ProgressHandler.SubmitExercise)
	api.POST("/progress/module-progress", cfg.ProgressHandler.GetModuleProgress)
	// Gamification
	api.GET("/gamification", cfg.GamificationHandler.GetGamification)
	api.POST("/gamification/xp", cfg.GamificationHandler.AddXP)
	api.POST("/gamification/streak", cfg.GamificationHandler.CheckStreak)
	api.POST("/gamification/badges/evaluate", cfg.GamificationHandler.EvaluateBadges)
	api.POST("/gamification/badges/:id", cfg.GamificationHandler.UnlockBadge)
	api.DELETE("/gamification/recent-xp", cfg.GamificationHandler.ClearRecentXP)
	api.DELETE("/gamification/recent-badge", cfg.GamificationHandler.ClearRecentBadge)
	api.GET("/badges", cfg.GamificationHandler.ListBadges)
	// Settings
	api.GET("/settings", cfg.SettingsHandler.GetSettings)
	api.PUT("/settings/provider", cfg.SettingsHandler.SetProvider)
	// Theme
	api.GET("/theme", cfg.ThemeHandler.GetTheme)
	api.PUT("/theme", cfg.ThemeHandler.SetTheme)
	api.POST("/theme/toggle", cfg.ThemeHandler.ToggleTheme)

	return router
}
