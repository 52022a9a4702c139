package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/qrtrack-backend/internal/config"
	"github.com/pushp314/qrtrack-backend/internal/database"
	"github.com/pushp314/qrtrack-backend/internal/handlers"
	"github.com/pushp314/qrtrack-backend/internal/middleware"
	"github.com/pushp314/qrtrack-backend/internal/models"
	"github.com/pushp314/qrtrack-backend/internal/routes"
	"github.com/pushp314/qrtrack-backend/internal/services"
	"github.com/pushp314/qrtrack-backend/pkg/logger"
	"github.com/pushp314/qrtrack-backend/pkg/utils"
)

func main() {
	// 0. Load Config & Initialize Logger
	config.LoadConfig()

	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}
	logger.Init(env)

	logger.Info().Str("environment", env).Msg("Starting QRTrack Backend...")

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. Connect Database & Redis
	database.Connect()
	database.InitRedis()

	logger.Info().Msg("Running database migrations...")
	if err := database.DB.AutoMigrate(&models.QRCode{}, &models.ScanLog{}); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run database migrations")
	}
	logger.Info().Msg("Database migrations complete")

	// 2. Wire the core: store, redirect policy, resolver, scan recorder.
	// Policy and queue sizing come from config; nothing reads ambient
	// feature-flag state at request time.
	store := services.NewRecordStore(database.DB)
	policy := utils.RedirectPolicy{
		AllowedHosts: config.SplitHosts(config.AppConfig.RedirectAllowedHosts),
		BlockedHosts: config.SplitHosts(config.AppConfig.RedirectBlockedHosts),
	}
	resolver := services.NewRedirectResolver(store, policy)
	recorder := services.NewScanRecorder(store, config.AppConfig.ScanQueueSize, config.AppConfig.ScanQueueWorkers)
	recorder.Start()

	redirectHandler := handlers.NewRedirectHandler(resolver, recorder)
	qrHandler := handlers.NewQRCodeHandler(store, policy, config.AppConfig.BaseURL)

	// 3. Setup Router
	r := gin.New()

	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORSMiddleware())

	// Public redirect path (rate limited inside the route registration)
	routes.RegisterRedirectRoutes(r, redirectHandler)

	// JSON API: identity comes from the reverse proxy's headers
	api := r.Group("/api")
	api.Use(middleware.APIRateLimit(), middleware.IdentityMiddleware())
	routes.RegisterQRCodeRoutes(api, qrHandler)

	// Health check with DB and Redis status
	r.GET("/health", func(c *gin.Context) {
		dbStatus := "ok"
		redisStatus := "ok"

		sqlDB, err := database.DB.DB()
		if err != nil || sqlDB.Ping() != nil {
			dbStatus = "error"
		}

		if database.Redis != nil {
			if _, err := database.Redis.Ping(context.Background()).Result(); err != nil {
				redisStatus = "error"
			}
		} else {
			redisStatus = "not configured"
		}

		status := "ok"
		if dbStatus != "ok" || (redisStatus != "ok" && redisStatus != "not configured") {
			status = "degraded"
		}

		c.JSON(200, gin.H{
			"status": status,
			"checks": gin.H{
				"database": dbStatus,
				"redis":    redisStatus,
			},
		})
	})

	// 4. Start Server with graceful shutdown
	port := config.AppConfig.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", port).Str("env", env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Drain pending scan records before exiting; counters matter
	recorder.Shutdown(ctx)

	logger.Info().Msg("Server exited gracefully")
}
