package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blake-osondu/jobdroid-service/config"
	"github.com/blake-osondu/jobdroid-service/handler"
	"github.com/blake-osondu/jobdroid-service/middleware"
	"github.com/blake-osondu/jobdroid-service/pkg/logger"
	"github.com/blake-osondu/jobdroid-service/service"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment first so config env lookups see it
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Initialize resume storage
	resumes, err := service.NewResumeStore(&cfg.Minio)
	if err != nil {
		slog.Error("failed to initialize resume store", "error", err)
		os.Exit(1)
	}

	// Ensure bucket exists
	if err := resumes.EnsureBucket(context.Background()); err != nil {
		slog.Error("failed to ensure resume bucket", "error", err)
		os.Exit(1)
	}

	// Field classification: LLM-backed when configured, pattern table otherwise
	var classifier service.FieldClassifier = service.NewPatternClassifier()
	if cfg.LLM.Enabled {
		llm, err := service.NewLLMClassifier(context.Background(), &cfg.LLM)
		if err != nil {
			slog.Error("failed to initialize LLM classifier", "error", err)
			os.Exit(1)
		}
		classifier = llm
		slog.Info("LLM field classifier enabled", "model", cfg.LLM.Model)
	}

	// Attempt history for idempotent resume across restarts
	history, err := service.OpenRunStore(cfg.Store.DatabasePath)
	if err != nil {
		slog.Error("failed to open run store", "error", err)
		os.Exit(1)
	}

	// Shared pacing: one budget and scheduler across all runs
	proxies := service.NewProxyPool(cfg.Automation.Proxies)
	budget := service.NewRateBudget(cfg.Automation.ApplicationsPerDay, cfg.Automation.DelayBetweenApplications)
	scheduler := service.NewScheduler(&cfg.Automation, budget, proxies)
	mapper := service.NewFieldMapper(classifier, resumes, cfg.Automation.MinConfidenceThreshold)

	// Platform adapters from configuration
	var adapters []service.PlatformAdapter
	for _, p := range cfg.Platforms {
		adapters = append(adapters, service.NewBoardAdapter(p.Name, p.BaseURL, p.APIToken))
		slog.Info("platform adapter registered", "platform", p.Name)
	}
	if len(adapters) == 0 {
		slog.Warn("no platforms configured; runs will complete without applying")
	}

	registry := service.NewRegistry(adapters, scheduler, mapper, history, &cfg.Automation)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(cfg)
	automationHandler := handler.NewAutomationHandler(registry)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())                 // Request ID for tracing
	router.Use(middleware.Recovery())                  // Panic recovery
	router.Use(middleware.RequestLogger())             // Access logging
	router.Use(corsMiddleware())                       // CORS
	router.Use(middleware.RateLimit(100, time.Minute)) // Rate limiting: 100 requests per minute

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)
		protected.POST("/automation/start", automationHandler.Start)
		protected.GET("/automation/:user_id/status", automationHandler.Status)
		protected.POST("/automation/:user_id/stop", automationHandler.Stop)
		protected.POST("/automation/:user_id/pause", automationHandler.Pause)
		protected.POST("/automation/:user_id/resume", automationHandler.Resume)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
