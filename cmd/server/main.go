// cmd/server/main.go
// HTTP Server
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/psyepez2005/LPDV-retoParqueTec/internal/flow"
	"github.com/psyepez2005/LPDV-retoParqueTec/internal/handler"
	"github.com/psyepez2005/LPDV-retoParqueTec/internal/logger"
	"github.com/psyepez2005/LPDV-retoParqueTec/internal/middleware"
	"github.com/psyepez2005/LPDV-retoParqueTec/internal/scoring"
	"github.com/psyepez2005/LPDV-retoParqueTec/internal/session"
)

func main() {
	// Initialize logger
	log := logger.NewLogger("fraud-console")
	defer log.Sync()

	// Load configuration
	_ = godotenv.Load()
	cfg := loadConfig()

	// Initialize session store
	store := session.NewRedisStore(cfg.RedisURL)
	defer store.Close()

	// Initialize scoring engine client
	engineClient := scoring.NewClient(cfg.EngineURL, cfg.SignatureKey, cfg.EngineTimeout, log)

	// Initialize guard, flow registry and handlers
	guard := session.NewGuard(store, log)
	registry := flow.NewRegistry(guard, engineClient, log)
	consoleHandler := handler.NewConsoleHandler(engineClient, store, guard, registry, log)

	// Setup router
	router := setupRouter(consoleHandler, log)

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("starting fraud console service",
			zap.String("port", cfg.Port),
			zap.String("engine_url", cfg.EngineURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

func setupRouter(h *handler.ConsoleHandler, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	// Health checks
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	v1 := router.Group("/api/v1")
	{
		sess := v1.Group("/session")
		{
			sess.POST("/login", h.Login)
			sess.POST("/logout", h.Logout)
		}

		evaluations := v1.Group("/evaluations")
		{
			evaluations.POST("", h.Evaluate)
			evaluations.GET("/state", h.EvaluationState)
		}

		v1.GET("/dashboard/summary", h.DashboardSummary)
	}

	return router
}

type Config struct {
	Port          string
	RedisURL      string
	EngineURL     string
	EngineTimeout time.Duration
	SignatureKey  string
	Environment   string
}

func loadConfig() *Config {
	return &Config{
		Port:          getEnv("PORT", "8084"),
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		EngineURL:     getEnv("ENGINE_URL", "http://localhost:8000"),
		EngineTimeout: getDurationEnv("ENGINE_TIMEOUT", 10*time.Second),
		// Placeholder until the engine team defines a real request
		// signing scheme.
		SignatureKey: getEnv("ENGINE_SIGNATURE", "dev-signature"),
		Environment:  getEnv("ENVIRONMENT", "development"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
