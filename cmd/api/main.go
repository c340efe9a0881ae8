package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sjperalta/payroll-ledger-api/docs" // Swagger docs
	"github.com/sjperalta/payroll-ledger-api/internal/config"
	"github.com/sjperalta/payroll-ledger-api/internal/database"
	"github.com/sjperalta/payroll-ledger-api/internal/handlers"
	"github.com/sjperalta/payroll-ledger-api/internal/jobs"
	"github.com/sjperalta/payroll-ledger-api/internal/middleware"
	"github.com/sjperalta/payroll-ledger-api/internal/repository"
	"github.com/sjperalta/payroll-ledger-api/internal/services"
	"github.com/sjperalta/payroll-ledger-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Payroll Ledger API
// @version 1.0
// @description Per-cutoff benefits and deductions ledger with default templates and posting

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	rdb := connectRedis(cfg)

	repos := repository.NewRepositories(db)

	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	svcs := services.NewServices(repos, worker, rdb, cfg)

	scheduleJobs(cfg, svcs)

	h := handlers.NewHandlers(svcs)
	router := setupRouter(h, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	worker.Shutdown()
	logger.Info("Background worker stopped")

	if rdb != nil {
		_ = rdb.Close()
	}

	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

// connectRedis returns nil when Redis is not configured or unreachable; the API
// then runs without the status cache and without the auto seed lock.
func connectRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisAddress == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, status cache disabled", "address", cfg.RedisAddress, "error", err)
		_ = rdb.Close()
		return nil
	}

	logger.Info("Connected to Redis", "address", cfg.RedisAddress)
	return rdb
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", h.Health.Index)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			ledgers := protected.Group("/ledgers/:category")
			{
				// Read access for every authenticated role
				ledgers.GET("", h.Ledger.Index)
				ledgers.GET("/status", h.Ledger.Status)
				ledgers.GET("/export", h.Ledger.Export)
				ledgers.GET("/templates/:employee_id", h.Ledger.ShowTemplate)

				writer := ledgers.Group("")
				writer.Use(middleware.RequireLedgerWriter())
				{
					writer.POST("/entries", h.Ledger.CreateEntry)
					writer.PUT("/cells", h.Ledger.PatchCell)
					writer.PATCH("/entries/:entry_id", h.Ledger.PatchEntry)
					writer.POST("/entries/:entry_id/post", h.Ledger.PostEntry)
					writer.POST("/entries/:entry_id/set_default", h.Ledger.SetDefault)
					writer.POST("/bulk_create", h.Ledger.BulkCreate)
					writer.POST("/bulk_post", h.Ledger.BulkPost)
					writer.POST("/post_all", h.Ledger.PostAll)
					writer.POST("/bulk_set_default", h.Ledger.BulkSetDefault)
				}
			}

			admin := protected.Group("/jobs")
			admin.Use(middleware.RequireRole(middleware.RoleAdmin))
			{
				admin.GET("/status", h.Job.Status)
				admin.POST("/auto_seed", h.Job.RunAutoSeed)
			}
		}
	}

	return router
}

func scheduleJobs(cfg *config.Config, svcs *services.Services) {
	if !cfg.AutoSeedEnabled {
		logger.Info("Auto seed disabled")
		return
	}
	if err := svcs.Job.ScheduleAutoSeed(cfg.AutoSeedCron); err != nil {
		logger.Error("Failed to schedule auto seed", "error", err)
		os.Exit(1)
	}
}
