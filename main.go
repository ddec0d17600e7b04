package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prohmpiriya/event-inventory/internal/di"
	"github.com/prohmpiriya/event-inventory/internal/repository"
	"github.com/prohmpiriya/event-inventory/internal/service"
	"github.com/prohmpiriya/event-inventory/pkg/config"
	"github.com/prohmpiriya/event-inventory/pkg/database"
	"github.com/prohmpiriya/event-inventory/pkg/logger"
	"github.com/prohmpiriya/event-inventory/pkg/middleware"
	pkgredis "github.com/prohmpiriya/event-inventory/pkg/redis"
	"github.com/prohmpiriya/event-inventory/pkg/saga"
	"github.com/prohmpiriya/event-inventory/pkg/telemetry"
)

const demoUsers = 100

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(&logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
		Development: cfg.IsDevelopment(),
		OutputPath:  "stdout",
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting event inventory service",
		zap.String("environment", cfg.App.Environment),
		zap.String("storage", cfg.Storage.Driver),
	)

	ctx := context.Background()

	// Initialize tracing
	if err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Warn("Tracing disabled", zap.Error(err))
	}

	// Storage
	var (
		db    *database.PostgresDB
		repos *di.Repositories
	)
	switch cfg.Storage.Driver {
	case "postgres":
		db, err = database.Connect(ctx, &cfg.Database, database.ConnectOptions{
			ConnectTimeout: 5 * time.Second,
			Tracing:        cfg.OTel.Enabled,
		})
		if err != nil {
			appLog.Fatal("Database connection failed", zap.Error(err))
		}
		defer db.Close()

		store := repository.NewPostgresStore(db.Pool())
		if cfg.Database.AutoMigrate {
			if err := db.Migrate(ctx, store, saga.NewPostgresStore(db.Pool())); err != nil {
				appLog.Fatal("Schema migration failed", zap.Error(err))
			}
		}
		repos = di.PostgresRepositories(store)
		appLog.Info("Database connected", zap.String("host", cfg.Database.Host))
	default:
		store := repository.NewMemoryStore()
		repository.SeedDemo(store, demoUsers)
		repos = di.MemoryRepositories(store)
		appLog.Info("Using in-memory storage with demo data", zap.Int("users", demoUsers))
	}

	// Redis keeps saga instances when enabled
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.Connect(ctx, &cfg.Redis, pkgredis.ConnectOptions{
			Retries: 3,
			Backoff: 100 * time.Millisecond,
			Tracing: cfg.OTel.Enabled,
		})
		if err != nil {
			appLog.Fatal("Redis connection failed", zap.Error(err))
		}
		defer redisClient.Close()
		appLog.Info("Redis connected", zap.String("addr", redisClient.Addr()))
	}

	// Initialize Kafka event publisher
	var eventPublisher service.EventPublisher = service.NewNoOpEventPublisher()
	if cfg.Kafka.Enabled {
		kafkaPublisher, err := service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
			Brokers:     cfg.Kafka.Brokers,
			Topic:       cfg.Kafka.BookingTopic,
			ServiceName: cfg.App.Name,
			ClientID:    cfg.Kafka.ClientID,
		})
		if err != nil {
			appLog.Warn("Kafka connection failed, using no-op publisher", zap.Error(err))
		} else {
			eventPublisher = kafkaPublisher
			appLog.Info("Kafka event publisher connected", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	}
	defer eventPublisher.Close()

	// Build dependency injection container
	container, err := di.NewContainer(&di.ContainerConfig{
		Config:         cfg,
		DB:             db,
		Redis:          redisClient,
		Repos:          repos,
		EventPublisher: eventPublisher,
		Logger:         appLog,
	})
	if err != nil {
		appLog.Fatal("Failed to build container", zap.Error(err))
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(telemetry.TracingMiddleware(logger.RequestIDKey))
	router.Use(middleware.RequestLogger(appLog.Named("http")))

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	auth := middleware.JWTMiddleware(&middleware.JWTConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		bookings := v1.Group("/bookings")
		bookings.Use(auth)
		{
			bookings.POST("", container.BookingHandler.CreateBooking)
			bookings.GET("/:id", container.BookingHandler.GetBooking)
		}

		v1.POST("/venues/:id/events", auth, container.EventHandler.ScheduleEvent)
		v1.GET("/events/:id/availability", container.EventHandler.GetAvailability)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	go func() {
		appLog.Info("Event inventory service listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		appLog.Warn("Failed to flush traces", zap.Error(err))
	}

	appLog.Info("Server exited gracefully")
}
