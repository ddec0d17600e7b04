package di

import (
	"fmt"

	"github.com/prohmpiriya/event-inventory/internal/gateway"
	"github.com/prohmpiriya/event-inventory/internal/handler"
	"github.com/prohmpiriya/event-inventory/internal/repository"
	"github.com/prohmpiriya/event-inventory/internal/service"
	"github.com/prohmpiriya/event-inventory/internal/validator"
	"github.com/prohmpiriya/event-inventory/pkg/config"
	"github.com/prohmpiriya/event-inventory/pkg/database"
	"github.com/prohmpiriya/event-inventory/pkg/logger"
	"github.com/prohmpiriya/event-inventory/pkg/redis"
	"github.com/prohmpiriya/event-inventory/pkg/saga"
)

// Repositories groups the storage ports of one driver
type Repositories struct {
	Users    repository.UserRepository
	Events   repository.EventRepository
	Venues   repository.VenueRepository
	Bookings repository.BookingRepository
	Sink     repository.BookingSink
}

// MemoryRepositories exposes a MemoryStore as Repositories
func MemoryRepositories(store *repository.MemoryStore) *Repositories {
	return &Repositories{
		Users:    store.Users(),
		Events:   store.Events(),
		Venues:   store.Venues(),
		Bookings: store.Bookings(),
		Sink:     store,
	}
}

// PostgresRepositories exposes a PostgresStore as Repositories
func PostgresRepositories(store *repository.PostgresStore) *Repositories {
	return &Repositories{
		Users:    store.Users(),
		Events:   store.Events(),
		Venues:   store.Venues(),
		Bookings: store.Bookings(),
		Sink:     store,
	}
}

// Container holds all dependencies for the event inventory service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	Repos     *Repositories
	SagaStore saga.Store

	// Collaborators
	Gateway        gateway.PaymentGateway
	EventPublisher service.EventPublisher

	// Services
	BookingService      service.BookingService
	SchedulingService   service.SchedulingService
	BookingOrchestrator *service.BookingOrchestrator

	// Handlers
	HealthHandler  *handler.HealthHandler
	BookingHandler *handler.BookingHandler
	EventHandler   *handler.EventHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config         *config.Config
	DB             *database.PostgresDB
	Redis          *redis.Client
	Repos          *Repositories
	EventPublisher service.EventPublisher
	Logger         *logger.Logger
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) (*Container, error) {
	if cfg == nil || cfg.Config == nil || cfg.Repos == nil {
		return nil, fmt.Errorf("config and repositories are required")
	}
	appCfg := cfg.Config

	c := &Container{
		DB:             cfg.DB,
		Redis:          cfg.Redis,
		Repos:          cfg.Repos,
		EventPublisher: cfg.EventPublisher,
	}
	if c.EventPublisher == nil {
		c.EventPublisher = service.NewNoOpEventPublisher()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	c.SagaStore = newSagaStore(appCfg, cfg.DB, cfg.Redis)

	gw, err := gateway.New(&gateway.Config{
		Type:        appCfg.Payment.Gateway,
		SuccessRate: appCfg.Payment.SuccessRate,
		DelayMs:     appCfg.Payment.DelayMs,
		MaxAmount:   appCfg.Payment.MaxAmount,
	})
	if err != nil {
		return nil, err
	}
	c.Gateway = gw

	// Initialize services
	c.BookingService = service.NewBookingService(&service.BookingServiceConfig{
		Rules: validator.DefaultBookingChain(validator.BookingRulesConfig{
			MaxTicketsPerUser:     appCfg.Booking.MaxTicketsPerUser,
			CountGeneralAdmission: appCfg.Booking.CountGATowardsLimit,
			MinQuantity:           appCfg.Booking.MinQuantity,
			MaxQuantity:           appCfg.Booking.MaxQuantity,
		}),
		SeatPricer: service.NewSeatPricer(appCfg.Booking.SeatPrice),
	})
	c.SchedulingService = service.NewSchedulingService(c.Repos.Venues, c.Repos.Events, nil)

	c.BookingOrchestrator, err = service.NewBookingOrchestrator(&service.OrchestratorConfig{
		Users:          c.Repos.Users,
		Events:         c.Repos.Events,
		Venues:         c.Repos.Venues,
		Sink:           c.Repos.Sink,
		BookingService: c.BookingService,
		Gateway:        c.Gateway,
		Publisher:      c.EventPublisher,
		CommandRules:   validator.DefaultCommandChain(appCfg.Booking.MinQuantity, appCfg.Booking.MaxQuantity),
		SagaStore:      c.SagaStore,
		Logger:         log.Named("booking"),
		Currency:       appCfg.Booking.Currency,
		StepTimeout:    appCfg.Booking.StepTimeout,
	})
	if err != nil {
		return nil, err
	}

	// Initialize handlers
	checks := map[string]handler.HealthChecker{}
	if c.DB != nil {
		checks["postgres"] = c.DB
	}
	if c.Redis != nil {
		checks["redis"] = c.Redis
	}
	c.HealthHandler = handler.NewHealthHandler(appCfg.App.Name, checks)
	c.BookingHandler = handler.NewBookingHandler(c.BookingOrchestrator, c.Repos.Bookings)
	c.EventHandler = handler.NewEventHandler(c.SchedulingService, c.Repos.Events)

	return c, nil
}

// newSagaStore prefers Redis, then PostgreSQL, then memory
func newSagaStore(cfg *config.Config, db *database.PostgresDB, redisClient *redis.Client) saga.Store {
	switch {
	case redisClient != nil:
		return redisClient.SagaStore("saga:", cfg.Redis.SagaTTL)
	case db != nil:
		return saga.NewPostgresStore(db.Pool())
	default:
		return saga.NewMemoryStore(
			saga.WithMaxInstances(cfg.Booking.SagaMemoryMax),
			saga.WithRetention(cfg.Redis.SagaTTL),
		)
	}
}
