package container

import (
	"context"
	"fmt"
	"time"

	"pricing-service/internal/config"
	"pricing-service/internal/domains/discount/handler"
	"pricing-service/internal/domains/discount/repository"
	"pricing-service/internal/domains/discount/service"
	infraCache "pricing-service/internal/infrastructure/cache"
	"pricing-service/internal/infrastructure/database"
	"pricing-service/internal/infrastructure/messaging"
	"pricing-service/internal/infrastructure/tracing"
	"pricing-service/pkg/cache"
	"pricing-service/pkg/jwt"
	"pricing-service/pkg/logger"
)

const displayCachePrefix = "pricing"

// ========================================
// CONTAINER STRUCT
// ========================================

// Container holds every long-lived dependency. Build order:
// config -> infrastructure -> repositories -> services -> handlers.
type Container struct {
	// Infrastructure
	Config          *config.Config
	DB              *database.PostgresDB
	Redis           *infraCache.RedisClient
	Cache           cache.Cache // nil when Redis is unreachable at boot
	JWTManager      *jwt.Manager
	Publisher       *messaging.KafkaAuditPublisher // nil when no brokers configured
	tracingShutdown tracing.ShutdownFunc

	// Repositories
	RuleStore repository.RuleStore
	AuditRepo repository.AuditRepository

	// Services
	Lifecycle       *service.LifecycleManager
	DiscountService service.ServiceInterface
	CheckoutService service.CheckoutInterface

	// Handlers
	AdminHandler  *handler.AdminHandler
	PublicHandler *handler.PublicHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer builds the dependency graph. Postgres is required; Redis and
// Kafka degrade to disabled features when unavailable.
func NewContainer() (*Container, error) {
	c := &Container{}

	// STEP 1: config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)

	// STEP 2: tracing
	shutdown, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.JaegerEndpoint,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}
	c.tracingShutdown = shutdown

	// STEP 3: database
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	if cfg.Database.MigrateOnBoot {
		if err := database.RunMigrations(dbConfig); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	db := database.NewPostgresDB(dbConfig)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db

	// STEP 4: cache (non-critical)
	c.Redis = infraCache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := c.Redis.Connect(ctx); err != nil {
		logger.Warn("Redis unavailable, display cache disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		c.Cache = infraCache.NewRedisCache(c.Redis.Client, displayCachePrefix)
	}

	// STEP 5: broker (optional)
	if len(cfg.Kafka.Brokers) > 0 {
		c.Publisher = messaging.NewKafkaAuditPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	c.initRepositories()
	c.initServices()
	c.initHandlers()

	logger.Info("Container initialized", map[string]interface{}{
		"environment":   cfg.App.Environment,
		"display_cache": c.Cache != nil,
		"publisher":     c.Publisher != nil,
	})
	return c, nil
}

func (c *Container) initRepositories() {
	c.RuleStore = repository.NewPostgresRepository(c.DB.Pool)
	c.AuditRepo = repository.NewAuditPostgresRepository(c.DB.Pool)
}

func (c *Container) initServices() {
	displayCache := service.NewActiveRulesCache(c.RuleStore, c.Cache, c.Config.Pricing.DisplayCacheTTL)

	revalidator := service.NewCartRevalidator(
		service.NewApplicabilityFilter(c.RuleStore),
		service.NewStackingResolver(),
		service.NewPriceCalculator(),
	)
	c.Lifecycle = service.NewLifecycleManager(c.RuleStore, displayCache)

	c.DiscountService = service.NewDiscountService(c.RuleStore, c.AuditRepo, revalidator, c.Lifecycle, displayCache)

	var publisher service.AuditPublisher
	if c.Publisher != nil {
		publisher = c.Publisher
	}
	c.CheckoutService = service.NewCheckoutService(revalidator, c.AuditRepo, publisher, c.Config.Pricing.StaleTolerance)
}

func (c *Container) initHandlers() {
	c.AdminHandler = handler.NewAdminHandler(c.DiscountService)
	c.PublicHandler = handler.NewPublicHandler(c.DiscountService, c.CheckoutService)
}

// Cleanup releases resources in reverse build order
func (c *Container) Cleanup() {
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			logger.Error("Failed to close Kafka writer", err)
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Error("Failed to close Redis", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	if c.tracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.tracingShutdown(ctx); err != nil {
			logger.Error("Failed to flush traces", err)
		}
	}

	logger.Info("Container cleanup completed", nil)
}
