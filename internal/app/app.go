// Package app wires configuration, storage, messaging and HTTP handlers into
// a runnable Fiber application.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"bazaar/internal/config"
	"bazaar/internal/handlers"
	"bazaar/internal/middleware"
	"bazaar/internal/notifications"
	"bazaar/internal/repositories"
	"bazaar/internal/services"
	"bazaar/pkg/rabbitmq"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

// App is the assembled service.
type App struct {
	Fiber      *fiber.App
	Auth       *services.AuthService
	Orders     *services.OrderService
	Products   *services.ProductService
	Dispatcher *notifications.Dispatcher

	db     *gorm.DB
	mq     *rabbitmq.Client
	redis  *redis.Client
	cancel context.CancelFunc
}

// New builds the application on db. RabbitMQ and Redis are connected only
// when their URLs are configured.
func New(cfg *config.Config, db *gorm.DB) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{db: db, cancel: cancel}

	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	shopRepo := repositories.NewGORMShopRepository(db)

	var tokens repositories.DeviceTokenStore = userRepo
	if cfg.RedisURL != "" {
		client, err := repositories.NewRedisClient(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
		tokens = repositories.NewRedisTokenCache(client, userRepo, cfg.DeviceTokenTTL)
		log.Printf("Device tokens cached in Redis (ttl %s)", cfg.DeviceTokenTTL)
	}

	var delivery notifications.Gateway = notifications.LogGateway{}
	if cfg.FCMEndpoint != "" {
		delivery = notifications.NewFCMGateway(cfg.FCMEndpoint, cfg.FCMServerKey, cfg.NotifySendTimeout)
	}

	gateway := delivery
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queues: []string{cfg.PushQueue}})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.mq = mq
		relay := notifications.NewRelay(delivery, tokens)
		if err := mq.Consume(ctx, cfg.PushQueue, relay.Handle); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to start push relay: %w", err)
		}
		gateway = notifications.NewQueueGateway(mq, cfg.PushQueue)
	}

	a.Dispatcher = notifications.NewDispatcher(tokens, shopRepo, gateway, notifications.Config{
		Workers:        cfg.NotifyWorkers,
		QueueSize:      cfg.NotifyQueueSize,
		EnqueueTimeout: cfg.NotifyEnqueueTimeout,
		SendTimeout:    cfg.NotifySendTimeout,
		CurrencySymbol: cfg.CurrencySymbol,
	})

	a.Auth = services.NewAuthService(cfg.JWTSecret)
	a.Orders = services.NewOrderService(orderRepo, productRepo, shopRepo, a.Dispatcher, services.OrderServiceConfig{
		Pricing:                cfg.Pricing,
		DefaultCity:            cfg.DefaultCity,
		OrderNumberMaxAttempts: cfg.OrderNumberMaxAttempts,
	})
	a.Products = services.NewProductService(productRepo, shopRepo, cfg.Pricing)
	dashboard := services.NewDashboardService(orderRepo, productRepo, shopRepo, cfg.EarnedStatuses)
	devices := services.NewDeviceService(tokens)

	app := fiber.New()
	app.Use(logger.New())

	apiV1 := app.Group("/api/v1", middleware.AuthRequired(a.Auth))
	handlers.NewProductHandler(a.Products).RegisterRoutes(apiV1)
	handlers.NewOrderHandler(a.Orders).RegisterRoutes(apiV1)
	handlers.NewDashboardHandler(dashboard).RegisterRoutes(apiV1)
	handlers.NewDeviceHandler(devices).RegisterRoutes(apiV1)

	app.Get("/health", a.handleHealth)
	a.Fiber = app

	log.Printf("Application ready: %s, %d notification workers", cfg.Pricing, cfg.NotifyWorkers)
	return a, nil
}

func (a *App) handleHealth(c *fiber.Ctx) error {
	status, health, dbState := fiber.StatusOK, "healthy", "connected"
	if sqlDB, err := a.db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
		status, health, dbState = fiber.StatusServiceUnavailable, "degraded", "unreachable"
	}

	mqState := "disabled"
	if a.mq != nil {
		mqState = "connected"
	}

	stats := a.Dispatcher.Stats()
	return c.Status(status).JSON(fiber.Map{
		"status":   health,
		"time":     time.Now().Format(time.RFC3339),
		"database": dbState,
		"rabbitmq": mqState,
		"notifications": fiber.Map{
			"delivered": stats.Delivered,
			"skipped":   stats.Skipped,
			"failed":    stats.Failed,
			"dropped":   stats.Dropped,
		},
	})
}

// Close drains pending notifications and releases broker and cache connections.
func (a *App) Close() {
	if a.Dispatcher != nil {
		a.Dispatcher.Close()
	}
	a.cancel()
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			log.Printf("Error closing RabbitMQ client: %v", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
	}
}
