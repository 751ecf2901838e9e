package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/config"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/httpapi"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/idempotency"
	inventoryhandlers "github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/inventory/handlers"
	inventoryrepository "github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/inventory/repository"
	inventoryservice "github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/inventory/service"
	inventoryworker "github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/inventory/worker"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/logging"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/messaging"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/metrics"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/notification/mail"
	notificationservice "github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/notification/service"
	notificationworker "github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/notification/worker"
	ordershandlers "github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/orders/handlers"
	ordersrepository "github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/orders/repository"
	ordersservice "github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/orders/service"
	ordersworker "github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/orders/worker"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/payment/gateway"
	paymenthandlers "github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/payment/handlers"
	paymentrepository "github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/payment/repository"
	paymentservice "github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/payment/service"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Env, cfg.LogLevel)

	logger.Info().Msg("eda-orders starting")

	db, err := initDatabase(cfg, logging.ForComponent(logger, "database"))
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	busClient := messaging.NewClient(cfg.RabbitMQ, logging.ForComponent(logger, "rabbitmq"))
	if err := busClient.Connect(); err != nil {
		logger.Fatal().Err(err).Msg("RabbitMQ connection failed")
	}
	defer busClient.Close()

	guard := idempotency.NewGuard(rdb, logging.ForComponent(logger, "idempotency"))
	publisher := messaging.NewPublisher(busClient, logging.ForComponent(logger, "rabbitmq"))
	consumer := messaging.NewConsumer(busClient, guard, logging.ForComponent(logger, "rabbitmq"))

	// orders
	orderRepo := ordersrepository.NewOrderRepository(db)
	orderService := ordersservice.NewOrderService(orderRepo, publisher, logging.ForService(logger, "orders"))

	// inventory
	inventoryRepo := inventoryrepository.NewInventoryRepository(db)
	inventoryService := inventoryservice.NewInventoryService(inventoryRepo, logging.ForService(logger, "inventory"))

	// payment
	paymentRepo := paymentrepository.NewPaymentRepository(db)
	paymentGateway := gateway.NewSimulatedGateway(cfg.Gateway.Latency, cfg.Gateway.FailureRate)
	paymentService := paymentservice.NewPaymentService(
		paymentRepo, orderService, orderService, inventoryService,
		paymentGateway, publisher, logging.ForService(logger, "payment"))

	// notification
	mailer := mail.NewSMTPMailer(cfg.SMTP)
	notificationService := notificationservice.NewNotificationService(mailer, logging.ForService(logger, "notification"))

	// workers
	workers := []interface {
		Start(consumer *messaging.Consumer) error
	}{
		ordersworker.NewWorker(orderService, logging.ForService(logger, "orders")),
		inventoryworker.NewWorker(inventoryService, orderService, logging.ForService(logger, "inventory")),
		notificationworker.NewWorker(notificationService, orderService, logging.ForService(logger, "notification")),
	}
	for _, worker := range workers {
		if err := worker.Start(consumer); err != nil {
			logger.Fatal().Err(err).Msg("worker start failed")
		}
	}

	// metrics endpoint on its own port
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	app := setupFiberApp()
	api := app.Group("/api/v1")
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	ordershandlers.NewOrderHandler(orderService).Register(api)
	inventoryhandlers.NewInventoryHandler(inventoryService).Register(api)
	paymenthandlers.NewPaymentHandler(paymentService).Register(api)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info().Msg("eda-orders shutting down")
		if err := app.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("http shutdown error")
		}
	}()

	logger.Info().Str("port", cfg.HTTPPort).Msg("http server listening")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.Fatal().Err(err).Msg("http server failed")
	}
}

func initDatabase(cfg *config.Config, logger zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Postgres.DSN())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Str("database", cfg.Postgres.Database).Msg("connected to Postgres")
	return db, nil
}

func setupFiberApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "eda-orders",
		ErrorHandler: httpapi.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${method} ${path} - ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))

	return app
}
