package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/autocare/servicehub/internal/config"
	"github.com/autocare/servicehub/internal/database"
	"github.com/autocare/servicehub/internal/events"
	"github.com/autocare/servicehub/internal/finance"
	"github.com/autocare/servicehub/internal/handlers"
	"github.com/autocare/servicehub/internal/logger"
	"github.com/autocare/servicehub/internal/models"
	"github.com/autocare/servicehub/internal/rabbitmq"
	"github.com/autocare/servicehub/internal/saga"
	"github.com/autocare/servicehub/internal/subscriber"
)

func main() {
	if err := logger.Init(os.Getenv("LOG_LEVEL")); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := database.Connect(&cfg.Database, logger.Logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, logger.Logger); err != nil {
			logger.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.AutoMigrate(&models.Invoice{}); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	rmq := rabbitmq.NewConnection(&cfg.RabbitMQ, "finance-service", logger.Logger)
	if err := rmq.Connect(); err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rmq.Close()

	store := finance.NewStore(db)

	// Saga: completed work orders become pending invoices
	invoiceSaga := saga.NewInvoiceSaga(store, logger.Logger)
	sub := subscriber.NewSubscriber(rmq, events.ExchangeWorkOrder, events.QueueFinanceWorkOrder, invoiceSaga, logger.Logger)
	if err := sub.Start(); err != nil {
		logger.Fatal("Failed to start subscriber", zap.Error(err))
	}
	defer func() {
		if err := sub.Stop(); err != nil {
			logger.Error("Error stopping subscriber", zap.Error(err))
		}
	}()

	financeHandler := finance.NewHandler(store, logger.Logger)
	healthHandler := handlers.NewHealthHandler(db, rmq, logger.Logger)

	app := fiber.New(fiber.Config{
		AppName: "Finance Service",
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/health", healthHandler.HealthCheck)
	financeHandler.RegisterRoutes(app)

	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		logger.Info("Finance service starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down finance service")
	if err := app.Shutdown(); err != nil {
		logger.Error("Error during server shutdown", zap.Error(err))
	}
	if err := sub.Stop(); err != nil {
		logger.Error("Error stopping subscriber", zap.Error(err))
	}

	logger.Info("Finance service stopped")
}
