package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/autocare/servicehub/internal/booking"
	"github.com/autocare/servicehub/internal/config"
	"github.com/autocare/servicehub/internal/database"
	"github.com/autocare/servicehub/internal/handlers"
	"github.com/autocare/servicehub/internal/logger"
	"github.com/autocare/servicehub/internal/models"
	"github.com/autocare/servicehub/internal/outbox"
	"github.com/autocare/servicehub/internal/publisher"
	"github.com/autocare/servicehub/internal/rabbitmq"
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

	if err := db.AutoMigrate(&models.Appointment{}, &models.OutboxEvent{}); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// The service cannot run without its event fabric: a failed initial
	// connection is fatal, not retried past the dial backoff.
	rmq := rabbitmq.NewConnection(&cfg.RabbitMQ, "booking-service", logger.Logger)
	if err := rmq.Connect(); err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rmq.Close()

	pub := publisher.NewPublisher(rmq, logger.Logger)
	outboxStore := outbox.NewGormStore(db)

	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	relay := outbox.NewRelay(outboxStore, pub, config.LoadOutbox(), logger.Logger)
	go relay.Start(relayCtx)

	store := booking.NewStore(db, outboxStore)
	bookingHandler := booking.NewHandler(store, logger.Logger)
	healthHandler := handlers.NewHealthHandler(db, rmq, logger.Logger)

	app := fiber.New(fiber.Config{
		AppName: "Booking Service",
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
	bookingHandler.RegisterRoutes(app)

	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		logger.Info("Booking service starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down booking service")
	if err := app.Shutdown(); err != nil {
		logger.Error("Error during server shutdown", zap.Error(err))
	}
	stopRelay()

	logger.Info("Booking service stopped")
}
