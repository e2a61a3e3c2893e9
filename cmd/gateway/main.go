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
	"github.com/autocare/servicehub/internal/gateway"
	"github.com/autocare/servicehub/internal/logger"
)

func main() {
	if err := logger.Init(os.Getenv("LOG_LEVEL")); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := config.LoadGateway()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	router := gateway.NewRouter(gateway.BuildRoutes(cfg), cfg.RequestTimeout, logger.Logger)

	app := fiber.New(fiber.Config{
		AppName: "AutoCare Gateway",
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

	gateway.SetupRoutes(app, router)

	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		logger.Info("Gateway starting",
			zap.String("address", addr),
			zap.Duration("request_timeout", cfg.RequestTimeout),
		)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start gateway", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gateway")
	if err := app.Shutdown(); err != nil {
		logger.Error("Error during gateway shutdown", zap.Error(err))
	}

	logger.Info("Gateway stopped")
}
