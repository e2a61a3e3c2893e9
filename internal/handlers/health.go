package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/autocare/servicehub/internal/database"
	"github.com/autocare/servicehub/internal/rabbitmq"
)

// HealthHandler reports the health of a service's own dependencies: its
// database and its broker connection.
type HealthHandler struct {
	DB     *gorm.DB
	RMQ    *rabbitmq.Connection
	Logger *zap.Logger
}

func NewHealthHandler(db *gorm.DB, rmq *rabbitmq.Connection, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		DB:     db,
		RMQ:    rmq,
		Logger: logger,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// HealthCheck handles the health check endpoint
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	services := make(map[string]string)
	status := "healthy"

	if h.DB != nil {
		if err := database.HealthCheck(ctx, h.DB); err != nil {
			services["database"] = "unhealthy: " + err.Error()
			status = "unhealthy"
		} else {
			services["database"] = "healthy"
		}
	}

	if h.RMQ != nil {
		if !h.RMQ.IsHealthy() {
			services["rabbitmq"] = "unhealthy: connection closed"
			status = "unhealthy"
		} else {
			services["rabbitmq"] = "healthy"
		}
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
	}

	if status == "unhealthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}

	return c.JSON(response)
}
