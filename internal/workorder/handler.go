package workorder

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/autocare/servicehub/internal/models"
)

// Handler exposes the work-order service's synchronous surface.
type Handler struct {
	Store  *Store
	Logger *zap.Logger
}

func NewHandler(store *Store, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Logger: logger}
}

// RegisterRoutes mounts the work-order endpoints.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/workorder")
	api.Get("/:id", h.GetWorkOrder)
	api.Patch("/:id/status", h.UpdateStatus)
}

// GetWorkOrder handles GET /api/workorder/:id
func (h *Handler) GetWorkOrder(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id must be a positive integer",
		})
	}

	workOrder, err := h.Store.GetWorkOrder(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "work order not found",
			})
		}
		h.Logger.Error("Failed to fetch work order",
			zap.Int("id", id),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch work order",
		})
	}

	return c.JSON(workOrder)
}

type updateStatusRequest struct {
	Status     string   `json:"status"`
	TotalPrice *float64 `json:"total_price"`
}

var validStatuses = map[string]bool{
	models.WorkOrderStatusPending:    true,
	models.WorkOrderStatusInProgress: true,
	models.WorkOrderStatusCompleted:  true,
	models.WorkOrderStatusCancelled:  true,
}

// UpdateStatus handles PATCH /api/workorder/:id/status. A completed status
// eventually produces an invoice in the finance service via the
// workorder_events exchange.
func (h *Handler) UpdateStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id must be a positive integer",
		})
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if !validStatuses[req.Status] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid status",
		})
	}

	workOrder, err := h.Store.UpdateStatus(c.Context(), uint(id), req.Status, req.TotalPrice)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "work order not found",
			})
		}
		h.Logger.Error("Failed to update work order status",
			zap.Int("id", id),
			zap.String("status", req.Status),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update work order",
		})
	}

	return c.JSON(workOrder)
}
