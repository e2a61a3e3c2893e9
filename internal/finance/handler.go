package finance

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler exposes the finance service's synchronous surface.
type Handler struct {
	Store  *Store
	Logger *zap.Logger
}

func NewHandler(store *Store, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Logger: logger}
}

// RegisterRoutes mounts the invoice endpoints.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/invoice")
	api.Get("/:id", h.GetInvoice)
}

// GetInvoice handles GET /api/invoice/:id. Passing ?by=workorder looks the
// invoice up by its originating work order instead.
func (h *Handler) GetInvoice(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id must be a positive integer",
		})
	}

	lookup := h.Store.GetInvoice
	if c.Query("by") == "workorder" {
		lookup = h.Store.GetInvoiceByWorkOrder
	}

	invoice, err := lookup(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "invoice not found",
			})
		}
		h.Logger.Error("Failed to fetch invoice",
			zap.Int("id", id),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch invoice",
		})
	}

	return c.JSON(invoice)
}
