package booking

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/autocare/servicehub/internal/models"
)

// Handler exposes the booking service's synchronous surface.
type Handler struct {
	Store  *Store
	Logger *zap.Logger
}

func NewHandler(store *Store, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Logger: logger}
}

// RegisterRoutes mounts the booking endpoints. Paths keep their gateway
// prefixes because the gateway forwards requests unmodified.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/booking")
	api.Post("/appointments", h.CreateAppointment)
	api.Get("/appointments/:id", h.GetAppointment)
}

type createAppointmentRequest struct {
	UserID          uint      `json:"user_id"`
	VehicleID       uint      `json:"vehicle_id"`
	ServiceCenterID uint      `json:"service_center_id"`
	Notes           string    `json:"notes"`
	ScheduledAt     time.Time `json:"scheduled_at"`
}

// CreateAppointment handles POST /api/booking/appointments
func (h *Handler) CreateAppointment(c *fiber.Ctx) error {
	var req createAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	scheduledAt := req.ScheduledAt
	if scheduledAt.IsZero() {
		scheduledAt = time.Now().UTC()
	}

	appointment := &models.Appointment{
		UserID:          req.UserID,
		VehicleID:       req.VehicleID,
		ServiceCenterID: req.ServiceCenterID,
		Notes:           req.Notes,
		Status:          "scheduled",
		ScheduledAt:     scheduledAt,
	}

	if err := h.Store.CreateAppointment(c.Context(), appointment); err != nil {
		h.Logger.Error("Failed to create appointment",
			zap.Uint("user_id", req.UserID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create appointment",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(appointment)
}

// GetAppointment handles GET /api/booking/appointments/:id
func (h *Handler) GetAppointment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id must be a positive integer",
		})
	}

	appointment, err := h.Store.GetAppointment(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "appointment not found",
			})
		}
		h.Logger.Error("Failed to fetch appointment",
			zap.Int("id", id),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch appointment",
		})
	}

	return c.JSON(appointment)
}
