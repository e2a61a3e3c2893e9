package gateway

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/autocare/servicehub/internal/config"
)

// Route maps one URL path prefix to a backend base address.
type Route struct {
	Prefix string
	Target string
}

// BuildRoutes assembles the route table. Matching walks this slice in order
// and the first matching prefix wins; entries are immutable after start.
func BuildRoutes(cfg *config.GatewayConfig) []Route {
	return []Route{
		{Prefix: "/api/auth", Target: cfg.AuthURL},
		{Prefix: "/api/booking", Target: cfg.BookingURL},
		{Prefix: "/api/service-center", Target: cfg.BookingURL},
		{Prefix: "/api/finance", Target: cfg.FinanceURL},
		{Prefix: "/api/invoice", Target: cfg.FinanceURL},
		{Prefix: "/api/inventory", Target: cfg.InventoryURL},
		{Prefix: "/api/notification", Target: cfg.NotificationURL},
		{Prefix: "/api/vehicle", Target: cfg.VehicleURL},
		{Prefix: "/api/workorder", Target: cfg.WorkOrderURL},
		{Prefix: "/api/chat", Target: cfg.ChatURL},
	}
}

// Router terminates every inbound client request and forwards it unmodified
// to the backend owning the path prefix. The gateway performs no retries: a
// backend error is relayed as-is, and a fixed per-request timeout keeps one
// slow backend from exhausting gateway-side connection capacity.
type Router struct {
	routes  []Route
	timeout time.Duration
	logger  *zap.Logger
}

func NewRouter(routes []Route, timeout time.Duration, logger *zap.Logger) *Router {
	return &Router{
		routes:  routes,
		timeout: timeout,
		logger:  logger,
	}
}

// Forward proxies the request to the matched backend, relaying the response
// verbatim. Timeout maps to 504, any other backend failure to 502, and an
// unregistered prefix to 404.
func (r *Router) Forward(c *fiber.Ctx) error {
	path := c.Path()

	for _, route := range r.routes {
		if !strings.HasPrefix(path, route.Prefix) {
			continue
		}

		target := route.Target + c.OriginalURL()
		if err := proxy.DoTimeout(c, target, r.timeout); err != nil {
			if errors.Is(err, fasthttp.ErrTimeout) {
				r.logger.Error("Backend timed out",
					zap.String("prefix", route.Prefix),
					zap.String("target", route.Target),
					zap.String("path", path),
					zap.Duration("timeout", r.timeout),
				)
				return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
					"error": "backend timed out",
				})
			}
			r.logger.Error("Backend request failed",
				zap.String("prefix", route.Prefix),
				zap.String("target", route.Target),
				zap.String("path", path),
				zap.Error(err),
			)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "backend unavailable",
			})
		}

		return nil
	}

	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "no backend registered for path",
	})
}

// SetupRoutes mounts the liveness endpoint and the catch-all forwarder.
func SetupRoutes(app *fiber.App, router *Router) {
	app.Get("/health", Liveness)
	app.Use(router.Forward)
}

// Liveness handles GET /health with a static ok payload.
func Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
