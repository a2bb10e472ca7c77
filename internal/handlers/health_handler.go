package handlers

import (
	"time"

	"storefront/internal/models"
	"storefront/internal/request"
	"storefront/internal/router"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler serves liveness endpoints.
type HealthHandler struct {
	clock models.Clock
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(clock models.Clock) *HealthHandler {
	if clock == nil {
		clock = time.Now
	}
	return &HealthHandler{clock: clock}
}

// RegisterRoutes registers the API root and health routes.
func (h *HealthHandler) RegisterRoutes(r *router.Router) {
	r.Get("/", router.Public, h.HandleRoot)
	r.Get("/health", router.Public, h.HandleHealth)
}

// HandleRoot answers the bare API prefix.
func (h *HealthHandler) HandleRoot(c *fiber.Ctx, _ request.Parsed) error {
	return c.JSON(fiber.Map{"ok": true, "api": "root"})
}

// HandleHealth reports liveness with the server time.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx, _ request.Parsed) error {
	return c.JSON(fiber.Map{"ok": true, "ts": models.FormatTime(h.clock())})
}
