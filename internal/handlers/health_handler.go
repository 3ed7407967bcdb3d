package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"auctionbook/internal/logger"
)

// Pinger reports whether the backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness endpoint.
type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth always answers 200 while the process is up; hasDbConnection
// tells whether the store is reachable.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	connected := false
	if h.db != nil {
		if err := h.db.Ping(c.UserContext()); err != nil {
			logger.Warn("health check: database unreachable", map[string]any{"error": err.Error()})
		} else {
			connected = true
		}
	}
	return c.JSON(HealthResponse{Status: "ok", HasDBConnection: connected})
}
