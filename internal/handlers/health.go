package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/talabli/talabli-backend/internal/services"
)

// HealthHandler reports service health for monitoring.
type HealthHandler struct {
	sessions      *services.SessionStore
	twilioUp      bool
	databaseCheck func() error
}

// NewHealthHandler creates a health handler. databaseCheck may be nil when
// running on the in-memory store.
func NewHealthHandler(sessions *services.SessionStore, twilioUp bool, databaseCheck func() error) *HealthHandler {
	return &HealthHandler{sessions: sessions, twilioUp: twilioUp, databaseCheck: databaseCheck}
}

// Health returns overall status plus per-dependency readiness. Redis being
// down does not make the service unhealthy: session persistence degrades
// to a cache miss by design.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	statusCode := fiber.StatusOK

	dbHealthy := true
	if h.databaseCheck != nil {
		if err := h.databaseCheck(); err != nil {
			dbHealthy = false
			status = "unhealthy"
			statusCode = fiber.StatusServiceUnavailable
		}
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status": status,
		"services": fiber.Map{
			"database": dbHealthy,
			"redis":    h.sessions.Ready(ctx),
			"twilio":   h.twilioUp,
		},
	})
}
