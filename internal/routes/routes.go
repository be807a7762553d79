package routes

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/talabli/talabli-backend/internal/handlers"
	"github.com/talabli/talabli-backend/internal/middleware"
)

// SetupRoutes configures all API routes.
func SetupRoutes(app *fiber.App, whatsapp *handlers.WhatsAppHandler, dashboard *handlers.DashboardHandler, health *handlers.HealthHandler) {

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to Talabli Backend!",
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"health":        "/health",
				"api":           "/api",
				"webhook":       "/webhook/whatsapp",
				"test_whatsapp": "/test/whatsapp",
				"admin":         "/admin",
			},
		})
	})

	app.Get("/health", health.Health)

	// Dashboard API
	api := app.Group("/api")
	conversations := api.Group("/conversations")
	conversations.Get("/", dashboard.ListConversations)
	conversations.Get("/:id", dashboard.GetConversation)
	conversations.Get("/:id/messages", dashboard.GetMessages)
	conversations.Post("/:id/read", dashboard.MarkRead)
	conversations.Patch("/:id", dashboard.UpdateConversation)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")

	if os.Getenv("ENVIRONMENT") == "development" || os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true" {
		// Development: skip validation for ngrok
		webhooks.Post("/whatsapp", whatsapp.HandleWebhook)
	} else {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(), whatsapp.HandleWebhook)
	}

	// ========== TEST ROUTES (Development Only) ==========
	app.Post("/test/whatsapp", whatsapp.HandleTestWebhook)

	// ========== ADMIN ROUTES ==========
	admin := app.Group("/admin")
	admin.Post("/bot/enable", dashboard.BotEnable)
	admin.Post("/bot/disable", dashboard.BotDisable)
	admin.Get("/stats", dashboard.Stats)
}
