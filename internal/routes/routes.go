package routes

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/recuerdame/recuerdame-backend/internal/handlers"
	"github.com/recuerdame/recuerdame-backend/internal/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, whatsapp *handlers.WhatsAppHandler, reminders *handlers.ReminderHandler, health *handlers.HealthHandler) {

	app.Get("/health", health.Check)

	// API routes
	api := app.Group("/api")
	api.Get("/reminders", reminders.List)

	// Ad-hoc sends (control plane, from the original deployment)
	app.Post("/v1/messages", reminders.SendMessage)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")

	// WhatsApp webhook: signature validation is skipped in development so
	// ngrok-style tunnels work.
	if os.Getenv("ENVIRONMENT") == "development" || os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true" {
		webhooks.Post("/whatsapp", whatsapp.HandleWebhook)
		println("⚠️  WhatsApp webhook validation DISABLED for development")
	} else {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(), whatsapp.HandleWebhook)
	}

	// Test WhatsApp endpoint (for development)
	app.Post("/test/whatsapp", whatsapp.HandleTestWebhook)
}
