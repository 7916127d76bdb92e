package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/recuerdame/recuerdame-backend/internal/services"
	"github.com/recuerdame/recuerdame-backend/internal/storage"
)

// ReminderHandler exposes the control-plane endpoints: reminder listing and
// ad-hoc message sends.
type ReminderHandler struct {
	store  storage.Store
	sender services.Sender
}

// NewReminderHandler creates a new reminder control-plane handler.
func NewReminderHandler(store storage.Store, sender services.Sender) *ReminderHandler {
	return &ReminderHandler{
		store:  store,
		sender: sender,
	}
}

// List returns every stored reminder, delivered ones included.
func (h *ReminderHandler) List(c *fiber.Ctx) error {
	reminders, err := h.store.ListAll()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"count":     len(reminders),
		"reminders": reminders,
	})
}

// AdHocMessagePayload is the body of POST /v1/messages.
type AdHocMessagePayload struct {
	Number  string `json:"number"`
	Message string `json:"message"`
}

// SendMessage sends a one-off WhatsApp message outside any reminder flow.
func (h *ReminderHandler) SendMessage(c *fiber.Ctx) error {
	var payload AdHocMessagePayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid payload",
		})
	}
	if payload.Number == "" || payload.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "number and message are required",
		})
	}

	if err := h.sender.SendWhatsAppMessage(payload.Number, payload.Message); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": "sent"})
}
