package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/talabli/talabli-backend/internal/models"
	"github.com/talabli/talabli-backend/internal/services"
)

// DashboardHandler serves the agent dashboard API: conversation list,
// message history, read state and per-conversation settings.
type DashboardHandler struct {
	conversations *services.ConversationStore
	carts         *services.CartStore
	flags         *services.BotFlags
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(conversations *services.ConversationStore, carts *services.CartStore, flags *services.BotFlags) *DashboardHandler {
	return &DashboardHandler{conversations: conversations, carts: carts, flags: flags}
}

// ListConversations returns all conversations, newest activity first.
func (h *DashboardHandler) ListConversations(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"conversations": h.conversations.ListConversations(),
	})
}

// GetConversation returns a single conversation with its cart snapshot.
func (h *DashboardHandler) GetConversation(c *fiber.Ctx) error {
	id := c.Params("id")
	conv := h.conversations.GetConversation(id)
	if conv == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "conversation not found",
		})
	}

	cart := h.carts.GetCart(id)
	total, currency := services.CalculateCartTotal(cart)
	return c.JSON(fiber.Map{
		"conversation": conv,
		"cart":         cart,
		"cart_total":   total,
		"currency":     currency,
	})
}

// GetMessages returns the full ordered message log of a conversation.
func (h *DashboardHandler) GetMessages(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"messages": h.conversations.GetMessages(c.Params("id")),
	})
}

// MarkRead zeroes the unread counter of a conversation.
func (h *DashboardHandler) MarkRead(c *fiber.Ctx) error {
	h.conversations.MarkConversationRead(c.Params("id"))
	return c.JSON(fiber.Map{"success": true})
}

// UpdateConversation applies a partial update (name, status, bot_active).
func (h *DashboardHandler) UpdateConversation(c *fiber.Ctx) error {
	var upd models.ConversationUpdate
	if err := c.BodyParser(&upd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid update payload",
		})
	}

	if h.conversations.GetConversation(c.Params("id")) == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "conversation not found",
		})
	}

	h.conversations.SetConversationData(c.Params("id"), upd)
	return c.JSON(fiber.Map{
		"conversation": h.conversations.GetConversation(c.Params("id")),
	})
}

// BotEnable / BotDisable flip the global bot toggle.
func (h *DashboardHandler) BotEnable(c *fiber.Ctx) error {
	h.flags.SetEnabled(true)
	return c.JSON(fiber.Map{"bot_enabled": true})
}

func (h *DashboardHandler) BotDisable(c *fiber.Ctx) error {
	h.flags.SetEnabled(false)
	return c.JSON(fiber.Map{"bot_enabled": false})
}

// Stats reports the live state surface for monitoring.
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"conversations": len(h.conversations.ListConversations()),
		"active_carts":  h.carts.ActiveCartsCount(),
		"bot_enabled":   h.flags.Enabled(),
		"welcomed":      h.flags.WelcomedCount(),
	})
}
