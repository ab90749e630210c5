package controller

import (
	"ai-studybot-be/internal/pkg/logger"
	"ai-studybot-be/internal/service"
	"ai-studybot-be/pkg/telegram"

	"github.com/gofiber/fiber/v2"
)

type IBotController interface {
	RegisterRoutes(r fiber.Router, middleware ...fiber.Handler)
	HandleWebhook(ctx *fiber.Ctx) error
}

type botController struct {
	conversation service.IConversationService
	logger       logger.ILogger
}

func NewBotController(conversation service.IConversationService, log logger.ILogger) IBotController {
	return &botController{conversation: conversation, logger: log}
}

func (c *botController) RegisterRoutes(r fiber.Router, middleware ...fiber.Handler) {
	h := r.Group("/bot/v1")
	for _, m := range middleware {
		h.Use(m)
	}
	h.Post("/webhook", c.HandleWebhook)
}

// HandleWebhook accepts one Bot API update. Processing failures are logged
// but still acknowledged with 200: Telegram would otherwise redeliver the
// same update, and ours are not safe to replay.
func (c *botController) HandleWebhook(ctx *fiber.Ctx) error {
	var update telegram.Update
	if err := ctx.BodyParser(&update); err != nil {
		c.logger.Warn("controller", "Malformed webhook payload", map[string]interface{}{
			"error": err.Error(),
		})
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid update payload"})
	}

	if err := c.conversation.HandleUpdate(ctx.Context(), &update); err != nil {
		c.logger.Error("controller", "Failed to process update", map[string]interface{}{
			"update_id": update.UpdateID,
			"error":     err.Error(),
		})
	}
	return ctx.SendStatus(fiber.StatusOK)
}
