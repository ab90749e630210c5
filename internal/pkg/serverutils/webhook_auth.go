package serverutils

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookAuthMiddleware rejects webhook calls whose secret token header does
// not match the one registered with setWebhook. An empty secret disables the
// check.
func WebhookAuthMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if secret == "" {
			return ctx.Next()
		}
		got := ctx.Get(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid secret token"})
		}
		return ctx.Next()
	}
}
