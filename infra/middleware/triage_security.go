package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// SecurityHeaders adds security headers to all responses
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Prevent MIME type sniffing
		c.Set("X-Content-Type-Options", "nosniff")

		// Control referrer information
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		return c.Next()
	}
}

// CORS opens the API to any origin and answers preflight requests itself.
func CORS() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		c.Set(fiber.HeaderAccessControlAllowMethods, "POST, OPTIONS")
		c.Set(fiber.HeaderAccessControlAllowHeaders, "Content-Type")

		if c.Method() == fiber.MethodOptions {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "CORS OK"})
		}
		return c.Next()
	}
}
