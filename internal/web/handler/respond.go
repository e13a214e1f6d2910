package handler

import "github.com/gofiber/fiber/v2"

// Error writes the uniform JSON error envelope.
func Error(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
