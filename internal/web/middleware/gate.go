// Package middleware holds the access checks in front of the JSON API.
package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/db/controller/profile"
	"github.com/podzol/podzol/internal/db/models"
	"github.com/podzol/podzol/internal/web/session"
)

// RequireAdmin rejects requests whose session is not an admin session.
func RequireAdmin(c *fiber.Ctx) error {
	if !session.Current(c).IsAdmin {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	return c.Next()
}

// RequirePrivateAccess enforces the site privacy mode. The mode is read from
// the database on every request so a settings change applies immediately.
// Admins always pass.
func RequirePrivateAccess(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := profile.Get(db)
		if err != nil {
			log.Error().Err(err).Msg("privacy check failed to load profile")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Profile not configured",
			})
		}

		if p.PrivacyMode != models.PrivacyPrivate {
			return c.Next()
		}

		sess := session.Current(c)
		if sess.IsAdmin || sess.HasPrivateAccess {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":            "Access denied",
			"requiresPassword": true,
		})
	}
}
