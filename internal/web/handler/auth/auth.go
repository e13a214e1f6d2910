// Package auth handles the two login flows, the single admin account and the
// shared private-access password.
package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/config"
	"github.com/podzol/podzol/internal/db/controller/profile"
	"github.com/podzol/podzol/internal/vault"
	"github.com/podzol/podzol/internal/web/handler"
	"github.com/podzol/podzol/internal/web/session"
)

const (
	// Path is the base path of the auth endpoints.
	Path = handler.APIPrefix + "/auth"
)

// Service is the auth handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the auth handler.
var Handler = Service{}

// Init initializes the auth handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db

	app.Route(Path, func(router fiber.Router) {
		router.Post("/admin/login", s.AdminLogin)
		router.Post("/admin/logout", s.AdminLogout)
		router.Post("/private/verify", s.PrivateVerify)
	})

	return nil
}

type passwordRequest struct {
	Password string `json:"password"`
}

// AdminLogin checks the admin password and marks the session as admin. A
// failed attempt leaves the session exactly as it was.
func (s *Service) AdminLogin(c *fiber.Ctx) error {
	req := new(passwordRequest)
	if err := c.BodyParser(req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	p, err := profile.Get(s.db)
	if err != nil {
		log.Error().Err(err).Msg("admin login failed to load profile")
		return handler.Error(c, fiber.StatusUnauthorized, "Invalid password")
	}

	if !vault.CheckPassword(req.Password, p.AdminPasswordHash) {
		log.Warn().Str("ip", c.IP()).Msg("failed admin login attempt")
		return handler.Error(c, fiber.StatusUnauthorized, "Invalid password")
	}

	sess := session.Current(c)
	sess.IsAdmin = true

	if err := session.Save(c, sess, s.cfg.Webserver.Session.ExpiryTime, s.cfg.DevMode); err != nil {
		log.Error().Err(err).Msg("failed to write session")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(fiber.Map{"success": true})
}

// AdminLogout destroys the whole session, dropping private access along with
// the admin flag.
func (s *Service) AdminLogout(c *fiber.Ctx) error {
	session.Destroy(c)

	return c.JSON(fiber.Map{"success": true})
}

// PrivateVerify checks the site password and unlocks private mode for this
// session.
func (s *Service) PrivateVerify(c *fiber.Ctx) error {
	req := new(passwordRequest)
	if err := c.BodyParser(req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	p, err := profile.Get(s.db)
	if err != nil {
		log.Error().Err(err).Msg("private verify failed to load profile")
		return handler.Error(c, fiber.StatusUnauthorized, "Invalid password")
	}

	if p.PasswordHash == nil || !vault.CheckPassword(req.Password, *p.PasswordHash) {
		return handler.Error(c, fiber.StatusUnauthorized, "Invalid password")
	}

	sess := session.Current(c)
	sess.HasPrivateAccess = true

	if err := session.Save(c, sess, s.cfg.Webserver.Session.ExpiryTime, s.cfg.DevMode); err != nil {
		log.Error().Err(err).Msg("failed to write session")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(fiber.Map{"success": true})
}
