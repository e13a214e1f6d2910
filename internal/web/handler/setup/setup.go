// Package setup exposes the one-time installation endpoints.
package setup

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/config"
	"github.com/podzol/podzol/internal/db/controller/profile"
	"github.com/podzol/podzol/internal/db/models"
	"github.com/podzol/podzol/internal/vault"
	"github.com/podzol/podzol/internal/web/handler"
)

const (
	// Path is the base path of the setup endpoints.
	Path = handler.APIPrefix + "/setup"
)

// Service is the setup handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the setup handler.
var Handler = Service{}

// Init initializes the setup handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db

	app.Route(Path, func(router fiber.Router) {
		router.Get("/check", s.Check)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Check reports whether the site has been set up yet.
func (s *Service) Check(c *fiber.Ctx) error {
	done, err := profile.IsSetupComplete(s.db)
	if err != nil {
		log.Error().Err(err).Msg("setup check failed")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(fiber.Map{"isSetupComplete": done})
}

type setupRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Biography string `json:"biography"`
	Pronouns  string `json:"pronouns"`
	Age       *int   `json:"age"`
	Location  string `json:"location"`
}

// Post performs the one-time setup. A second call always fails and never
// mutates the stored profile.
func (s *Service) Post(c *fiber.Ctx) error {
	req := new(setupRequest)
	if err := c.BodyParser(req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return handler.Error(c, fiber.StatusBadRequest, "Username and password are required")
	}

	hash, err := vault.HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash admin password")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	p := &models.Profile{
		Username:          req.Username,
		Biography:         req.Biography,
		Pronouns:          req.Pronouns,
		Age:               req.Age,
		Location:          req.Location,
		PrivacyMode:       models.PrivacyPublic,
		AdminPasswordHash: hash,
	}

	if err := profile.Setup(s.db, p); err != nil {
		if errors.Is(err, profile.ErrSetupComplete) {
			return handler.Error(c, fiber.StatusBadRequest, "Setup already completed")
		}
		log.Error().Err(err).Msg("setup failed")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	log.Info().Str("username", req.Username).Msg("site setup completed")

	return c.JSON(fiber.Map{"success": true})
}
