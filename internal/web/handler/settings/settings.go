// Package settings serves the combined admin settings, the profile identity
// plus privacy mode plus outbound mail.
package settings

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/config"
	"github.com/podzol/podzol/internal/db/controller/mailconfig"
	profilectl "github.com/podzol/podzol/internal/db/controller/profile"
	"github.com/podzol/podzol/internal/db/models"
	"github.com/podzol/podzol/internal/mailer"
	"github.com/podzol/podzol/internal/vault"
	"github.com/podzol/podzol/internal/web/handler"
	"github.com/podzol/podzol/internal/web/middleware"
)

const (
	// Path is the base path of the settings endpoints.
	Path = handler.APIPrefix + "/settings"
)

// Service is the settings handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	vault     *vault.Vault
	validator *validator.Validate
}

// Handler is the settings handler.
var Handler = Service{}

// Init initializes the settings handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, v *vault.Vault) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.vault = v
	s.validator = validator.New()

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, middleware.RequireAdmin, s.Get)
		router.Post(handler.RouterRootPath, middleware.RequireAdmin, s.Post)
	})

	return nil
}

// Get returns the current settings. Secrets never leave the server; the
// response only says whether an SMTP password is stored.
func (s *Service) Get(c *fiber.Ctx) error {
	p, err := profilectl.Get(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to load profile for settings")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	resp := fiber.Map{
		"profile":          p,
		"has_smtp_pass":    false,
		"mail":             nil,
		"has_private_pass": p.PasswordHash != nil,
	}

	if mc, err := mailconfig.Get(s.db); err == nil {
		resp["mail"] = mc
		resp["has_smtp_pass"] = mc.SMTPPass != ""
	} else if !errors.Is(err, mailconfig.ErrMailConfigNotFound) {
		log.Error().Err(err).Msg("failed to load mail settings")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(resp)
}

type saveRequest struct {
	Username  string `json:"username" validate:"required,max=255"`
	Biography string `json:"biography" validate:"max=4096"`
	Pronouns  string `json:"pronouns" validate:"max=64"`
	Age       *int   `json:"age" validate:"omitempty,gte=0,lte=200"`
	Location  string `json:"location" validate:"max=255"`

	PrivacyMode     string `json:"privacy_mode" validate:"required,oneof=public private"`
	PrivatePassword string `json:"private_password" validate:"omitempty,min=4"`

	SMTPHost   string `json:"smtp_host" validate:"omitempty,hostname_rfc1123"`
	SMTPPort   int    `json:"smtp_port" validate:"omitempty,gte=1,lte=65535"`
	SMTPSecure bool   `json:"smtp_secure"`
	SMTPUser   string `json:"smtp_user" validate:"max=255"`
	SMTPPass   string `json:"smtp_pass"`
	FromEmail  string `json:"from_email" validate:"omitempty,email"`
	FromName   string `json:"from_name" validate:"max=255"`
}

// Post saves profile, privacy and mail settings in one request, then
// rebuilds the mail transport. A transport problem does not fail the save;
// it comes back as a hint.
func (s *Service) Post(c *fiber.Ctx) error {
	req := new(saveRequest)
	if err := c.BodyParser(req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return handler.Error(c, fiber.StatusBadRequest, "Invalid value for "+verrs[0].Field())
		}
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request")
	}

	passwordHash, err := s.privatePasswordHash(req)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, err.Error())
	}

	err = profilectl.SaveSettings(
		s.db,
		req.Username, req.Biography, req.Pronouns,
		req.Age,
		req.Location, req.PrivacyMode,
		passwordHash,
	)
	if err != nil {
		if errors.Is(err, profilectl.ErrProfileNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "Profile not found")
		}
		log.Error().Err(err).Msg("failed to save profile settings")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	resp := fiber.Map{"success": true}

	if req.SMTPHost != "" {
		hint, err := mailer.Configure(s.db, s.vault, &models.MailConfig{
			SMTPHost:   req.SMTPHost,
			SMTPPort:   req.SMTPPort,
			SMTPSecure: req.SMTPSecure,
			SMTPUser:   req.SMTPUser,
			FromEmail:  req.FromEmail,
			FromName:   req.FromName,
		}, req.SMTPPass)
		if err != nil {
			log.Error().Err(err).Msg("failed to save mail settings")
			return handler.Error(c, fiber.StatusInternalServerError, "Failed to save mail settings")
		}
		if hint != "" {
			resp["mail_hint"] = hint
		}
	}

	return c.JSON(resp)
}

// privatePasswordHash resolves the private password for the save. Private
// mode needs a password the first time; afterwards an empty field keeps the
// stored hash. Public mode always clears it.
func (s *Service) privatePasswordHash(req *saveRequest) (*string, error) {
	if req.PrivacyMode != models.PrivacyPrivate {
		return nil, nil
	}

	if req.PrivatePassword != "" {
		hash, err := vault.HashPassword(req.PrivatePassword)
		if err != nil {
			return nil, errors.New("failed to process password")
		}
		return &hash, nil
	}

	p, err := profilectl.Get(s.db)
	if err != nil || p.PasswordHash == nil {
		return nil, errors.New("A password is required for private mode")
	}

	return p.PasswordHash, nil
}
