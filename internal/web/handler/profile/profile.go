// Package profile serves the public profile and the admin edits to it.
package profile

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/config"
	profilectl "github.com/podzol/podzol/internal/db/controller/profile"
	"github.com/podzol/podzol/internal/upload"
	"github.com/podzol/podzol/internal/web/handler"
	"github.com/podzol/podzol/internal/web/middleware"
)

const (
	// Path is the base path of the profile endpoints.
	Path = handler.APIPrefix + "/profile"
)

// Service is the profile handler service.
type Service struct {
	handler.Service
	cfg   *config.Config
	db    *gorm.DB
	store *upload.Store
}

// Handler is the profile handler.
var Handler = Service{}

// Init initializes the profile handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, store *upload.Store) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.store = store

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, middleware.RequirePrivateAccess(db), s.Get)
		router.Put(handler.RouterRootPath, middleware.RequireAdmin, s.Put)
		router.Post("/picture", middleware.RequireAdmin, s.PostPicture)
	})

	return nil
}

// Get returns the profile. Password hashes never serialize.
func (s *Service) Get(c *fiber.Ctx) error {
	p, err := profilectl.Get(s.db)
	if err != nil {
		if errors.Is(err, profilectl.ErrProfileNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "Profile not found")
		}
		log.Error().Err(err).Msg("failed to load profile")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(p)
}

type updateRequest struct {
	Username  string `json:"username"`
	Biography string `json:"biography"`
	Pronouns  string `json:"pronouns"`
	Age       *int   `json:"age"`
	Location  string `json:"location"`
}

// Put updates the public identity fields.
func (s *Service) Put(c *fiber.Ctx) error {
	req := new(updateRequest)
	if err := c.BodyParser(req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	err := profilectl.UpdateIdentity(s.db, req.Username, req.Biography, req.Pronouns, req.Age, req.Location)
	if err != nil {
		switch {
		case errors.Is(err, profilectl.ErrUsernameEmpty):
			return handler.Error(c, fiber.StatusBadRequest, "Username is required")
		case errors.Is(err, profilectl.ErrProfileNotFound):
			return handler.Error(c, fiber.StatusNotFound, "Profile not found")
		}
		log.Error().Err(err).Msg("failed to update profile")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(fiber.Map{"success": true})
}

// PostPicture replaces the profile picture from a multipart upload.
func (s *Service) PostPicture(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("picture")
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "No picture uploaded")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Unreadable upload")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Unreadable upload")
	}

	public, err := s.store.Save("profile", fileHeader.Filename, data)
	if err != nil {
		log.Error().Err(err).Msg("failed to store profile picture")
		return handler.Error(c, fiber.StatusInternalServerError, "Failed to store picture")
	}

	// drop the previous picture, best effort
	if p, err := profilectl.Get(s.db); err == nil && p.ProfilePicture != "" {
		if err := s.store.Remove(p.ProfilePicture); err != nil {
			log.Warn().Err(err).Str("path", p.ProfilePicture).Msg("failed to remove old picture")
		}
	}

	if err := profilectl.SetPicture(s.db, public); err != nil {
		log.Error().Err(err).Msg("failed to save profile picture path")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(fiber.Map{"success": true, "profile_picture": public})
}
