// Package post serves the post CRUD endpoints and kicks off subscriber
// fan-out on publish.
package post

import (
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/config"
	postctl "github.com/podzol/podzol/internal/db/controller/post"
	"github.com/podzol/podzol/internal/db/models"
	"github.com/podzol/podzol/internal/notify"
	"github.com/podzol/podzol/internal/upload"
	"github.com/podzol/podzol/internal/web/handler"
	"github.com/podzol/podzol/internal/web/middleware"
	"github.com/podzol/podzol/internal/web/session"
)

const (
	// Path is the base path of the post endpoints.
	Path = handler.APIPrefix + "/posts"
)

// Service is the post handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	db       *gorm.DB
	store    *upload.Store
	notifier *notify.Notifier
}

// Handler is the post handler.
var Handler = Service{}

// Init initializes the post handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, store *upload.Store, notifier *notify.Notifier) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.store = store
	s.notifier = notifier

	gate := middleware.RequirePrivateAccess(db)

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, gate, s.List)
		router.Get("/:id", gate, s.Get)
		router.Post(handler.RouterRootPath, middleware.RequireAdmin, s.Post)
		router.Put("/:id", middleware.RequireAdmin, s.Put)
		router.Delete("/:id", middleware.RequireAdmin, s.Delete)
	})

	return nil
}

func parseID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}

// List returns published posts, newest first. Link posts stay hidden from
// anyone but the admin.
func (s *Service) List(c *fiber.Ctx) error {
	isAdmin := session.Current(c).IsAdmin

	posts, err := postctl.List(s.db, c.Query("type"), isAdmin)
	if err != nil {
		log.Error().Err(err).Msg("failed to list posts")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(posts)
}

// Get returns one published post.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid post id")
	}

	p, err := postctl.Get(s.db, id)
	if err != nil {
		if errors.Is(err, postctl.ErrPostNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "Post not found")
		}
		log.Error().Err(err).Msg("failed to load post")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(p)
}

// Post creates a post from a multipart form, storing any uploaded images.
// The response does not wait for subscriber fan-out.
func (s *Service) Post(c *fiber.Ctx) error {
	p := &models.Post{
		Type:            c.FormValue("type"),
		Title:           c.FormValue("title"),
		Content:         c.FormValue("content"),
		LinkURL:         c.FormValue("link_url"),
		LinkTitle:       c.FormValue("link_title"),
		LinkDescription: c.FormValue("link_description"),
		Images:          models.ImageList{},
	}

	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, fileHeader := range form.File["images"] {
			file, err := fileHeader.Open()
			if err != nil {
				return handler.Error(c, fiber.StatusBadRequest, "Unreadable upload")
			}

			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				return handler.Error(c, fiber.StatusBadRequest, "Unreadable upload")
			}

			public, err := s.store.Save("posts", fileHeader.Filename, data)
			if err != nil {
				log.Error().Err(err).Msg("failed to store post image")
				return handler.Error(c, fiber.StatusInternalServerError, "Failed to store image")
			}

			p.Images = append(p.Images, public)
		}
	}

	if err := postctl.Create(s.db, p); err != nil {
		if errors.Is(err, postctl.ErrInvalidType) {
			return handler.Error(c, fiber.StatusBadRequest, "Invalid post type")
		}
		log.Error().Err(err).Msg("failed to create post")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	if s.notifier != nil {
		s.notifier.NotifyPostAsync(p.ID)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "post": p})
}

type updateRequest struct {
	Title           string `json:"title"`
	Content         string `json:"content"`
	LinkURL         string `json:"link_url"`
	LinkTitle       string `json:"link_title"`
	LinkDescription string `json:"link_description"`
}

// Put edits the text fields of a post. Images and type are fixed at creation.
func (s *Service) Put(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid post id")
	}

	req := new(updateRequest)
	if err := c.BodyParser(req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	err = postctl.Update(s.db, id, req.Title, req.Content, req.LinkURL, req.LinkTitle, req.LinkDescription)
	if err != nil {
		if errors.Is(err, postctl.ErrPostNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "Post not found")
		}
		log.Error().Err(err).Msg("failed to update post")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(fiber.Map{"success": true})
}

// Delete removes a post and its stored images. Image removal is best effort.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid post id")
	}

	images, err := postctl.Delete(s.db, id)
	if err != nil {
		if errors.Is(err, postctl.ErrPostNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "Post not found")
		}
		log.Error().Err(err).Msg("failed to delete post")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	if s.store != nil {
		for _, image := range images {
			if err := s.store.Remove(image); err != nil {
				log.Warn().Err(err).Str("path", image).Msg("failed to remove post image")
			}
		}
	}

	return c.JSON(fiber.Map{"success": true})
}
