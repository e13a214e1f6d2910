// Package comment serves per-post comments and their admin moderation.
package comment

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/config"
	commentctl "github.com/podzol/podzol/internal/db/controller/comment"
	postctl "github.com/podzol/podzol/internal/db/controller/post"
	"github.com/podzol/podzol/internal/web/handler"
	"github.com/podzol/podzol/internal/web/middleware"
)

// Service is the comment handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the comment handler.
var Handler = Service{}

// Init initializes the comment handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db

	gate := middleware.RequirePrivateAccess(db)

	app.Route(handler.APIPrefix+"/posts/:id/comments", func(router fiber.Router) {
		router.Get(handler.RouterRootPath, gate, s.List)
		router.Post(handler.RouterRootPath, gate, s.Post)
	})

	app.Route(handler.APIPrefix+"/comments", func(router fiber.Router) {
		router.Get(handler.RouterRootPath, middleware.RequireAdmin, s.ListAll)
		router.Delete("/:id", middleware.RequireAdmin, s.Delete)
	})

	return nil
}

func parseID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}

// List returns the approved comments of one published post, oldest first.
func (s *Service) List(c *fiber.Ctx) error {
	postID, err := parseID(c)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid post id")
	}

	if _, err := postctl.Get(s.db, postID); err != nil {
		if errors.Is(err, postctl.ErrPostNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "Post not found")
		}
		log.Error().Err(err).Msg("failed to load post for comments")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	comments, err := commentctl.ListApproved(s.db, postID)
	if err != nil {
		log.Error().Err(err).Msg("failed to list comments")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(comments)
}

type createRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Post adds a comment to a published post.
func (s *Service) Post(c *fiber.Ctx) error {
	postID, err := parseID(c)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid post id")
	}

	req := new(createRequest)
	if err := c.BodyParser(req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if _, err := postctl.Get(s.db, postID); err != nil {
		if errors.Is(err, postctl.ErrPostNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "Post not found")
		}
		log.Error().Err(err).Msg("failed to load post for comment")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	comment, err := commentctl.Create(s.db, postID, req.Name, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, commentctl.ErrNameRequired):
			return handler.Error(c, fiber.StatusBadRequest, "Name is required")
		case errors.Is(err, commentctl.ErrContentRequired):
			return handler.Error(c, fiber.StatusBadRequest, "Comment content is required")
		case errors.Is(err, commentctl.ErrContentTooLong):
			return handler.Error(c, fiber.StatusBadRequest, "Comment is too long")
		}
		log.Error().Err(err).Msg("failed to create comment")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "comment": comment})
}

// ListAll returns every comment with its post title, newest first.
func (s *Service) ListAll(c *fiber.Ctx) error {
	comments, err := commentctl.ListAll(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to list all comments")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(comments)
}

// Delete removes one comment.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid comment id")
	}

	if err := commentctl.Delete(s.db, id); err != nil {
		if errors.Is(err, commentctl.ErrCommentNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "Comment not found")
		}
		log.Error().Err(err).Msg("failed to delete comment")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(fiber.Map{"success": true})
}
