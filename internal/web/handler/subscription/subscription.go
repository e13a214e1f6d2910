// Package subscription serves the subscribe and unsubscribe endpoints plus
// the admin view of the subscriber list.
package subscription

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/config"
	subscriberctl "github.com/podzol/podzol/internal/db/controller/subscriber"
	"github.com/podzol/podzol/internal/notify"
	"github.com/podzol/podzol/internal/web/handler"
	"github.com/podzol/podzol/internal/web/middleware"
)

// Service is the subscription handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	db       *gorm.DB
	notifier *notify.Notifier
}

// Handler is the subscription handler.
var Handler = Service{}

// Init initializes the subscription handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, notifier *notify.Notifier) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.notifier = notifier

	app.Post(handler.APIPrefix+"/subscribe", s.Subscribe)
	app.Get(handler.APIPrefix+"/unsubscribe", s.Unsubscribe)

	app.Route(handler.APIPrefix+"/subscribers", func(router fiber.Router) {
		router.Get(handler.RouterRootPath, middleware.RequireAdmin, s.List)
		router.Post("/unsubscribe-user", middleware.RequireAdmin, s.UnsubscribeUser)
	})

	return nil
}

type subscribeRequest struct {
	Email string `json:"email"`
}

// Subscribe adds an email to the list and sends a confirmation with the
// personal unsubscribe link. A failed confirmation does not undo the
// subscription.
func (s *Service) Subscribe(c *fiber.Ctx) error {
	req := new(subscribeRequest)
	if err := c.BodyParser(req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	sub, err := subscriberctl.Create(s.db, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, subscriberctl.ErrInvalidEmail):
			return handler.Error(c, fiber.StatusBadRequest, "A valid email is required")
		case errors.Is(err, subscriberctl.ErrAlreadySubscribed):
			return handler.Error(c, fiber.StatusBadRequest, "Email already subscribed")
		}
		log.Error().Err(err).Msg("failed to create subscriber")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	if s.notifier != nil && !s.notifier.SendConfirmation(sub) {
		log.Warn().Str("email", sub.Email).Msg("confirmation email not delivered")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
}

// Unsubscribe deactivates the subscription behind a token. A spent or
// unknown token reads as not found.
func (s *Service) Unsubscribe(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return handler.Error(c, fiber.StatusBadRequest, "Token is required")
	}

	if err := subscriberctl.DeactivateByToken(s.db, token); err != nil {
		if errors.Is(err, subscriberctl.ErrSubscriberNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "Subscription not found or already inactive")
		}
		log.Error().Err(err).Msg("failed to unsubscribe")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(fiber.Map{"success": true})
}

// List returns every subscriber, newest first, active or not.
func (s *Service) List(c *fiber.Ctx) error {
	subs, err := subscriberctl.List(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to list subscribers")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(subs)
}

// UnsubscribeUser deactivates a subscription by email on the admin's behalf.
func (s *Service) UnsubscribeUser(c *fiber.Ctx) error {
	req := new(subscribeRequest)
	if err := c.BodyParser(req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := subscriberctl.DeactivateByEmail(s.db, req.Email); err != nil {
		if errors.Is(err, subscriberctl.ErrSubscriberNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "Subscription not found or already inactive")
		}
		log.Error().Err(err).Msg("failed to unsubscribe user")
		return handler.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(fiber.Map{"success": true})
}
