// Package web wires the fiber application, its middlewares and handlers.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/config"
	fiberlogger "github.com/podzol/podzol/internal/logger/adapter/fiber"
	"github.com/podzol/podzol/internal/notify"
	"github.com/podzol/podzol/internal/upload"
	"github.com/podzol/podzol/internal/vault"
	"github.com/podzol/podzol/internal/web/handler"
	authhandler "github.com/podzol/podzol/internal/web/handler/auth"
	commenthandler "github.com/podzol/podzol/internal/web/handler/comment"
	posthandler "github.com/podzol/podzol/internal/web/handler/post"
	profilehandler "github.com/podzol/podzol/internal/web/handler/profile"
	setuphandler "github.com/podzol/podzol/internal/web/handler/setup"
	settingshandler "github.com/podzol/podzol/internal/web/handler/settings"
	subscriptionhandler "github.com/podzol/podzol/internal/web/handler/subscription"
)

const (
	// CheckAlivePath answers load balancer probes.
	CheckAlivePath = handler.APIPrefix + "/health"

	// maxBodySize bounds multipart uploads.
	maxBodySize = 32 * 1024 * 1024
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: fail the health endpoint first so
	// the LB stops routing here before the listener goes away.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB, store *upload.Store, v *vault.Vault, notifier *notify.Notifier) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        "Podzol",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			BodyLimit:      maxBodySize,
		},
	)

	// access logging
	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	service := &Service{
		cfg: cfg,
		App: app,
		db:  db,
	}
	service.alive.Store(true)

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.JSON(fiber.Map{"status": "ok"})
	})

	// init handlers (they register their own routes with access checks)
	mustInit := func(name string, err error) {
		if err != nil {
			log.Fatal().Err(err).Str("handler", name).Msg("handler init failed")
		}
	}

	mustInit("setup", setuphandler.Handler.Init(app, cfg, db))
	mustInit("auth", authhandler.Handler.Init(app, cfg, db))
	mustInit("profile", profilehandler.Handler.Init(app, cfg, db, store))
	mustInit("post", posthandler.Handler.Init(app, cfg, db, store, notifier))
	mustInit("comment", commenthandler.Handler.Init(app, cfg, db))
	mustInit("subscription", subscriptionhandler.Handler.Init(app, cfg, db, notifier))
	mustInit("settings", settingshandler.Handler.Init(app, cfg, db, v))

	// uploaded files
	if store != nil {
		app.Static(upload.PublicPrefix, store.Root())
	}

	// frontend assets with an SPA fallback for client side routes
	if cfg.Webserver.FrontendDir != "" {
		app.Static("/", cfg.Webserver.FrontendDir)

		index := filepath.Join(cfg.Webserver.FrontendDir, "index.html")
		app.Get("/*", func(c *fiber.Ctx) error {
			if strings.HasPrefix(c.Path(), handler.APIPrefix) {
				return c.Next()
			}

			return c.SendFile(index)
		})
	}

	return service
}
