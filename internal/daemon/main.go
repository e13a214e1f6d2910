// Package daemon assembles the storage, mail and web services into the
// running application.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	sessionsqlite "github.com/gofiber/storage/sqlite3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/config"
	"github.com/podzol/podzol/internal/db/models"
	"github.com/podzol/podzol/internal/mailer"
	"github.com/podzol/podzol/internal/notify"
	"github.com/podzol/podzol/internal/upload"
	"github.com/podzol/podzol/internal/vault"
	"github.com/podzol/podzol/internal/web"
	websession "github.com/podzol/podzol/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service and blocks until shutdown.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DB.Path), 0o750); err != nil {
		log.Fatal().Err(err).Msg("failed to create data directory")
	}

	db, err := gorm.Open(sqlite.Open(cfg.DB.Path), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	if err = db.AutoMigrate(
		&models.Profile{},
		&models.MailConfig{},
		&models.Post{},
		&models.Comment{},
		&models.Subscriber{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	// Initialize fiber session store
	sessionStorage := sessionsqlite.New(sessionsqlite.Config{
		Database: cfg.DB.SessionPath,
		Table:    "sessions",
	})

	websession.Init(sessionStorage)

	v := vault.NewFromEnv()
	mailer.Init(db, v)

	store, err := upload.NewStore(cfg.Webserver.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open upload store")
	}

	notifier := notify.New(db, notify.SenderFunc(mailer.Send), cfg.Webserver.URL)

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db, store, v, notifier),
	}
}
