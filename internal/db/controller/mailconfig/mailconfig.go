// Package mailconfig persists the singleton outbound SMTP configuration.
package mailconfig

import (
	"errors"

	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/db/models"
)

var (
	// ErrMailConfigNotFound is returned when no mail configuration was saved yet.
	ErrMailConfigNotFound = errors.New("mail configuration not found")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves the mail configuration row.
func Get(db *gorm.DB) (*models.MailConfig, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var cfg models.MailConfig
	result := db.First(&cfg, models.MailConfigID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMailConfigNotFound
		}
		return nil, result.Error
	}

	return &cfg, nil
}

// Set replaces the mail configuration wholesale (upsert at the fixed id).
// The password must already be encrypted by the caller.
func Set(db *gorm.DB, cfg *models.MailConfig) error {
	if db == nil {
		return ErrDBNil
	}

	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = models.DefaultSMTPPort
	}

	cfg.ID = models.MailConfigID

	return db.Save(cfg).Error
}
