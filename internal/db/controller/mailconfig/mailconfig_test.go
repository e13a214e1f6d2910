package mailconfig

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/db/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.MailConfig{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestGetMissing(t *testing.T) {
	db := setupTestDB(t)

	_, err := Get(db)
	require.ErrorIs(t, err, ErrMailConfigNotFound)

	_, err = Get(nil)
	require.ErrorIs(t, err, ErrDBNil)
}

func TestSetAndGet(t *testing.T) {
	db := setupTestDB(t)

	err := Set(db, &models.MailConfig{
		SMTPHost:   "smtp.example.com",
		SMTPPort:   465,
		SMTPUser:   "mailer",
		SMTPPass:   "ciphertext",
		FromEmail:  "podzol@example.com",
		FromName:   "Podzol",
		SMTPSecure: true,
	})
	require.NoError(t, err)

	cfg, err := Get(db)
	require.NoError(t, err)
	assert.Equal(t, models.MailConfigID, cfg.ID)
	assert.Equal(t, "smtp.example.com", cfg.SMTPHost)
	assert.Equal(t, 465, cfg.SMTPPort)
	assert.True(t, cfg.SMTPSecure)
}

func TestSetReplacesSingleton(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, Set(db, &models.MailConfig{SMTPHost: "first.example.com", SMTPPort: 587}))
	require.NoError(t, Set(db, &models.MailConfig{SMTPHost: "second.example.com", SMTPPort: 2525}))

	cfg, err := Get(db)
	require.NoError(t, err)
	assert.Equal(t, "second.example.com", cfg.SMTPHost)
	assert.Equal(t, 2525, cfg.SMTPPort)

	var count int64
	require.NoError(t, db.Model(&models.MailConfig{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "configuration stays a single row")
}

func TestSetDefaultsPort(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, Set(db, &models.MailConfig{SMTPHost: "smtp.example.com"}))

	cfg, err := Get(db)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSMTPPort, cfg.SMTPPort)
}
