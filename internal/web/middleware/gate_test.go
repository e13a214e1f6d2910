package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	sessionsqlite "github.com/gofiber/storage/sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/db/controller/profile"
	"github.com/podzol/podzol/internal/db/models"
	"github.com/podzol/podzol/internal/web/session"
)

func setupTestDB(t *testing.T, privacyMode string) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	require.NoError(t, db.AutoMigrate(&models.Profile{}))

	require.NoError(t, profile.Setup(db, &models.Profile{
		Username:          "ada",
		PrivacyMode:       privacyMode,
		AdminPasswordHash: "$2a$10$fakehashfakehashfakehash",
	}))

	return db
}

func setupApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	session.Init(sessionsqlite.New(sessionsqlite.Config{Database: ":memory:"}))

	app := fiber.New()
	app.Get("/admin", RequireAdmin, func(c *fiber.Ctx) error {
		return c.SendString("admin ok")
	})
	app.Get("/gated", RequirePrivateAccess(db), func(c *fiber.Ctx) error {
		return c.SendString("gated ok")
	})

	return app
}

// sessionCookie stores data under a fresh session and returns the cookie.
func sessionCookie(t *testing.T, data *session.Data) *http.Cookie {
	t.Helper()

	id, err := session.GenerateSessionID()
	require.NoError(t, err)
	require.NoError(t, data.Write(id, time.Hour))

	return &http.Cookie{Name: session.CookieName, Value: id}
}

func TestRequireAdmin(t *testing.T) {
	db := setupTestDB(t, models.PrivacyPublic)
	app := setupApp(t, db)

	// no session
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// non-admin session
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(sessionCookie(t, &session.Data{HasPrivateAccess: true}))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// admin session
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(sessionCookie(t, &session.Data{IsAdmin: true}))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestPrivateGatePublicSite(t *testing.T) {
	db := setupTestDB(t, models.PrivacyPublic)
	app := setupApp(t, db)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/gated", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestPrivateGatePrivateSite(t *testing.T) {
	db := setupTestDB(t, models.PrivacyPrivate)
	app := setupApp(t, db)

	// anonymous visitor is asked for the password
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/gated", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "Access denied", body["error"])
	assert.Equal(t, true, body["requiresPassword"])

	// granted visitor passes
	req := httptest.NewRequest(http.MethodGet, "/gated", nil)
	req.AddCookie(sessionCookie(t, &session.Data{HasPrivateAccess: true}))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// admin passes too
	req = httptest.NewRequest(http.MethodGet, "/gated", nil)
	req.AddCookie(sessionCookie(t, &session.Data{IsAdmin: true}))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestPrivateGateReadsModePerRequest(t *testing.T) {
	db := setupTestDB(t, models.PrivacyPublic)
	app := setupApp(t, db)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/gated", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// flipping the mode applies to the very next request
	err = db.Model(&models.Profile{}).Where("id = ?", models.ProfileID).
		Update("privacy_mode", models.PrivacyPrivate).Error
	require.NoError(t, err)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/gated", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestPrivateGateMissingProfile(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Profile{}))

	app := setupApp(t, db)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/gated", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
