package setup

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/config"
	"github.com/podzol/podzol/internal/db/controller/profile"
	"github.com/podzol/podzol/internal/db/models"
	"github.com/podzol/podzol/internal/vault"
)

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")
	require.NoError(t, db.AutoMigrate(&models.Profile{}))

	app := fiber.New()
	h := &Service{}
	require.NoError(t, h.Init(app, &config.Config{}, db))

	return app, db
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))

	return body
}

func TestCheck(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/setup/check", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decodeBody(t, resp)["isSetupComplete"])

	resp = postJSON(t, app, "/api/setup", fiber.Map{"username": "ada", "password": "admin-secret"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/setup/check", nil))
	require.NoError(t, err)
	assert.Equal(t, true, decodeBody(t, resp)["isSetupComplete"])
}

func TestSetup(t *testing.T) {
	app, db := setupTestApp(t)

	resp := postJSON(t, app, "/api/setup", fiber.Map{
		"username":  "ada",
		"password":  "admin-secret",
		"biography": "writing about compilers",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	p, err := profile.Get(db)
	require.NoError(t, err)
	assert.Equal(t, "ada", p.Username)
	assert.True(t, p.IsSetupComplete)
	assert.True(t, vault.CheckPassword("admin-secret", p.AdminPasswordHash))
	assert.NotEqual(t, "admin-secret", p.AdminPasswordHash)
}

func TestSetupOnlyOnce(t *testing.T) {
	app, db := setupTestApp(t)

	resp := postJSON(t, app, "/api/setup", fiber.Map{"username": "ada", "password": "admin-secret"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = postJSON(t, app, "/api/setup", fiber.Map{"username": "mallory", "password": "hacked"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Setup already completed", decodeBody(t, resp)["error"])

	p, err := profile.Get(db)
	require.NoError(t, err)
	assert.Equal(t, "ada", p.Username)
}

func TestSetupValidation(t *testing.T) {
	app, _ := setupTestApp(t)

	tests := []struct {
		name string
		body fiber.Map
	}{
		{name: "missing username", body: fiber.Map{"password": "x"}},
		{name: "missing password", body: fiber.Map{"username": "ada"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, app, "/api/setup", tt.body)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		})
	}
}
