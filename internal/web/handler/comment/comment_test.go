package comment

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	sessionsqlite "github.com/gofiber/storage/sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/config"
	commentctl "github.com/podzol/podzol/internal/db/controller/comment"
	"github.com/podzol/podzol/internal/db/controller/profile"
	"github.com/podzol/podzol/internal/db/models"
	"github.com/podzol/podzol/internal/web/session"
)

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")
	require.NoError(t, db.AutoMigrate(&models.Profile{}, &models.Post{}, &models.Comment{}))

	require.NoError(t, profile.Setup(db, &models.Profile{
		Username:          "ada",
		PrivacyMode:       models.PrivacyPublic,
		AdminPasswordHash: "$2a$10$fakehashfakehashfakehash",
	}))

	session.Init(sessionsqlite.New(sessionsqlite.Config{Database: ":memory:"}))

	app := fiber.New()
	h := &Service{}
	require.NoError(t, h.Init(app, &config.Config{}, db))

	return app, db
}

func seedPost(t *testing.T, db *gorm.DB) uint64 {
	t.Helper()

	p := models.Post{Type: models.PostTypeStatus, Title: "a post", Content: "hi", IsPublished: true}
	require.NoError(t, db.Create(&p).Error)

	return p.ID
}

func adminCookie(t *testing.T) *http.Cookie {
	t.Helper()

	id, err := session.GenerateSessionID()
	require.NoError(t, err)
	data := &session.Data{IsAdmin: true}
	require.NoError(t, data.Write(id, time.Hour))

	return &http.Cookie{Name: session.CookieName, Value: id}
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

func TestPostAndListComments(t *testing.T) {
	app, db := setupTestApp(t)
	postID := seedPost(t, db)
	path := "/api/posts/" + strconv.FormatUint(postID, 10) + "/comments"

	resp := postJSON(t, app, path, fiber.Map{"name": "carol", "content": "nice one"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var comments []models.Comment
	require.NoError(t, json.Unmarshal(raw, &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, "carol", comments[0].Name)
}

func TestPostCommentValidation(t *testing.T) {
	app, db := setupTestApp(t)
	postID := seedPost(t, db)
	path := "/api/posts/" + strconv.FormatUint(postID, 10) + "/comments"

	tests := []struct {
		name string
		body fiber.Map
		want int
	}{
		{name: "missing name", body: fiber.Map{"content": "hi"}, want: fiber.StatusBadRequest},
		{name: "missing content", body: fiber.Map{"name": "carol"}, want: fiber.StatusBadRequest},
		{
			name: "too long",
			body: fiber.Map{"name": "carol", "content": strings.Repeat("a", models.MaxCommentLength+1)},
			want: fiber.StatusBadRequest,
		},
		{
			name: "at the limit",
			body: fiber.Map{"name": "carol", "content": strings.Repeat("a", models.MaxCommentLength)},
			want: fiber.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, app, path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestPostCommentUnknownPost(t *testing.T) {
	app, _ := setupTestApp(t)

	resp := postJSON(t, app, "/api/posts/9999/comments", fiber.Map{"name": "carol", "content": "hi"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestListAllRequiresAdmin(t *testing.T) {
	app, db := setupTestApp(t)
	postID := seedPost(t, db)

	_, err := commentctl.Create(db, postID, "carol", "hello")
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/comments", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/comments", nil)
	req.AddCookie(adminCookie(t))
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var all []models.CommentWithPost
	require.NoError(t, json.Unmarshal(raw, &all))
	require.Len(t, all, 1)
	assert.Equal(t, "a post", all[0].PostTitle)
}

func TestDeleteComment(t *testing.T) {
	app, db := setupTestApp(t)
	postID := seedPost(t, db)

	c, err := commentctl.Create(db, postID, "carol", "delete me")
	require.NoError(t, err)

	path := "/api/comments/" + strconv.FormatUint(c.ID, 10)

	req := httptest.NewRequest(http.MethodDelete, path, nil)
	req.AddCookie(adminCookie(t))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodDelete, path, nil)
	req.AddCookie(adminCookie(t))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
