// Package session stores per-visitor state in a server-side session store
// keyed by a random cookie value.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// Store is the global session store instance.
var Store *session.Store

// Data represents the session data structure.
type Data struct {
	// IsAdmin is set after a successful admin login.
	IsAdmin bool `json:"is_admin"`
	// HasPrivateAccess is set after the visitor passed the privacy gate.
	HasPrivateAccess bool `json:"has_private_access"`
}

// Write writes the session data for the given session ID with an expiration duration.
func (s *Data) Write(sessionID string, exp time.Duration) error {
	out, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return Store.Storage.Set(sessionID, out, exp)
}

// Read reads the session data for the given session ID.
func (s *Data) Read(sessionID string) error {
	byteData, err := Store.Storage.Get(sessionID)
	if err != nil {
		return err
	}
	if byteData == nil {
		return nil
	}

	return json.Unmarshal(byteData, s)
}

// Init initializes the session store with the provided storage backend.
func Init(storage storage.Storage) {
	if storage == nil {
		panic("storage is nil")
	}

	Store = session.New(session.Config{
		Storage: storage,
	})
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Current reads the session behind the request's cookie. A request without a
// cookie, or with an unknown one, yields zero-valued data.
func Current(c *fiber.Ctx) *Data {
	data := new(Data)

	cookie := c.Cookies(CookieName)
	if cookie == "" {
		return data
	}
	_ = data.Read(cookie)

	return data
}

// Save persists data under the request's session, creating the session and
// setting the cookie when the request does not carry one yet.
func Save(c *fiber.Ctx, data *Data, exp time.Duration, devMode bool) error {
	sessionID := c.Cookies(CookieName)
	if sessionID == "" {
		var err error
		sessionID, err = GenerateSessionID()
		if err != nil {
			return err
		}
	}

	if err := data.Write(sessionID, exp); err != nil {
		return err
	}

	cookie := &fiber.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		MaxAge:   int(exp.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}
	if devMode {
		cookie.Secure = false
	}
	c.Cookie(cookie)

	return nil
}

// Destroy deletes the session behind the request's cookie and clears the cookie.
func Destroy(c *fiber.Ctx) {
	if sessionID := c.Cookies(CookieName); sessionID != "" {
		_ = Store.Storage.Delete(sessionID)
	}

	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: "Lax",
	})
}
