// Package mailer owns the outbound SMTP transport. The transport is built
// lazily from the database-stored configuration and rebuilt whenever the
// settings change.
package mailer

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/db/controller/mailconfig"
	"github.com/podzol/podzol/internal/db/models"
	"github.com/podzol/podzol/internal/vault"
)

const (
	connectTimeout  = 30 * time.Second
	greetingTimeout = 20 * time.Second
)

type engine struct {
	mu    sync.Mutex
	db    *gorm.DB
	vault *vault.Vault

	transport *transport
}

// transport is a ready-to-use snapshot of the SMTP settings with the
// password already decrypted.
type transport struct {
	host      string
	port      int
	secure    bool
	user      string
	pass      string
	fromEmail string
	fromName  string
}

func (t *transport) addr() string {
	return net.JoinHostPort(t.host, strconv.Itoa(t.port))
}

func (t *transport) from() string {
	if t.fromName != "" {
		return fmt.Sprintf("%s <%s>", t.fromName, t.fromEmail)
	}

	return t.fromEmail
}

// Engine is the process-wide mail engine.
var Engine engine

// Init wires the engine to the database and secret vault. It does not open
// the transport; that happens on the first send or on Reload.
func Init(db *gorm.DB, v *vault.Vault) {
	Engine.mu.Lock()
	defer Engine.mu.Unlock()

	Engine.db = db
	Engine.vault = v
	Engine.transport = nil
}

// Reload drops the current transport and rebuilds it from the stored
// configuration, verifying the SMTP handshake.
func Reload() error {
	Engine.mu.Lock()
	defer Engine.mu.Unlock()

	Engine.transport = nil

	return Engine.open()
}

// IsConfigured reports whether a usable transport exists or can be built.
func IsConfigured() bool {
	Engine.mu.Lock()
	defer Engine.mu.Unlock()

	if Engine.transport != nil {
		return true
	}

	return Engine.open() == nil
}

// open builds the transport from the database row and verifies it with a
// handshake. Callers hold the engine mutex.
func (e *engine) open() error {
	if e.db == nil {
		return ErrNotInitialized
	}

	cfg, err := mailconfig.Get(e.db)
	if err != nil {
		if errors.Is(err, mailconfig.ErrMailConfigNotFound) {
			return ErrNotConfigured
		}
		return err
	}
	if cfg.SMTPHost == "" {
		return ErrNotConfigured
	}

	t := &transport{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		secure:    cfg.SMTPSecure,
		user:      cfg.SMTPUser,
		pass:      effectivePassword(e.vault, cfg.SMTPPass),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
	if t.port == 0 {
		t.port = models.DefaultSMTPPort
	}
	if t.fromEmail == "" {
		t.fromEmail = t.user
	}

	if err := t.verify(); err != nil {
		log.Warn().Err(err).Str("hint", Hint(err)).
			Str("host", t.host).Int("port", t.port).
			Msg("SMTP verification failed")
		return errors.Wrap(err, "SMTP verification failed")
	}

	log.Info().Str("host", t.host).Int("port", t.port).Msg("SMTP transport ready")
	e.transport = t

	return nil
}

// dial opens the SMTP connection, implicit TLS when secure is set, otherwise
// plain with STARTTLS when the server offers it.
func (t *transport) dial() (*smtp.Client, error) {
	conn, err := net.DialTimeout("tcp", t.addr(), connectTimeout)
	if err != nil {
		return nil, err
	}

	if t.secure {
		conn = tls.Client(conn, &tls.Config{ServerName: t.host})
	}

	if err := conn.SetDeadline(time.Now().Add(greetingTimeout)); err != nil {
		conn.Close()
		return nil, err
	}

	client, err := smtp.NewClient(conn, t.host)
	if err != nil {
		conn.Close()
		return nil, err
	}

	// the greeting arrived, further commands run without a deadline
	if err := conn.SetDeadline(time.Time{}); err != nil {
		client.Close()
		return nil, err
	}

	if !t.secure {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: t.host}); err != nil {
				client.Close()
				return nil, err
			}
		}
	}

	if t.user != "" {
		auth := smtp.PlainAuth("", t.user, t.pass, t.host)
		if err := client.Auth(auth); err != nil {
			client.Close()
			return nil, err
		}
	}

	return client, nil
}

// verify performs the handshake end to end and disconnects.
func (t *transport) verify() error {
	client, err := t.dial()
	if err != nil {
		return err
	}

	return client.Quit()
}

func (t *transport) send(to, subject, body string) error {
	client, err := t.dial()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Mail(t.fromEmail); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, buildMessage(t.from(), to, subject, body)); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

// buildMessage assembles a plain-text RFC 5322 message.
func buildMessage(from, to, subject, body string) string {
	return "From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Date: " + time.Now().Format(time.RFC1123Z) + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		body + "\r\n"
}

// Send delivers one message. It reports success or failure but never returns
// an error; delivery problems are logged with a human hint and must not stop
// the caller.
func Send(to, subject, body string) bool {
	Engine.mu.Lock()
	defer Engine.mu.Unlock()

	if Engine.transport == nil {
		if err := Engine.open(); err != nil {
			log.Warn().Err(err).Str("to", to).Msg("mail not sent, no transport")
			return false
		}
	}

	if err := Engine.transport.send(to, subject, body); err != nil {
		log.Error().Err(err).Str("hint", Hint(err)).Str("to", to).Msg("mail delivery failed")
		return false
	}

	log.Debug().Str("to", to).Str("subject", subject).Msg("mail sent")

	return true
}

// effectivePassword resolves the stored secret to the value handed to the
// SMTP server. Stored values are normally vault ciphertext, but rows written
// before a key was configured hold the password in clear; decryption failure
// falls back to the raw value. Very short values can not be ciphertext and
// skip the attempt.
func effectivePassword(v *vault.Vault, stored string) string {
	if stored == "" || len(stored) <= 8 {
		return stored
	}
	if v == nil || !v.HasKey() {
		return stored
	}

	plain, err := v.Decrypt(stored)
	if err != nil {
		return stored
	}

	return plain
}

// Configure persists new SMTP settings, then rebuilds the transport. An
// empty password keeps the one already stored; a non-empty one is encrypted
// when a vault key is present. A failing reload does not fail the save; the
// returned hint describes the problem for the settings form, empty when the
// transport verified fine.
func Configure(db *gorm.DB, v *vault.Vault, cfg *models.MailConfig, plainPass string) (string, error) {
	if plainPass == "" {
		if current, err := mailconfig.Get(db); err == nil {
			cfg.SMTPPass = current.SMTPPass
		}
	} else if v != nil && v.HasKey() {
		enc, err := v.Encrypt(plainPass)
		if err != nil {
			return "", errors.Wrap(err, "failed to encrypt SMTP password")
		}
		cfg.SMTPPass = enc
	} else {
		log.Warn().Msg("no mail encryption key configured, storing SMTP password in clear")
		cfg.SMTPPass = plainPass
	}

	if err := mailconfig.Set(db, cfg); err != nil {
		return "", err
	}

	if err := Reload(); err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return "", nil
		}
		log.Warn().Err(err).Msg("saved mail settings but transport is not usable")
		return Hint(errors.Cause(err)), nil
	}

	return "", nil
}
