package mailer

import "errors"

var (
	// ErrNotInitialized is returned when the engine was never wired to a database.
	ErrNotInitialized = errors.New("mail engine not initialized")
	// ErrNotConfigured is returned when no SMTP settings have been saved yet.
	ErrNotConfigured = errors.New("mail transport not configured")
)
