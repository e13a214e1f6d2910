// Package subscriber maintains the email subscriber list.
package subscriber

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/db/models"
)

var (
	// ErrInvalidEmail is returned when the address fails the minimal check.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrAlreadySubscribed is returned on a duplicate subscription attempt.
	ErrAlreadySubscribed = errors.New("email already subscribed")
	// ErrSubscriberNotFound is returned when no active subscription matches.
	ErrSubscriberNotFound = errors.New("subscription not found or already inactive")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// GenerateToken returns a new random unsubscribe token (256 bits, hex).
func GenerateToken() (string, error) {
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// Create inserts a new active subscriber with a fresh unsubscribe token.
// A duplicate email reports ErrAlreadySubscribed and leaves the existing row
// untouched.
func Create(db *gorm.DB, email string) (*models.Subscriber, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	s := &models.Subscriber{
		Email:            email,
		UnsubscribeToken: token,
		SubscribedAt:     time.Now(),
		IsActive:         true,
	}

	if err := db.Create(s).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrAlreadySubscribed
		}
		return nil, err
	}

	return s, nil
}

// DeactivateByToken flips is_active off for the matching active subscription.
// Idempotent-safe: a second call with the same token reports
// ErrSubscriberNotFound instead of re-succeeding.
func DeactivateByToken(db *gorm.DB, token string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.Subscriber{}).
		Where("unsubscribe_token = ? AND is_active = ?", token, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriberNotFound
	}

	return nil
}

// DeactivateByEmail is the admin variant of DeactivateByToken, keyed by email
// with the same idempotency contract.
func DeactivateByEmail(db *gorm.DB, email string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.Subscriber{}).
		Where("email = ? AND is_active = ?", email, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriberNotFound
	}

	return nil
}

// ListActive retrieves all active subscribers.
func ListActive(db *gorm.DB) ([]models.Subscriber, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var subs []models.Subscriber
	result := db.Where("is_active = ?", true).Find(&subs)
	if result.Error != nil {
		return nil, result.Error
	}

	return subs, nil
}

// List retrieves all subscribers, newest first. Admin only.
func List(db *gorm.DB) ([]models.Subscriber, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var subs []models.Subscriber
	result := db.Order("subscribed_at DESC").Find(&subs)
	if result.Error != nil {
		return nil, result.Error
	}

	return subs, nil
}
