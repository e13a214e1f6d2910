package models

import (
	"time"
)

// Subscriber is an email recipient of publish notifications. Unsubscribing
// flips IsActive instead of deleting, so a second unsubscribe attempt with the
// same token can be answered with "not found" rather than re-succeeding.
type Subscriber struct {
	ID    uint64 `gorm:"primaryKey" json:"-"`
	Email string `gorm:"unique;size:255;not null" json:"email"`
	// UnsubscribeToken is a random 256-bit value, hex encoded.
	UnsubscribeToken string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	SubscribedAt     time.Time `json:"subscribed_at"`
	IsActive         bool      `gorm:"not null;default:true" json:"is_active"`
}
