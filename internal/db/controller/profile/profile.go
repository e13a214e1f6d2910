// Package profile provides operations on the singleton owner profile row.
package profile

import (
	"errors"

	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/db/models"
)

var (
	// ErrProfileNotFound is returned when the profile row does not exist yet.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrSetupComplete is returned when setup is attempted after completion.
	ErrSetupComplete = errors.New("setup already completed")
	// ErrUsernameEmpty is returned when a profile is saved without a username.
	ErrUsernameEmpty = errors.New("username can not be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves the profile row.
func Get(db *gorm.DB) (*models.Profile, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var p models.Profile
	result := db.First(&p, models.ProfileID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, result.Error
	}

	return &p, nil
}

// IsSetupComplete reports whether the one-time setup has been completed.
// A missing profile row reads as "not complete".
func IsSetupComplete(db *gorm.DB) (bool, error) {
	p, err := Get(db)
	if errors.Is(err, ErrProfileNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return p.IsSetupComplete, nil
}

// Setup creates the singleton profile row and marks setup complete. A second
// call after completion always fails with ErrSetupComplete and never mutates
// the stored profile.
func Setup(db *gorm.DB, p *models.Profile) error {
	if db == nil {
		return ErrDBNil
	}
	if p.Username == "" {
		return ErrUsernameEmpty
	}

	done, err := IsSetupComplete(db)
	if err != nil {
		return err
	}
	if done {
		return ErrSetupComplete
	}

	p.ID = models.ProfileID
	p.IsSetupComplete = true

	return db.Save(p).Error
}

// UpdateIdentity updates the public identity fields of the profile.
func UpdateIdentity(db *gorm.DB, username, biography, pronouns string, age *int, location string) error {
	if db == nil {
		return ErrDBNil
	}
	if username == "" {
		return ErrUsernameEmpty
	}

	result := db.Model(&models.Profile{}).
		Where("id = ?", models.ProfileID).
		Updates(map[string]interface{}{
			"username":  username,
			"biography": biography,
			"pronouns":  pronouns,
			"age":       age,
			"location":  location,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// SaveSettings updates identity, privacy mode and the private password hash in
// one step. passwordHash nil clears the private password (used when switching
// to public mode); callers that want to keep the current hash pass it back in.
func SaveSettings(
	db *gorm.DB,
	username, biography, pronouns string,
	age *int,
	location, privacyMode string,
	passwordHash *string,
) error {
	if db == nil {
		return ErrDBNil
	}
	if username == "" {
		return ErrUsernameEmpty
	}

	result := db.Model(&models.Profile{}).
		Where("id = ?", models.ProfileID).
		Updates(map[string]interface{}{
			"username":      username,
			"biography":     biography,
			"pronouns":      pronouns,
			"age":           age,
			"location":      location,
			"privacy_mode":  privacyMode,
			"password_hash": passwordHash,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// SetPicture stores the public path of the uploaded profile picture.
func SetPicture(db *gorm.DB, path string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.Profile{}).
		Where("id = ?", models.ProfileID).
		Update("profile_picture", path)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}

	return nil
}
