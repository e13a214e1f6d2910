package models

// ProfileID is the fixed identity of the singleton profile row.
const ProfileID uint64 = 1

// Privacy modes for the site.
const (
	// PrivacyPublic makes posts, profile and comments readable by anyone.
	PrivacyPublic = "public"
	// PrivacyPrivate gates reads behind the private password.
	PrivacyPrivate = "private"
)

// Profile represents the site owner. Exactly one row exists (id=1) once setup
// has completed; before that no admin or private operation is permitted.
type Profile struct {
	// ID is always ProfileID.
	ID uint64 `gorm:"primaryKey" json:"-"`
	// Username is the owner's display identity, used in outbound mail.
	Username string `gorm:"size:100;not null" json:"username"`
	// Biography is free text shown on the profile page.
	Biography string `json:"biography"`
	// ProfilePicture is the public path of the uploaded avatar, if any.
	ProfilePicture string `gorm:"column:profile_picture" json:"profile_picture"`
	// Pronouns shown next to the username.
	Pronouns string `gorm:"size:50" json:"pronouns"`
	// Age is optional.
	Age      *int   `json:"age"`
	Location string `json:"location"`
	// PrivacyMode is PrivacyPublic or PrivacyPrivate.
	PrivacyMode string `gorm:"size:10;not null;default:'public'" json:"privacy_mode"`
	// PasswordHash is the bcrypt hash of the private-viewer password.
	// Set only while PrivacyMode is private.
	PasswordHash *string `gorm:"size:255" json:"-"`
	// AdminPasswordHash is the bcrypt hash of the admin password.
	AdminPasswordHash string `gorm:"size:255" json:"-"`
	// IsSetupComplete locks the setup endpoints once true.
	IsSetupComplete bool `gorm:"not null;default:false" json:"-"`
}
