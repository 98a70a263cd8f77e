package models

import "time"

// User is a login account. Volunteers carry a VolunteerProfile; administrators
// manage events and perform assignments and never appear as match candidates.
type User struct {
	BaseModel

	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	IsAdmin         bool       `gorm:"default:false;index" json:"is_admin"`
	EmailVerified   bool       `gorm:"default:false" json:"email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	LastLoginAt     *time.Time `json:"last_login_at"`

	Profile *VolunteerProfile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}
