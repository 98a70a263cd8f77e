package models

import "time"

// Skill is an entry in the skill directory. Its label is the identity used by
// profiles and events.
type Skill struct {
	Name        string    `gorm:"primaryKey;type:varchar(64)" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
