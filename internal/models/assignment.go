package models

import "time"

// Assignment records that a volunteer has been placed on an event. The composite
// primary key allows at most one assignment per (event, volunteer) pair.
type Assignment struct {
	EventID     string    `gorm:"primaryKey;type:uuid" json:"event_id"`
	VolunteerID string    `gorm:"primaryKey;type:uuid;index" json:"volunteer_id"`
	AssignedAt  time.Time `gorm:"not null" json:"assigned_at"`

	AssignedByID *string `gorm:"type:uuid" json:"assigned_by_id"`

	Event     *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
	Volunteer *User  `gorm:"foreignKey:VolunteerID" json:"volunteer,omitempty"`
}
