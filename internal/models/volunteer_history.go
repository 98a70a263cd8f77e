package models

import "time"

// History status values.
const (
	HistoryStatusAssigned  = "Assigned"
	HistoryStatusCompleted = "Completed"
	HistoryStatusCancelled = "Cancelled"
)

// VolunteerHistory is an append-only participation record.
type VolunteerHistory struct {
	BaseModel

	VolunteerID    string    `gorm:"type:uuid;not null;index" json:"volunteer_id"`
	EventID        string    `gorm:"type:uuid;not null;index" json:"event_id"`
	Status         string    `gorm:"type:varchar(32);not null" json:"status"`
	ParticipatedAt time.Time `json:"participated_at"`

	Event *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
}
