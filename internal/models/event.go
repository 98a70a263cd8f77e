package models

import "time"

// Event urgency levels.
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// Event describes a volunteer event. Deleted events are flagged rather than removed
// so assignments and history keep resolving.
type Event struct {
	BaseModel

	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Location    string    `gorm:"type:text;not null" json:"location"`
	Date        time.Time `gorm:"index" json:"date"`
	Urgency     string    `gorm:"type:varchar(16);default:'medium'" json:"urgency"`

	CreatedByID *string `gorm:"type:uuid" json:"created_by_id"`

	IsDeleted bool       `gorm:"default:false;index" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at"`

	Skills []EventSkill `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"skills,omitempty"`
}

// SkillNames flattens the required skill rows into labels.
func (e *Event) SkillNames() []string {
	if e == nil {
		return nil
	}
	names := make([]string, 0, len(e.Skills))
	for _, s := range e.Skills {
		names = append(names, s.SkillName)
	}
	return names
}

// EventSkill links an event to a required directory skill.
type EventSkill struct {
	EventID   string `gorm:"primaryKey;type:uuid" json:"event_id"`
	SkillName string `gorm:"primaryKey;type:varchar(64)" json:"skill"`
}
