package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel carries the identifier and timestamps shared by volunteers, events,
// history entries and notifications. IDs are UUIDv7 so they sort by creation time.
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUIDv7 when the ID is empty and stores caller-supplied
// timestamps in UTC.
func (m *BaseModel) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate id: %w", err)
		}
		m.ID = id.String()
	}
	if !m.CreatedAt.IsZero() {
		m.CreatedAt = m.CreatedAt.UTC()
	}
	if !m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.UpdatedAt.UTC()
	}
	return nil
}
