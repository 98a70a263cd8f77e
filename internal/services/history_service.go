package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/volunteerhub/internal/models"
	apperrors "github.com/charlesng35/volunteerhub/pkg/errors"
)

// HistoryDTO is one participation record with its event summary.
type HistoryDTO struct {
	ID             string    `json:"id"`
	VolunteerID    string    `json:"volunteer_id"`
	EventID        string    `json:"event_id"`
	EventName      string    `json:"event_name"`
	EventDate      string    `json:"event_date"`
	EventLocation  string    `json:"event_location"`
	Status         string    `json:"status"`
	ParticipatedAt time.Time `json:"participated_at"`
}

// ListHistoryInput controls history listing.
type ListHistoryInput struct {
	VolunteerID string
	Limit       int
	Offset      int
}

// HistoryService reads the append-only participation log.
type HistoryService struct {
	db *gorm.DB
}

// NewHistoryService constructs a HistoryService.
func NewHistoryService(db *gorm.DB) (*HistoryService, error) {
	if db == nil {
		return nil, errors.New("history service: db is required")
	}
	return &HistoryService{db: db}, nil
}

// ListForVolunteer returns a volunteer's history, most recent first. Entries for
// deleted events are still listed.
func (s *HistoryService) ListForVolunteer(ctx context.Context, input ListHistoryInput) ([]HistoryDTO, int64, error) {
	ctx = ensureContext(ctx)
	volunteerID := strings.TrimSpace(input.VolunteerID)
	if volunteerID == "" {
		return nil, 0, apperrors.NewBadRequest("volunteer id is required")
	}

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := s.db.WithContext(ctx).Model(&models.VolunteerHistory{}).Where("volunteer_id = ?", volunteerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("history service: count history: %w", err)
	}

	var rows []models.VolunteerHistory
	if err := query.Preload("Event").
		Order("participated_at DESC").
		Limit(limit).
		Offset(max(0, input.Offset)).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("history service: list history: %w", err)
	}

	items := make([]HistoryDTO, 0, len(rows))
	for _, row := range rows {
		dto := HistoryDTO{
			ID:             row.ID,
			VolunteerID:    row.VolunteerID,
			EventID:        row.EventID,
			Status:         row.Status,
			ParticipatedAt: row.ParticipatedAt,
		}
		if row.Event != nil {
			dto.EventName = row.Event.Name
			dto.EventDate = formatDate(&row.Event.Date)
			dto.EventLocation = row.Event.Location
		}
		items = append(items, dto)
	}
	return items, total, nil
}

func appendHistory(tx *gorm.DB, volunteerID, eventID, status string, at time.Time) error {
	entry := models.VolunteerHistory{
		VolunteerID:    volunteerID,
		EventID:        eventID,
		Status:         status,
		ParticipatedAt: at,
	}
	return tx.Omit("Event").Create(&entry).Error
}
