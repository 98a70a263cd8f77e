package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/volunteerhub/internal/models"
	"github.com/charlesng35/volunteerhub/internal/realtime"
	apperrors "github.com/charlesng35/volunteerhub/pkg/errors"
	"github.com/charlesng35/volunteerhub/pkg/logger"
)

// EventDTO is the API view of an event.
type EventDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Date        string    `json:"date"`
	Urgency     string    `json:"urgency"`
	Skills      []string  `json:"skills"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventInput creates or fully replaces an event. Skills replace the stored set.
type EventInput struct {
	Name        string
	Description string
	Location    string
	Date        string
	Urgency     string
	Skills      []string
}

// ListEventsInput controls event listing.
type ListEventsInput struct {
	From   string
	Limit  int
	Offset int
}

// EventService manages events. Deleted events are flagged and hidden from reads.
type EventService struct {
	db       *gorm.DB
	notifier Notifier
	hub      *realtime.Hub
	log      *zap.Logger
}

// NewEventService constructs an EventService. The notifier informs assigned
// volunteers when an event changes and may be nil.
func NewEventService(db *gorm.DB, notifier Notifier, hub *realtime.Hub) (*EventService, error) {
	if db == nil {
		return nil, errors.New("event service: db is required")
	}
	return &EventService{db: db, notifier: notifier, hub: hub, log: logger.WithModule("events")}, nil
}

// Create stores a new event.
func (s *EventService) Create(ctx context.Context, actorID string, input EventInput) (*EventDTO, error) {
	ctx = ensureContext(ctx)

	event, err := buildEvent(input)
	if err != nil {
		return nil, err
	}
	if actorID = strings.TrimSpace(actorID); actorID != "" {
		event.CreatedByID = &actorID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skills, err := resolveSkills(tx, input.Skills)
		if err != nil {
			return err
		}
		if err := tx.Omit("Skills").Create(event).Error; err != nil {
			return fmt.Errorf("event service: create event: %w", err)
		}
		return replaceEventSkills(tx, event, skills)
	})
	if err != nil {
		return nil, err
	}

	dto := mapEvent(*event)
	s.publish("event.created", &dto)
	return &dto, nil
}

// Get returns a non-deleted event.
func (s *EventService) Get(ctx context.Context, id string) (*EventDTO, error) {
	ctx = ensureContext(ctx)
	event, err := s.load(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	dto := mapEvent(*event)
	return &dto, nil
}

// List returns non-deleted events ordered by date.
func (s *EventService) List(ctx context.Context, input ListEventsInput) ([]EventDTO, int64, error) {
	ctx = ensureContext(ctx)

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := s.db.WithContext(ctx).Model(&models.Event{}).Where("is_deleted = ?", false)
	if from := strings.TrimSpace(input.From); from != "" {
		start, err := parseDate(from)
		if err != nil {
			return nil, 0, apperrors.NewBadRequest("from must be a YYYY-MM-DD date")
		}
		query = query.Where("date >= ?", *start)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("event service: count events: %w", err)
	}

	var rows []models.Event
	if err := query.Preload("Skills").
		Order("date ASC").
		Limit(limit).
		Offset(max(0, input.Offset)).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("event service: list events: %w", err)
	}

	items := make([]EventDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapEvent(row))
	}
	return items, total, nil
}

// Update fully replaces a non-deleted event and notifies every assigned volunteer.
func (s *EventService) Update(ctx context.Context, id string, input EventInput) (*EventDTO, error) {
	ctx = ensureContext(ctx)

	replacement, err := buildEvent(input)
	if err != nil {
		return nil, err
	}

	var (
		event     *models.Event
		assignees []string
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.load(tx, id)
		if err != nil {
			return err
		}
		skills, err := resolveSkills(tx, input.Skills)
		if err != nil {
			return err
		}

		if err := tx.Model(existing).Updates(map[string]any{
			"name":        replacement.Name,
			"description": replacement.Description,
			"location":    replacement.Location,
			"date":        replacement.Date,
			"urgency":     replacement.Urgency,
		}).Error; err != nil {
			return fmt.Errorf("event service: update event: %w", err)
		}
		existing.Name = replacement.Name
		existing.Description = replacement.Description
		existing.Location = replacement.Location
		existing.Date = replacement.Date
		existing.Urgency = replacement.Urgency

		if err := replaceEventSkills(tx, existing, skills); err != nil {
			return err
		}

		if err := tx.Model(&models.Assignment{}).
			Where("event_id = ?", existing.ID).
			Pluck("volunteer_id", &assignees).Error; err != nil {
			return fmt.Errorf("event service: load assignees: %w", err)
		}
		event = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := mapEvent(*event)
	s.publish("event.updated", &dto)
	s.log.Debug("event updated", zap.String("event_id", dto.ID), zap.Int("assignees", len(assignees)))

	if s.notifier != nil {
		for _, volunteerID := range assignees {
			s.notifier.Notify(ctx, CreateNotificationInput{
				UserID:   volunteerID,
				Type:     models.NotificationTypeEventUpdated,
				Title:    "Event updated",
				Message:  fmt.Sprintf("%s on %s at %s has been updated.", dto.Name, dto.Date, dto.Location),
				Metadata: map[string]any{"event_id": dto.ID},
			})
		}
	}

	return &dto, nil
}

// Delete flags the event as deleted.
func (s *EventService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ? AND is_deleted = ?", strings.TrimSpace(id), false).
		Updates(map[string]any{"is_deleted": true, "deleted_at": now})
	if result.Error != nil {
		return fmt.Errorf("event service: delete event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}

	s.log.Info("event deleted", zap.String("event_id", id))
	s.publish("event.deleted", &EventDTO{ID: id})
	return nil
}

func (s *EventService) load(db *gorm.DB, id string) (*models.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrEventNotFound
	}
	var event models.Event
	if err := db.Preload("Skills").
		Where("id = ? AND is_deleted = ?", id, false).
		First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("event service: load event: %w", err)
	}
	return &event, nil
}

func (s *EventService) publish(name string, dto *EventDTO) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(realtime.Message{Stream: realtime.StreamEvents, Event: name, Data: dto})
}

func buildEvent(input EventInput) (*models.Event, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("event name is required")
	}
	location := strings.TrimSpace(input.Location)
	if location == "" {
		return nil, apperrors.NewBadRequest("event location is required")
	}
	date, err := parseDate(input.Date)
	if err != nil || date == nil {
		return nil, apperrors.NewBadRequest("event date must be a YYYY-MM-DD date")
	}

	urgency := strings.ToLower(strings.TrimSpace(defaultIfEmpty(input.Urgency, models.UrgencyMedium)))
	switch urgency {
	case models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh:
	default:
		return nil, apperrors.NewBadRequest("urgency must be one of low, medium, high")
	}

	return &models.Event{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Location:    location,
		Date:        *date,
		Urgency:     urgency,
	}, nil
}

func replaceEventSkills(tx *gorm.DB, event *models.Event, skills []string) error {
	if err := tx.Where("event_id = ?", event.ID).Delete(&models.EventSkill{}).Error; err != nil {
		return fmt.Errorf("event service: clear skills: %w", err)
	}
	event.Skills = make([]models.EventSkill, 0, len(skills))
	for _, name := range skills {
		event.Skills = append(event.Skills, models.EventSkill{EventID: event.ID, SkillName: name})
	}
	if len(event.Skills) == 0 {
		return nil
	}
	if err := tx.Create(&event.Skills).Error; err != nil {
		return fmt.Errorf("event service: save skills: %w", err)
	}
	return nil
}

func mapEvent(e models.Event) EventDTO {
	return EventDTO{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Location:    e.Location,
		Date:        formatDate(&e.Date),
		Urgency:     e.Urgency,
		Skills:      e.SkillNames(),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
