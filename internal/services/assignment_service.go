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
	"github.com/charlesng35/volunteerhub/pkg/metrics"
)

// AssignmentDTO describes an assignment with event and volunteer summaries.
type AssignmentDTO struct {
	EventID       string    `json:"event_id"`
	EventName     string    `json:"event_name,omitempty"`
	EventDate     string    `json:"event_date,omitempty"`
	VolunteerID   string    `json:"volunteer_id"`
	VolunteerName string    `json:"volunteer_name,omitempty"`
	AssignedAt    time.Time `json:"assigned_at"`
}

// AssignInput identifies the pair to assign and the acting administrator.
type AssignInput struct {
	EventID     string
	VolunteerID string
	AssignedBy  string
}

// AssignmentService places volunteers on events.
type AssignmentService struct {
	db       *gorm.DB
	notifier Notifier
	hub      *realtime.Hub
	now      func() time.Time
	log      *zap.Logger
}

// AssignmentOption customises the AssignmentService.
type AssignmentOption func(*AssignmentService)

// WithAssignmentClock injects a custom time source.
func WithAssignmentClock(clock func() time.Time) AssignmentOption {
	return func(s *AssignmentService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewAssignmentService constructs an AssignmentService. The notifier may be nil.
func NewAssignmentService(db *gorm.DB, notifier Notifier, hub *realtime.Hub, opts ...AssignmentOption) (*AssignmentService, error) {
	if db == nil {
		return nil, errors.New("assignment service: db is required")
	}
	svc := &AssignmentService{
		db:       db,
		notifier: notifier,
		hub:      hub,
		now:      time.Now,
		log:      logger.WithModule("assignments"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Assign records the assignment and its history entry atomically, then notifies the
// volunteer. Notification problems never affect the result.
func (s *AssignmentService) Assign(ctx context.Context, input AssignInput) (*AssignmentDTO, error) {
	ctx = ensureContext(ctx)
	eventID := strings.TrimSpace(input.EventID)
	volunteerID := strings.TrimSpace(input.VolunteerID)
	if eventID == "" || volunteerID == "" {
		metrics.Assignments.WithLabelValues("bad_request").Inc()
		return nil, apperrors.NewBadRequest("event_id and volunteer_id are required")
	}

	var (
		event      models.Event
		volunteer  models.User
		assignment models.Assignment
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// existence only: the deleted flag is not consulted here
		if err := tx.Select("id", "name", "date", "location").
			First(&event, "id = ?", eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		if err := tx.Preload("Profile").
			First(&volunteer, "id = ? AND is_admin = ?", volunteerID, false).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVolunteerNotFound
			}
			return err
		}

		var existing int64
		if err := tx.Model(&models.Assignment{}).
			Where("event_id = ? AND volunteer_id = ?", eventID, volunteerID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyAssigned
		}

		now := s.now().UTC()
		assignment = models.Assignment{
			EventID:     eventID,
			VolunteerID: volunteerID,
			AssignedAt:  now,
		}
		if actor := strings.TrimSpace(input.AssignedBy); actor != "" {
			assignment.AssignedByID = &actor
		}

		if err := tx.Omit("Event", "Volunteer").Create(&assignment).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrAlreadyAssigned
			}
			return ErrTransactionFailed.WithInternal(fmt.Errorf("insert assignment: %w", err))
		}

		if err := appendHistory(tx, volunteerID, eventID, models.HistoryStatusAssigned, now); err != nil {
			return ErrTransactionFailed.WithInternal(fmt.Errorf("append history: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(eventID, volunteerID, err)
	}

	metrics.Assignments.WithLabelValues("assigned").Inc()

	dto := AssignmentDTO{
		EventID:     assignment.EventID,
		EventName:   event.Name,
		EventDate:   formatDate(&event.Date),
		VolunteerID: assignment.VolunteerID,
		AssignedAt:  assignment.AssignedAt,
	}
	if volunteer.Profile != nil {
		dto.VolunteerName = volunteer.Profile.FullName
	}

	if s.hub != nil {
		s.hub.Broadcast(realtime.Message{Stream: realtime.StreamAssignments, Event: "assignment.created", Data: &dto})
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, CreateNotificationInput{
			UserID:    volunteerID,
			Type:      models.NotificationTypeAssignment,
			Title:     "New assignment",
			Message:   fmt.Sprintf("You have been assigned to %s on %s at %s.", event.Name, dto.EventDate, event.Location),
			Severity:  "success",
			ActionURL: "/events/" + eventID,
			Metadata:  map[string]any{"event_id": eventID},
		})
	}

	return &dto, nil
}

func (s *AssignmentService) fail(eventID, volunteerID string, err error) error {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = ErrTransactionFailed.WithInternal(err)
	}

	switch {
	case errors.Is(appErr, ErrAlreadyAssigned):
		metrics.Assignments.WithLabelValues("already_assigned").Inc()
	case errors.Is(appErr, ErrEventNotFound), errors.Is(appErr, ErrVolunteerNotFound):
		metrics.Assignments.WithLabelValues("not_found").Inc()
	default:
		metrics.Assignments.WithLabelValues("failed").Inc()
		s.log.Error("assignment failed",
			zap.String("event_id", eventID),
			zap.String("volunteer_id", volunteerID),
			zap.Error(appErr),
		)
	}
	return appErr
}

// ListForEvent returns the assignments of an event, oldest first.
func (s *AssignmentService) ListForEvent(ctx context.Context, eventID string) ([]AssignmentDTO, error) {
	ctx = ensureContext(ctx)
	eventID = strings.TrimSpace(eventID)

	var event models.Event
	if err := s.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", eventID, false).
		First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("assignment service: load event: %w", err)
	}

	var rows []models.Assignment
	if err := s.db.WithContext(ctx).
		Preload("Volunteer.Profile").
		Where("event_id = ?", eventID).
		Order("assigned_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("assignment service: list assignments: %w", err)
	}

	items := make([]AssignmentDTO, 0, len(rows))
	for _, row := range rows {
		dto := AssignmentDTO{
			EventID:     row.EventID,
			EventName:   event.Name,
			EventDate:   formatDate(&event.Date),
			VolunteerID: row.VolunteerID,
			AssignedAt:  row.AssignedAt,
		}
		if row.Volunteer != nil && row.Volunteer.Profile != nil {
			dto.VolunteerName = row.Volunteer.Profile.FullName
		}
		items = append(items, dto)
	}
	return items, nil
}
