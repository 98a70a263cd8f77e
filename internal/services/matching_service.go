package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/volunteerhub/internal/matching"
	"github.com/charlesng35/volunteerhub/internal/models"
	apperrors "github.com/charlesng35/volunteerhub/pkg/errors"
	"github.com/charlesng35/volunteerhub/pkg/logger"
	"github.com/charlesng35/volunteerhub/pkg/metrics"
)

// EligibleVolunteer is a volunteer who may be assigned to an event.
type EligibleVolunteer struct {
	VolunteerID string   `json:"volunteer_id"`
	Name        string   `json:"name"`
	Skills      []string `json:"skills"`
	City        string   `json:"city"`
	State       string   `json:"state"`
}

// MatchingService loads events and volunteer profiles and runs the matching engine.
type MatchingService struct {
	db     *gorm.DB
	engine *matching.Engine
}

// NewMatchingService constructs a MatchingService using the default criteria.
func NewMatchingService(db *gorm.DB) (*MatchingService, error) {
	if db == nil {
		return nil, errors.New("matching service: db is required")
	}
	return &MatchingService{
		db:     db,
		engine: matching.NewEngine(logger.WithModule("matching")),
	}, nil
}

// FindEligibleVolunteers returns the non-admin volunteers that can be assigned to the
// event. An empty id is a bad request; soft-deleted and unknown events yield
// ErrEventNotFound. Order is unspecified.
func (s *MatchingService) FindEligibleVolunteers(ctx context.Context, eventID string) ([]EligibleVolunteer, error) {
	ctx = ensureContext(ctx)
	db := s.db.WithContext(ctx)

	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		metrics.MatchChecks.WithLabelValues("bad_request").Inc()
		return nil, apperrors.NewBadRequest("event id is required")
	}

	var event models.Event
	if err := db.Preload("Skills").
		Where("id = ? AND is_deleted = ?", eventID, false).
		First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.MatchChecks.WithLabelValues("not_found").Inc()
			return nil, ErrEventNotFound
		}
		metrics.MatchChecks.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("matching service: load event: %w", err)
	}

	var assignedIDs []string
	if err := db.Model(&models.Assignment{}).
		Where("event_id = ?", event.ID).
		Pluck("volunteer_id", &assignedIDs).Error; err != nil {
		metrics.MatchChecks.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("matching service: load assignments: %w", err)
	}
	assigned := make(map[string]struct{}, len(assignedIDs))
	for _, id := range assignedIDs {
		assigned[id] = struct{}{}
	}

	var profiles []models.VolunteerProfile
	if err := db.Model(&models.VolunteerProfile{}).
		Joins("JOIN users ON users.id = volunteer_profiles.user_id").
		Where("users.is_admin = ?", false).
		Preload("Skills").
		Find(&profiles).Error; err != nil {
		metrics.MatchChecks.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("matching service: load volunteers: %w", err)
	}

	candidates := make([]matching.Volunteer, 0, len(profiles))
	for _, p := range profiles {
		candidates = append(candidates, matching.Volunteer{
			ID:             p.UserID,
			Name:           p.FullName,
			Skills:         p.SkillNames(),
			City:           p.City,
			State:          p.State,
			AvailableFrom:  p.AvailableFrom,
			AvailableUntil: p.AvailableUntil,
		})
	}

	eligible := s.engine.Filter(matching.Event{
		ID:             event.ID,
		Date:           event.Date,
		Location:       event.Location,
		RequiredSkills: event.SkillNames(),
	}, candidates, assigned)

	out := make([]EligibleVolunteer, 0, len(eligible))
	for _, v := range eligible {
		out = append(out, EligibleVolunteer{
			VolunteerID: v.ID,
			Name:        v.Name,
			Skills:      v.Skills,
			City:        v.City,
			State:       v.State,
		})
	}

	metrics.MatchChecks.WithLabelValues("ok").Inc()
	metrics.EligibleVolunteers.Observe(float64(len(out)))
	return out, nil
}
