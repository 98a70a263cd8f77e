package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/volunteerhub/internal/models"
	apperrors "github.com/charlesng35/volunteerhub/pkg/errors"
)

// SkillService manages the skill directory.
type SkillService struct {
	db *gorm.DB
}

// NewSkillService constructs a SkillService.
func NewSkillService(db *gorm.DB) (*SkillService, error) {
	if db == nil {
		return nil, errors.New("skill service: db is required")
	}
	return &SkillService{db: db}, nil
}

// List returns every directory skill ordered by label.
func (s *SkillService) List(ctx context.Context) ([]models.Skill, error) {
	ctx = ensureContext(ctx)
	var skills []models.Skill
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&skills).Error; err != nil {
		return nil, fmt.Errorf("skill service: list skills: %w", err)
	}
	return skills, nil
}

// Create adds a label to the directory.
func (s *SkillService) Create(ctx context.Context, name, description string) (*models.Skill, error) {
	ctx = ensureContext(ctx)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewBadRequest("skill name is required")
	}

	skill := &models.Skill{Name: name, Description: strings.TrimSpace(description)}
	if err := s.db.WithContext(ctx).Create(skill).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrSkillExists
		}
		return nil, fmt.Errorf("skill service: create skill: %w", err)
	}
	return skill, nil
}

// resolveSkills de-duplicates labels and checks each one exists in the directory.
func resolveSkills(tx *gorm.DB, labels []string) ([]string, error) {
	labels = normaliseIDs(labels)
	if len(labels) == 0 {
		return nil, nil
	}

	var known []string
	if err := tx.Model(&models.Skill{}).Where("name IN ?", labels).Pluck("name", &known).Error; err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}
	if len(known) == len(labels) {
		return labels, nil
	}

	found := make(map[string]struct{}, len(known))
	for _, name := range known {
		found[name] = struct{}{}
	}
	for _, label := range labels {
		if _, ok := found[label]; !ok {
			return nil, &apperrors.AppError{
				Code:       ErrUnknownSkill.Code,
				Message:    fmt.Sprintf("Skill %q is not in the directory", label),
				StatusCode: ErrUnknownSkill.StatusCode,
			}
		}
	}
	return labels, nil
}
