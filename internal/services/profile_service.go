package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/volunteerhub/internal/models"
	apperrors "github.com/charlesng35/volunteerhub/pkg/errors"
)

// ProfileDTO is the API view of a volunteer profile.
type ProfileDTO struct {
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Address1       string    `json:"address1"`
	Address2       string    `json:"address2,omitempty"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	Zip            string    `json:"zip"`
	Preferences    string    `json:"preferences,omitempty"`
	Skills         []string  `json:"skills"`
	AvailableFrom  string    `json:"available_from,omitempty"`
	AvailableUntil string    `json:"available_until,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ProfileInput replaces a volunteer's profile. Skills replace the stored set wholesale.
type ProfileInput struct {
	FullName       string
	Address1       string
	Address2       string
	City           string
	State          string
	Zip            string
	Preferences    string
	Skills         []string
	AvailableFrom  string
	AvailableUntil string
}

// ProfileService manages volunteer profiles.
type ProfileService struct {
	db *gorm.DB
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB) (*ProfileService, error) {
	if db == nil {
		return nil, errors.New("profile service: db is required")
	}
	return &ProfileService{db: db}, nil
}

// Get returns the profile for a user. Accounts that never saved a profile get an
// empty one.
func (s *ProfileService) Get(ctx context.Context, userID string) (*ProfileDTO, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).
		Preload("Profile.Skills").
		First(&user, "id = ?", strings.TrimSpace(userID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("profile service: load user: %w", err)
	}

	profile := user.Profile
	if profile == nil {
		profile = &models.VolunteerProfile{UserID: user.ID}
	}
	dto := mapProfile(user.Email, *profile)
	return &dto, nil
}

// Update validates and stores the profile, replacing its skill set.
func (s *ProfileService) Update(ctx context.Context, userID string, input ProfileInput) (*ProfileDTO, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}

	from, err := parseDate(input.AvailableFrom)
	if err != nil {
		return nil, apperrors.NewBadRequest("available_from must be a YYYY-MM-DD date")
	}
	until, err := parseDate(input.AvailableUntil)
	if err != nil {
		return nil, apperrors.NewBadRequest("available_until must be a YYYY-MM-DD date")
	}
	if from != nil && until != nil && until.Before(*from) {
		return nil, apperrors.NewBadRequest("available_until must not be before available_from")
	}

	profile := models.VolunteerProfile{
		UserID:         userID,
		FullName:       strings.TrimSpace(input.FullName),
		Address1:       strings.TrimSpace(input.Address1),
		Address2:       strings.TrimSpace(input.Address2),
		City:           strings.TrimSpace(input.City),
		State:          strings.ToUpper(strings.TrimSpace(input.State)),
		Zip:            strings.TrimSpace(input.Zip),
		Preferences:    strings.TrimSpace(input.Preferences),
		AvailableFrom:  from,
		AvailableUntil: until,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return fmt.Errorf("profile service: check user: %w", err)
		}
		if count == 0 {
			return ErrUserNotFound
		}

		skills, err := resolveSkills(tx, input.Skills)
		if err != nil {
			return err
		}

		if err := tx.Omit("Skills").
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, UpdateAll: true}).
			Create(&profile).Error; err != nil {
			return fmt.Errorf("profile service: save profile: %w", err)
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.ProfileSkill{}).Error; err != nil {
			return fmt.Errorf("profile service: clear skills: %w", err)
		}
		if len(skills) > 0 {
			rows := make([]models.ProfileSkill, 0, len(skills))
			for _, name := range skills {
				rows = append(rows, models.ProfileSkill{UserID: userID, SkillName: name})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("profile service: save skills: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

func mapProfile(email string, p models.VolunteerProfile) ProfileDTO {
	skills := p.SkillNames()
	if skills == nil {
		skills = []string{}
	}
	return ProfileDTO{
		UserID:         p.UserID,
		Email:          email,
		FullName:       p.FullName,
		Address1:       p.Address1,
		Address2:       p.Address2,
		City:           p.City,
		State:          p.State,
		Zip:            p.Zip,
		Preferences:    p.Preferences,
		Skills:         skills,
		AvailableFrom:  formatDate(p.AvailableFrom),
		AvailableUntil: formatDate(p.AvailableUntil),
		UpdatedAt:      p.UpdatedAt,
	}
}
