package api

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/volunteerhub/internal/app"
	iauth "github.com/charlesng35/volunteerhub/internal/auth"
	"github.com/charlesng35/volunteerhub/internal/realtime"
	"github.com/charlesng35/volunteerhub/internal/services"
	"github.com/charlesng35/volunteerhub/pkg/mail"
)

// Services bundles the domain services shared by the router and the server runtime.
type Services struct {
	Accounts      *services.AccountService
	Verification  *services.EmailVerificationService
	Profiles      *services.ProfileService
	Skills        *services.SkillService
	Events        *services.EventService
	Matching      *services.MatchingService
	Assignments   *services.AssignmentService
	History       *services.HistoryService
	Notifications *services.NotificationService
}

// NewServices constructs every domain service over the shared store. The mailer
// may be nil, in which case no email is sent.
func NewServices(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, hub *realtime.Hub, mailer mail.Mailer) (*Services, error) {
	if db == nil {
		return nil, errors.New("database handle must be provided")
	}
	if jwt == nil {
		return nil, errors.New("jwt service must be provided")
	}
	if cfg == nil {
		cfg = &app.Config{}
	}

	notifications, err := services.NewNotificationService(db, hub,
		services.WithNotificationMailer(mailer),
		services.WithEmailDelivery(cfg.Notifications.EmailEnabled),
	)
	if err != nil {
		return nil, err
	}

	verification, err := services.NewEmailVerificationService(db, mailer,
		services.WithVerificationBaseURL(cfg.Email.Verification.BaseURL),
		services.WithVerificationExpiry(cfg.Email.Verification.Expiry),
	)
	if err != nil {
		return nil, err
	}

	accounts, err := services.NewAccountService(db, jwt, notifications, verification)
	if err != nil {
		return nil, err
	}
	profiles, err := services.NewProfileService(db)
	if err != nil {
		return nil, err
	}
	skills, err := services.NewSkillService(db)
	if err != nil {
		return nil, err
	}
	events, err := services.NewEventService(db, notifications, hub)
	if err != nil {
		return nil, err
	}
	matching, err := services.NewMatchingService(db)
	if err != nil {
		return nil, err
	}
	assignments, err := services.NewAssignmentService(db, notifications, hub)
	if err != nil {
		return nil, err
	}
	history, err := services.NewHistoryService(db)
	if err != nil {
		return nil, err
	}

	return &Services{
		Accounts:      accounts,
		Verification:  verification,
		Profiles:      profiles,
		Skills:        skills,
		Events:        events,
		Matching:      matching,
		Assignments:   assignments,
		History:       history,
		Notifications: notifications,
	}, nil
}

func (s *Services) validate() error {
	if s == nil {
		return errors.New("services must be provided")
	}
	switch {
	case s.Accounts == nil, s.Verification == nil, s.Profiles == nil, s.Skills == nil,
		s.Events == nil, s.Matching == nil, s.Assignments == nil, s.History == nil,
		s.Notifications == nil:
		return fmt.Errorf("services bundle is incomplete")
	}
	return nil
}
