package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/volunteerhub/internal/auth"
	"github.com/charlesng35/volunteerhub/internal/models"
	"github.com/charlesng35/volunteerhub/pkg/crypto"
	apperrors "github.com/charlesng35/volunteerhub/pkg/errors"
	"github.com/charlesng35/volunteerhub/pkg/logger"
	"github.com/charlesng35/volunteerhub/pkg/metrics"
)

// AccountDTO is the API view of a login account.
type AccountDTO struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	IsAdmin       bool       `json:"is_admin"`
	EmailVerified bool       `json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// RegisterInput describes a new volunteer account.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

// LoginResult carries an access token for an authenticated account.
type LoginResult struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Account     AccountDTO `json:"account"`
}

// AccountService registers and authenticates accounts.
type AccountService struct {
	db           *gorm.DB
	jwt          *auth.JWTService
	notifier     Notifier
	verification *EmailVerificationService
	now          func() time.Time
	log          *zap.Logger
}

// NewAccountService constructs an AccountService. The notifier and verification
// service are optional.
func NewAccountService(db *gorm.DB, jwt *auth.JWTService, notifier Notifier, verification *EmailVerificationService) (*AccountService, error) {
	if db == nil {
		return nil, errors.New("account service: db is required")
	}
	if jwt == nil {
		return nil, errors.New("account service: jwt service is required")
	}
	return &AccountService{
		db:           db,
		jwt:          jwt,
		notifier:     notifier,
		verification: verification,
		now:          time.Now,
		log:          logger.WithModule("accounts"),
	}, nil
}

// Register creates a volunteer account, sends the welcome notification and issues an
// email verification token.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*AccountDTO, error) {
	ctx = ensureContext(ctx)

	email, err := normaliseEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if len(input.Password) < crypto.MinPasswordLength {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("password must be at least %d characters", crypto.MinPasswordLength))
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		if errors.Is(err, crypto.ErrPasswordTooLong) {
			return nil, apperrors.NewBadRequest("password must be at most 72 bytes")
		}
		return nil, fmt.Errorf("account service: hash password: %w", err)
	}

	user := &models.User{Email: email, Password: hashed}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Profile").Create(user).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("account service: create user: %w", err)
		}
		profile := models.VolunteerProfile{UserID: user.ID, FullName: strings.TrimSpace(input.FullName)}
		if err := tx.Omit("Skills").Create(&profile).Error; err != nil {
			return fmt.Errorf("account service: create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, CreateNotificationInput{
			UserID:    user.ID,
			Type:      models.NotificationTypeWelcome,
			Title:     "Welcome aboard",
			Message:   "Thanks for registering. Complete your profile with your skills and availability so coordinators can match you to events.",
			ActionURL: "/profile",
		})
	}

	if s.verification != nil {
		if _, _, err := s.verification.CreateToken(ctx, user.ID, user.Email); err != nil {
			s.log.Warn("issue verification token", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	dto := mapAccount(*user)
	return &dto, nil
}

// Login checks the credentials and issues an access token.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	ctx = ensureContext(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("account service: load user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		s.log.Warn("record last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	user.LastLoginAt = &now

	token, err := s.jwt.GenerateAccessToken(auth.AccessTokenInput{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("account service: issue token: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   now.Add(s.jwt.TTL()),
		Account:     mapAccount(user),
	}, nil
}

// Get returns the account with the given ID.
func (s *AccountService) Get(ctx context.Context, userID string) (*AccountDTO, error) {
	ctx = ensureContext(ctx)
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", strings.TrimSpace(userID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("account service: load user: %w", err)
	}
	dto := mapAccount(user)
	return &dto, nil
}

// EnsureAdmin creates an administrator account when none exists with the email. It
// reports whether an account was created.
func (s *AccountService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	ctx = ensureContext(ctx)

	email, err := normaliseEmail(email)
	if err != nil {
		return false, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("account service: check admin: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if len(password) < crypto.MinPasswordLength {
		return false, fmt.Errorf("account service: admin password must be at least %d characters", crypto.MinPasswordLength)
	}

	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("account service: hash password: %w", err)
	}

	now := s.now().UTC()
	admin := models.User{
		Email:           email,
		Password:        hashed,
		IsAdmin:         true,
		EmailVerified:   true,
		EmailVerifiedAt: &now,
	}
	if err := s.db.WithContext(ctx).Omit("Profile").Create(&admin).Error; err != nil {
		if isUniqueConstraintError(err) {
			return false, nil
		}
		return false, fmt.Errorf("account service: create admin: %w", err)
	}

	s.log.Info("bootstrap administrator created", zap.String("email", email))
	return true, nil
}

func normaliseEmail(value string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(value))
	if email == "" {
		return "", apperrors.NewBadRequest("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperrors.NewBadRequest("email is invalid")
	}
	return email, nil
}

func mapAccount(u models.User) AccountDTO {
	return AccountDTO{
		ID:            u.ID,
		Email:         u.Email,
		IsAdmin:       u.IsAdmin,
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}
