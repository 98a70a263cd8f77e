package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/volunteerhub/internal/models"
	"github.com/charlesng35/volunteerhub/pkg/crypto"
	apperrors "github.com/charlesng35/volunteerhub/pkg/errors"
	"github.com/charlesng35/volunteerhub/pkg/mail"
)

const (
	defaultVerificationExpiry     = 24 * time.Hour
	defaultVerificationTokenBytes = 32
)

var (
	// ErrVerificationNotFound indicates the token does not exist.
	ErrVerificationNotFound = apperrors.New("VERIFICATION_NOT_FOUND", "Verification token is invalid", http.StatusBadRequest)
	// ErrVerificationExpired indicates the verification token has expired.
	ErrVerificationExpired = apperrors.New("VERIFICATION_EXPIRED", "Verification token has expired", http.StatusBadRequest)
	// ErrVerificationUsed signals that the verification token has already been consumed.
	ErrVerificationUsed = apperrors.New("VERIFICATION_USED", "Verification token has already been used", http.StatusConflict)
)

// VerificationOption customises the EmailVerificationService.
type VerificationOption func(*EmailVerificationService)

// WithVerificationBaseURL sets the base URL used in verification links.
func WithVerificationBaseURL(url string) VerificationOption {
	return func(s *EmailVerificationService) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// WithVerificationExpiry overrides the token lifetime.
func WithVerificationExpiry(d time.Duration) VerificationOption {
	return func(s *EmailVerificationService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithVerificationClock injects a custom time source.
func WithVerificationClock(clock func() time.Time) VerificationOption {
	return func(s *EmailVerificationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// EmailVerificationService issues and consumes email verification tokens. A consumed
// token marks the account's email as verified, which enables email notifications.
type EmailVerificationService struct {
	db          *gorm.DB
	mailer      mail.Mailer
	baseURL     string
	expiry      time.Duration
	tokenLength int
	now         func() time.Time
}

// NewEmailVerificationService constructs a verification service with the provided dependencies.
func NewEmailVerificationService(db *gorm.DB, mailer mail.Mailer, opts ...VerificationOption) (*EmailVerificationService, error) {
	if db == nil {
		return nil, errors.New("email verification service: db is required")
	}

	service := &EmailVerificationService{
		db:          db,
		mailer:      mailer,
		expiry:      defaultVerificationExpiry,
		tokenLength: defaultVerificationTokenBytes,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// CreateToken issues a verification token for the user, replacing earlier ones, and
// emails the link when a mailer is configured.
func (s *EmailVerificationService) CreateToken(ctx context.Context, userID, email string) (string, string, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	email = strings.TrimSpace(strings.ToLower(email))
	if userID == "" {
		return "", "", errors.New("email verification service: user id is required")
	}
	if email == "" {
		return "", "", errors.New("email verification service: email is required")
	}

	token, err := crypto.GenerateToken(s.tokenLength)
	if err != nil {
		return "", "", fmt.Errorf("email verification service: generate token: %w", err)
	}

	verification := models.EmailVerification{
		UserID:    userID,
		TokenHash: crypto.HashToken(token),
		ExpiresAt: s.now().Add(s.expiry),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.EmailVerification{}).Error; err != nil {
			return fmt.Errorf("email verification service: cleanup existing: %w", err)
		}
		if err := tx.Create(&verification).Error; err != nil {
			return fmt.Errorf("email verification service: create token: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}

	link := s.verificationLink(token)

	if s.mailer != nil {
		message := mail.Message{
			To:      []string{email},
			Subject: "Confirm your email address",
			Body:    s.verificationBody(link),
		}
		if mailErr := s.mailer.Send(ctx, message); mailErr != nil && !errors.Is(mailErr, mail.ErrSMTPDisabled) {
			return token, link, fmt.Errorf("email verification service: send email: %w", mailErr)
		}
	}

	return token, link, nil
}

// VerifyToken consumes a verification token and marks the owner's email verified.
func (s *EmailVerificationService) VerifyToken(ctx context.Context, token string) (*models.EmailVerification, error) {
	ctx = ensureContext(ctx)
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.NewBadRequest("token is required")
	}

	var verification models.EmailVerification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token_hash = ?", crypto.HashToken(token)).First(&verification).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVerificationNotFound
			}
			return fmt.Errorf("email verification service: find token: %w", err)
		}

		now := s.now().UTC()
		if verification.VerifiedAt != nil {
			return ErrVerificationUsed
		}
		if verification.ExpiresAt.Before(now) {
			return ErrVerificationExpired
		}

		if err := tx.Model(&verification).Update("verified_at", now).Error; err != nil {
			return fmt.Errorf("email verification service: mark verified: %w", err)
		}
		if err := tx.Model(&models.User{}).
			Where("id = ?", verification.UserID).
			Updates(map[string]any{"email_verified": true, "email_verified_at": now}).Error; err != nil {
			return fmt.Errorf("email verification service: mark user verified: %w", err)
		}
		verification.VerifiedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &verification, nil
}

// PurgeStale deletes tokens that were consumed or expired before the cutoff.
func (s *EmailVerificationService) PurgeStale(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)
	result := s.db.WithContext(ctx).
		Where("expires_at < ? OR (verified_at IS NOT NULL AND verified_at < ?)", cutoff, cutoff).
		Delete(&models.EmailVerification{})
	if result.Error != nil {
		return 0, fmt.Errorf("email verification service: purge stale: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *EmailVerificationService) verificationLink(token string) string {
	if s.baseURL == "" {
		return token
	}
	return fmt.Sprintf("%s?token=%s", s.baseURL, token)
}

func (s *EmailVerificationService) verificationBody(link string) string {
	return fmt.Sprintf("Thanks for signing up to volunteer!\n\nPlease confirm your email address by visiting the link below:\n%s\n\nOnce confirmed you will receive assignment updates by email.\n", link)
}
