package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/volunteerhub/internal/models"
	"github.com/charlesng35/volunteerhub/internal/realtime"
	apperrors "github.com/charlesng35/volunteerhub/pkg/errors"
	"github.com/charlesng35/volunteerhub/pkg/logger"
	"github.com/charlesng35/volunteerhub/pkg/mail"
	"github.com/charlesng35/volunteerhub/pkg/metrics"
)

// NotificationDTO represents the API-friendly notification payload.
type NotificationDTO struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Severity  string         `json:"severity"`
	ActionURL string         `json:"action_url,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	IsRead    bool           `json:"is_read"`
	CreatedAt time.Time      `json:"created_at"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
}

// CreateNotificationInput defines attributes required to persist a notification.
type CreateNotificationInput struct {
	UserID    string
	Type      string
	Title     string
	Message   string
	Severity  string
	ActionURL string
	Metadata  map[string]any
}

// ListNotificationsInput defines filters for querying user notifications.
type ListNotificationsInput struct {
	UserID     string
	UnreadOnly bool
	Limit      int
	Offset     int
}

// NotificationEventPayload represents data sent to realtime consumers.
type NotificationEventPayload struct {
	Notification   *NotificationDTO `json:"notification,omitempty"`
	NotificationID string           `json:"notification_id,omitempty"`
}

// Notifier informs a user about something that happened to them.
type Notifier interface {
	Notify(ctx context.Context, input CreateNotificationInput)
}

// NotificationOption customises the NotificationService.
type NotificationOption func(*NotificationService)

// WithNotificationMailer enables email delivery for verified accounts.
func WithNotificationMailer(mailer mail.Mailer) NotificationOption {
	return func(s *NotificationService) {
		s.mailer = mailer
	}
}

// WithEmailDelivery toggles email delivery without removing the mailer.
func WithEmailDelivery(enabled bool) NotificationOption {
	return func(s *NotificationService) {
		s.emailEnabled = enabled
	}
}

// NotificationService persists in-app notifications and delivers them by email.
type NotificationService struct {
	db           *gorm.DB
	hub          *realtime.Hub
	mailer       mail.Mailer
	emailEnabled bool
	log          *zap.Logger
	pending      sync.WaitGroup
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB, hub *realtime.Hub, opts ...NotificationOption) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	svc := &NotificationService{
		db:           db,
		hub:          hub,
		emailEnabled: true,
		log:          logger.WithModule("notifications"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Notify persists an unread notification and, when the recipient's email is
// verified, sends a copy by email in the background. Failures are logged and never
// returned. The caller's cancellation does not apply: the record is written even
// when the originating request has already gone away.
func (s *NotificationService) Notify(ctx context.Context, input CreateNotificationInput) {
	ctx = context.WithoutCancel(ensureContext(ctx))

	dto, err := s.Create(ctx, input)
	if err != nil {
		s.log.Error("persist notification", zap.String("user_id", input.UserID), zap.String("type", input.Type), zap.Error(err))
		return
	}

	if s.mailer == nil || !s.emailEnabled {
		metrics.NotificationDeliveries.WithLabelValues("email", "disabled").Inc()
		return
	}

	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "email", "email_verified").First(&user, "id = ?", dto.UserID).Error; err != nil {
		s.log.Warn("load notification recipient", zap.String("user_id", dto.UserID), zap.Error(err))
		return
	}
	if !user.EmailVerified {
		metrics.NotificationDeliveries.WithLabelValues("email", "skipped").Inc()
		return
	}

	message := mail.Message{
		To:      []string{user.Email},
		Subject: dto.Title,
		Body:    dto.Message,
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.mailer.Send(ctx, message); err != nil {
			if errors.Is(err, mail.ErrSMTPDisabled) {
				metrics.NotificationDeliveries.WithLabelValues("email", "disabled").Inc()
				return
			}
			metrics.NotificationDeliveries.WithLabelValues("email", "failed").Inc()
			s.log.Warn("email delivery failed",
				zap.String("notification_id", dto.ID),
				zap.String("user_id", dto.UserID),
				zap.Error(err),
			)
			return
		}
		metrics.NotificationDeliveries.WithLabelValues("email", "sent").Inc()
	}()
}

// Wait blocks until every background delivery started by Notify has finished.
func (s *NotificationService) Wait() {
	s.pending.Wait()
}

// ListForUser returns notifications for the supplied user ordered by recency.
func (s *NotificationService) ListForUser(ctx context.Context, input ListNotificationsInput) ([]NotificationDTO, int64, error) {
	ctx = ensureContext(ctx)
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, 0, apperrors.NewBadRequest("user id is required")
	}

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	query := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if input.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("notification service: count notifications: %w", err)
	}

	var rows []models.Notification
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(max(0, input.Offset)).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("notification service: list notifications: %w", err)
	}

	return mapNotificationRows(rows), total, nil
}

// Create persists an unread notification and pushes it to realtime subscribers.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("notification service: user id is required")
	}
	notificationType := strings.TrimSpace(input.Type)
	if notificationType == "" {
		return nil, errors.New("notification service: type is required")
	}

	notification := models.Notification{
		UserID:    userID,
		Type:      notificationType,
		Title:     strings.TrimSpace(input.Title),
		Message:   strings.TrimSpace(input.Message),
		Severity:  strings.TrimSpace(defaultIfEmpty(input.Severity, "info")),
		ActionURL: strings.TrimSpace(input.ActionURL),
	}

	if input.Metadata != nil {
		data, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, fmt.Errorf("notification service: marshal metadata: %w", err)
		}
		notification.Metadata = datatypes.JSON(data)
	}

	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}

	dto := mapNotification(notification)
	s.broadcast(userID, "notification.created", &NotificationEventPayload{Notification: &dto})
	return &dto, nil
}

// MarkRead sets the notification read flag for a user.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) (*NotificationDTO, error) {
	return s.setRead(ctx, userID, notificationID, true)
}

// MarkUnread unsets the notification read flag.
func (s *NotificationService) MarkUnread(ctx context.Context, userID, notificationID string) (*NotificationDTO, error) {
	return s.setRead(ctx, userID, notificationID, false)
}

func (s *NotificationService) setRead(ctx context.Context, userID, notificationID string, read bool) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)
	var notification models.Notification
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("notification service: load notification: %w", err)
	}

	var readAt *time.Time
	if read {
		now := time.Now().UTC()
		readAt = &now
	}

	if err := s.db.WithContext(ctx).Model(&notification).
		Updates(map[string]any{
			"is_read": read,
			"read_at": readAt,
		}).Error; err != nil {
		return nil, fmt.Errorf("notification service: update read state: %w", err)
	}

	notification.IsRead = read
	notification.ReadAt = readAt
	dto := mapNotification(notification)

	event := "notification.unread"
	if read {
		event = "notification.read"
	}
	s.broadcast(userID, event, &NotificationEventPayload{Notification: &dto, NotificationID: notification.ID})
	return &dto, nil
}

// Delete removes a notification owned by the supplied user.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	ctx = ensureContext(ctx)
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return fmt.Errorf("notification service: delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}

	s.broadcast(userID, "notification.deleted", &NotificationEventPayload{NotificationID: notificationID})
	return nil
}

// MarkAllRead marks all notifications for the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{
			"is_read": true,
			"read_at": now,
		}).Error; err != nil {
		return fmt.Errorf("notification service: mark all read: %w", err)
	}

	s.broadcast(userID, "notification.read_all", nil)
	return nil
}

// PruneRead deletes read notifications older than the cutoff and reports how many
// rows were removed.
func (s *NotificationService) PruneRead(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)
	result := s.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: prune read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *NotificationService) broadcast(userID, event string, payload *NotificationEventPayload) {
	if s.hub == nil {
		return
	}
	message := realtime.Message{
		Stream: realtime.StreamNotifications,
		Event:  event,
	}
	if payload != nil {
		message.Data = payload
	}
	s.hub.Publish(userID, message)
}

func mapNotificationRows(rows []models.Notification) []NotificationDTO {
	items := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapNotification(row))
	}
	return items
}

func mapNotification(row models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        row.ID,
		UserID:    row.UserID,
		Type:      row.Type,
		Title:     row.Title,
		Message:   row.Message,
		Severity:  defaultIfEmpty(row.Severity, "info"),
		ActionURL: row.ActionURL,
		Metadata:  decodeJSON(row.Metadata),
		IsRead:    row.IsRead,
		CreatedAt: row.CreatedAt,
		ReadAt:    row.ReadAt,
	}
}

func decodeJSON(data datatypes.JSON) map[string]any {
	if len(data) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
