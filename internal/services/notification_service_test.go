package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/volunteerhub/internal/models"
	"github.com/charlesng35/volunteerhub/internal/realtime"
	apperrors "github.com/charlesng35/volunteerhub/pkg/errors"
)

func TestNotificationServiceCreateAndList(t *testing.T) {
	db := openServiceTestDB(t)
	user := seedVolunteer(t, db, volunteerSeed{email: "ana@example.com"})

	svc, err := NewNotificationService(db, realtime.NewHub())
	require.NoError(t, err)

	ctx := context.Background()
	dto, err := svc.Create(ctx, CreateNotificationInput{
		UserID:   user.ID,
		Type:     models.NotificationTypeAssignment,
		Title:    "New assignment",
		Message:  "You have been assigned to Food Drive",
		Metadata: map[string]any{"event_id": "evt-1"},
	})
	require.NoError(t, err)
	require.Equal(t, "info", dto.Severity)

	items, total, err := svc.ListForUser(ctx, ListNotificationsInput{UserID: user.ID, Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	require.Equal(t, dto.ID, items[0].ID)
	require.False(t, items[0].IsRead)
	require.Equal(t, "evt-1", items[0].Metadata["event_id"])
}

func TestNotificationServiceRequiresUserAndType(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateNotificationInput{Type: "x"})
	require.Error(t, err)
	_, err = svc.Create(context.Background(), CreateNotificationInput{UserID: "u"})
	require.Error(t, err)

	_, err = NewNotificationService(nil, nil)
	require.Error(t, err)
}

func TestNotificationServiceMarkReadUnreadAndDelete(t *testing.T) {
	db := openServiceTestDB(t)
	user := seedVolunteer(t, db, volunteerSeed{email: "bo@example.com"})

	svc, err := NewNotificationService(db, realtime.NewHub())
	require.NoError(t, err)

	ctx := context.Background()
	dto, err := svc.Create(ctx, CreateNotificationInput{UserID: user.ID, Type: models.NotificationTypeWelcome, Title: "Welcome"})
	require.NoError(t, err)

	read, err := svc.MarkRead(ctx, user.ID, dto.ID)
	require.NoError(t, err)
	require.True(t, read.IsRead)
	require.NotNil(t, read.ReadAt)

	unread, err := svc.MarkUnread(ctx, user.ID, dto.ID)
	require.NoError(t, err)
	require.False(t, unread.IsRead)
	require.Nil(t, unread.ReadAt)

	_, err = svc.MarkRead(ctx, "someone-else", dto.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, user.ID, dto.ID))
	require.ErrorIs(t, svc.Delete(ctx, user.ID, dto.ID), apperrors.ErrNotFound)
}

func TestNotificationServiceMarkAllReadAndUnreadFilter(t *testing.T) {
	db := openServiceTestDB(t)
	user := seedVolunteer(t, db, volunteerSeed{email: "cy@example.com"})

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, CreateNotificationInput{UserID: user.ID, Type: models.NotificationTypeEventUpdated, Title: "Updated"})
		require.NoError(t, err)
	}

	unread, total, err := svc.ListForUser(ctx, ListNotificationsInput{UserID: user.ID, UnreadOnly: true})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, unread, 3)

	require.NoError(t, svc.MarkAllRead(ctx, user.ID))

	unread, total, err = svc.ListForUser(ctx, ListNotificationsInput{UserID: user.ID, UnreadOnly: true})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, unread)
}

func TestNotifyPersistsAndEmailsVerifiedVolunteer(t *testing.T) {
	db := openServiceTestDB(t)
	user := seedVolunteer(t, db, volunteerSeed{email: "verified@example.com", verified: true})

	mailer := &fakeMailer{}
	svc, err := NewNotificationService(db, nil, WithNotificationMailer(mailer))
	require.NoError(t, err)

	svc.Notify(context.Background(), CreateNotificationInput{
		UserID:  user.ID,
		Type:    models.NotificationTypeAssignment,
		Title:   "New assignment",
		Message: "You have been assigned to Food Drive on 2025-07-02.",
	})
	svc.Wait()

	require.EqualValues(t, 1, countRows(t, db, &models.Notification{}, "user_id = ? AND is_read = ?", user.ID, false))

	sent := mailer.sent()
	require.Len(t, sent, 1)
	require.Equal(t, []string{"verified@example.com"}, sent[0].To)
	require.Equal(t, "New assignment", sent[0].Subject)
	require.Contains(t, sent[0].Body, "Food Drive")
}

func TestNotifySkipsEmailForUnverifiedVolunteer(t *testing.T) {
	db := openServiceTestDB(t)
	user := seedVolunteer(t, db, volunteerSeed{email: "pending@example.com"})

	mailer := &fakeMailer{}
	svc, err := NewNotificationService(db, nil, WithNotificationMailer(mailer))
	require.NoError(t, err)

	svc.Notify(context.Background(), CreateNotificationInput{UserID: user.ID, Type: models.NotificationTypeWelcome, Title: "Welcome"})
	svc.Wait()

	require.EqualValues(t, 1, countRows(t, db, &models.Notification{}, "user_id = ?", user.ID))
	require.Empty(t, mailer.sent())
}

func TestNotifyDeliveryFailureKeepsNotification(t *testing.T) {
	db := openServiceTestDB(t)
	user := seedVolunteer(t, db, volunteerSeed{email: "bounce@example.com", verified: true})

	mailer := &fakeMailer{err: errors.New("smtp: connection refused")}
	svc, err := NewNotificationService(db, nil, WithNotificationMailer(mailer))
	require.NoError(t, err)

	svc.Notify(context.Background(), CreateNotificationInput{UserID: user.ID, Type: models.NotificationTypeAssignment, Title: "New assignment"})
	svc.Wait()

	require.Len(t, mailer.sent(), 1)
	var stored models.Notification
	require.NoError(t, db.First(&stored, "user_id = ?", user.ID).Error)
	require.False(t, stored.IsRead)
}

func TestNotifyDeliveryOutlivesCancelledContext(t *testing.T) {
	db := openServiceTestDB(t)
	user := seedVolunteer(t, db, volunteerSeed{email: "late@example.com", verified: true})

	mailer := &fakeMailer{}
	svc, err := NewNotificationService(db, nil, WithNotificationMailer(mailer))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	svc.Notify(ctx, CreateNotificationInput{UserID: user.ID, Type: models.NotificationTypeAssignment, Title: "New assignment"})
	cancel()
	svc.Wait()

	require.Len(t, mailer.sent(), 1)
}

func TestNotifyPersistsWithCancelledContext(t *testing.T) {
	db := openServiceTestDB(t)
	user := seedVolunteer(t, db, volunteerSeed{email: "gone@example.com", verified: true})

	mailer := &fakeMailer{}
	svc, err := NewNotificationService(db, nil, WithNotificationMailer(mailer))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Notify(ctx, CreateNotificationInput{UserID: user.ID, Type: models.NotificationTypeAssignment, Title: "New assignment"})
	svc.Wait()

	require.EqualValues(t, 1, countRows(t, db, &models.Notification{}, "user_id = ?", user.ID))
	require.Len(t, mailer.sent(), 1)
}

func TestNotifyEmailDeliveryDisabled(t *testing.T) {
	db := openServiceTestDB(t)
	user := seedVolunteer(t, db, volunteerSeed{email: "off@example.com", verified: true})

	mailer := &fakeMailer{}
	svc, err := NewNotificationService(db, nil, WithNotificationMailer(mailer), WithEmailDelivery(false))
	require.NoError(t, err)

	svc.Notify(context.Background(), CreateNotificationInput{UserID: user.ID, Type: models.NotificationTypeWelcome, Title: "Welcome"})
	svc.Wait()

	require.EqualValues(t, 1, countRows(t, db, &models.Notification{}, "user_id = ?", user.ID))
	require.Empty(t, mailer.sent())
}

func TestPruneReadNotifications(t *testing.T) {
	db := openServiceTestDB(t)
	user := seedVolunteer(t, db, volunteerSeed{email: "prune@example.com"})

	old := time.Now().Add(-60 * 24 * time.Hour)
	rows := []models.Notification{
		{BaseModel: models.BaseModel{CreatedAt: old}, UserID: user.ID, Type: "welcome", Title: "old read", IsRead: true},
		{BaseModel: models.BaseModel{CreatedAt: old}, UserID: user.ID, Type: "welcome", Title: "old unread"},
		{UserID: user.ID, Type: "welcome", Title: "fresh read", IsRead: true},
	}
	require.NoError(t, db.Create(&rows).Error)

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	removed, err := svc.PruneRead(context.Background(), time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)
	require.EqualValues(t, 2, countRows(t, db, &models.Notification{}, "user_id = ?", user.ID))
}
