package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/volunteerhub/internal/database/testutil"
	"github.com/charlesng35/volunteerhub/internal/models"
	"github.com/charlesng35/volunteerhub/pkg/mail"
)

type fakeMailer struct {
	mu       sync.Mutex
	messages []mail.Message
	err      error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return m.err
}

func (m *fakeMailer) sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mail.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []CreateNotificationInput
}

func (n *recordingNotifier) Notify(_ context.Context, input CreateNotificationInput) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, input)
}

func (n *recordingNotifier) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.calls))
	for _, call := range n.calls {
		out = append(out, call.UserID)
	}
	return out
}

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithSeedData())
}

type volunteerSeed struct {
	email    string
	name     string
	city     string
	state    string
	from     string
	until    string
	skills   []string
	verified bool
}

func seedVolunteer(t *testing.T, db *gorm.DB, seed volunteerSeed) models.User {
	t.Helper()

	user := models.User{Email: seed.email, Password: "hash", EmailVerified: seed.verified}
	require.NoError(t, db.Omit("Profile").Create(&user).Error)

	profile := models.VolunteerProfile{
		UserID:   user.ID,
		FullName: seed.name,
		City:     seed.city,
		State:    seed.state,
	}
	if seed.from != "" {
		from, err := time.Parse(DateLayout, seed.from)
		require.NoError(t, err)
		profile.AvailableFrom = &from
	}
	if seed.until != "" {
		until, err := time.Parse(DateLayout, seed.until)
		require.NoError(t, err)
		profile.AvailableUntil = &until
	}
	require.NoError(t, db.Omit("Skills").Create(&profile).Error)
	for _, skill := range seed.skills {
		require.NoError(t, db.Create(&models.ProfileSkill{UserID: user.ID, SkillName: skill}).Error)
	}
	return user
}

func seedAdmin(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	admin := models.User{Email: email, Password: "hash", IsAdmin: true, EmailVerified: true}
	require.NoError(t, db.Omit("Profile").Create(&admin).Error)
	return admin
}

func seedEvent(t *testing.T, db *gorm.DB, name, location, date string, skills ...string) models.Event {
	t.Helper()
	parsed, err := time.Parse(DateLayout, date)
	require.NoError(t, err)

	event := models.Event{Name: name, Location: location, Date: parsed, Urgency: models.UrgencyMedium}
	require.NoError(t, db.Omit("Skills").Create(&event).Error)
	for _, skill := range skills {
		require.NoError(t, db.Create(&models.EventSkill{EventID: event.ID, SkillName: skill}).Error)
	}
	return event
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}
