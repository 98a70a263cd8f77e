package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/volunteerhub/internal/handlers/testutil"
	"github.com/charlesng35/volunteerhub/internal/models"
)

type notificationPayload struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	IsRead bool   `json:"is_read"`
}

func listNotifications(t *testing.T, env *testutil.Env, token, query string) ([]notificationPayload, int) {
	t.Helper()
	w := env.Request(http.MethodGet, "/api/notifications"+query, nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	var items []notificationPayload
	testutil.DecodeInto(t, resp.Data, &items)
	return items, resp.Meta.Total
}

func TestNotificationHandler_Lifecycle(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateAdmin("admin@example.com", "admin-pass-123")
	ana := env.Register("ana@example.com", "s3cret-pass", "Ana Ruiz")
	event := createEvent(t, env, admin.Token, foodDrive())

	w := env.Request(http.MethodPost, "/api/match/assign", map[string]string{
		"event_id":     event.ID,
		"volunteer_id": ana.ID,
	}, admin.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	items, total := listNotifications(t, env, ana.Token, "?unread=true")
	require.Equal(t, 2, total)
	types := []string{items[0].Type, items[1].Type}
	require.ElementsMatch(t, []string{models.NotificationTypeWelcome, models.NotificationTypeAssignment}, types)

	var assignment notificationPayload
	for _, item := range items {
		if item.Type == models.NotificationTypeAssignment {
			assignment = item
		}
	}

	w = env.Request(http.MethodPost, "/api/notifications/"+assignment.ID+"/read", nil, ana.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, total = listNotifications(t, env, ana.Token, "?unread=true")
	require.Equal(t, 1, total)

	w = env.Request(http.MethodPost, "/api/notifications/"+assignment.ID+"/unread", nil, ana.Token)
	require.Equal(t, http.StatusOK, w.Code)
	_, total = listNotifications(t, env, ana.Token, "?unread=true")
	require.Equal(t, 2, total)

	w = env.Request(http.MethodPost, "/api/notifications/read-all", nil, ana.Token)
	require.Equal(t, http.StatusOK, w.Code)
	_, total = listNotifications(t, env, ana.Token, "?unread=true")
	require.Zero(t, total)

	w = env.Request(http.MethodDelete, "/api/notifications/"+assignment.ID, nil, ana.Token)
	require.Equal(t, http.StatusOK, w.Code)
	_, total = listNotifications(t, env, ana.Token, "")
	require.Equal(t, 1, total)
}

func TestNotificationHandler_ScopedToOwner(t *testing.T) {
	env := testutil.NewEnv(t)
	ana := env.Register("ana@example.com", "s3cret-pass", "Ana Ruiz")
	ben := env.Register("ben@example.com", "s3cret-pass", "Ben Ode")

	items, _ := listNotifications(t, env, ana.Token, "")
	require.Len(t, items, 1)

	w := env.Request(http.MethodPost, "/api/notifications/"+items[0].ID+"/read", nil, ben.Token)
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}
