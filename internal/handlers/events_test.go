package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/volunteerhub/internal/handlers/testutil"
)

type eventPayload struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Location string   `json:"location"`
	Date     string   `json:"date"`
	Urgency  string   `json:"urgency"`
	Skills   []string `json:"skills"`
}

func createEvent(t *testing.T, env *testutil.Env, token string, body map[string]any) eventPayload {
	t.Helper()

	w := env.Request(http.MethodPost, "/api/events", body, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var event eventPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &event)
	return event
}

func foodDrive() map[string]any {
	return map[string]any{
		"name":     "Food Drive",
		"location": "Community Center, Austin, TX",
		"date":     "2030-07-02",
		"urgency":  "high",
		"skills":   []string{"cooking"},
	}
}

func TestEventHandler_CRUD(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateAdmin("admin@example.com", "admin-pass-123")

	event := createEvent(t, env, admin.Token, foodDrive())
	require.NotEmpty(t, event.ID)
	require.Equal(t, "2030-07-02", event.Date)
	require.Equal(t, "high", event.Urgency)
	require.Equal(t, []string{"cooking"}, event.Skills)

	w := env.Request(http.MethodGet, "/api/events/"+event.ID, nil, admin.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	update := foodDrive()
	update["name"] = "Winter Food Drive"
	update["skills"] = []string{"driving", "logistics"}
	w = env.Request(http.MethodPut, "/api/events/"+event.ID, update, admin.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated eventPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &updated)
	require.Equal(t, "Winter Food Drive", updated.Name)
	require.ElementsMatch(t, []string{"driving", "logistics"}, updated.Skills)

	w = env.Request(http.MethodGet, "/api/events", nil, admin.Token)
	require.Equal(t, http.StatusOK, w.Code)
	resp := testutil.DecodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	require.Equal(t, 1, resp.Meta.Total)

	w = env.Request(http.MethodDelete, "/api/events/"+event.ID, nil, admin.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.Request(http.MethodGet, "/api/events/"+event.ID, nil, admin.Token)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "EVENT_NOT_FOUND", testutil.DecodeResponse(t, w).Error.Code)
}

func TestEventHandler_CreateValidation(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateAdmin("admin@example.com", "admin-pass-123")

	body := foodDrive()
	body["date"] = "07/02/2030"
	body["urgency"] = "critical"
	w := env.Request(http.MethodPost, "/api/events", body, admin.Token)
	require.Equal(t, http.StatusBadRequest, w.Code)

	msg := testutil.DecodeResponse(t, w).Error.Message
	require.Contains(t, msg, "date must be a YYYY-MM-DD date")
	require.Contains(t, msg, "urgency must be one of low medium high")

	body = foodDrive()
	body["skills"] = []string{"juggling"}
	w = env.Request(http.MethodPost, "/api/events", body, admin.Token)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	require.Equal(t, "UNKNOWN_SKILL", testutil.DecodeResponse(t, w).Error.Code)
}

func TestEventHandler_MutationsRequireAdmin(t *testing.T) {
	env := testutil.NewEnv(t)
	volunteer := env.Register("ana@example.com", "s3cret-pass", "Ana Ruiz")

	w := env.Request(http.MethodPost, "/api/events", foodDrive(), volunteer.Token)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.Request(http.MethodGet, "/api/events", nil, volunteer.Token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.Request(http.MethodGet, "/api/events", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
