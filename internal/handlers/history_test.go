package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/volunteerhub/internal/handlers/testutil"
)

func TestHistoryHandler_RecordsAssignments(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateAdmin("admin@example.com", "admin-pass-123")
	ana := env.Register("ana@example.com", "s3cret-pass", "Ana Ruiz")
	ben := env.Register("ben@example.com", "s3cret-pass", "Ben Ode")
	event := createEvent(t, env, admin.Token, foodDrive())

	w := env.Request(http.MethodPost, "/api/match/assign", map[string]string{
		"event_id":     event.ID,
		"volunteer_id": ana.ID,
	}, admin.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.Request(http.MethodGet, "/api/history", nil, ana.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	var entries []struct {
		EventID   string `json:"event_id"`
		EventName string `json:"event_name"`
		Status    string `json:"status"`
	}
	testutil.DecodeInto(t, resp.Data, &entries)
	require.Len(t, entries, 1)
	require.Equal(t, event.ID, entries[0].EventID)
	require.Equal(t, "Food Drive", entries[0].EventName)
	require.Equal(t, 1, resp.Meta.Total)

	w = env.Request(http.MethodGet, "/api/history/"+ana.ID, nil, admin.Token)
	require.Equal(t, http.StatusOK, w.Code)
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &entries)
	require.Len(t, entries, 1)

	w = env.Request(http.MethodGet, "/api/history/"+ana.ID, nil, ben.Token)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.Request(http.MethodGet, "/api/history", nil, ben.Token)
	require.Equal(t, http.StatusOK, w.Code)
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &entries)
	require.Empty(t, entries)
}
