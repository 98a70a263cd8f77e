package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/volunteerhub/internal/handlers/testutil"
	"github.com/charlesng35/volunteerhub/internal/realtime"
)

func TestRealtimeHandler_RejectsMissingToken(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/api/realtime", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.Request(http.MethodGet, "/api/realtime?token=garbage", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRealtimeHandler_AssignmentsStreamIsAdminOnly(t *testing.T) {
	env := testutil.NewEnv(t)
	ana := env.Register("ana@example.com", "s3cret-pass", "Ana Ruiz")

	w := env.Request(http.MethodGet, "/api/realtime?stream=assignments&token="+ana.Token, nil, "")
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.Request(http.MethodGet, "/api/realtime?streams=notifications,bogus&token="+ana.Token, nil, "")
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRealtimeHandler_DeliversNotifications(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateAdmin("admin@example.com", "admin-pass-123")
	ana := env.Register("ana@example.com", "s3cret-pass", "Ana Ruiz")
	event := createEvent(t, env, admin.Token, foodDrive())

	server := httptest.NewServer(env.Router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/realtime?token=" + ana.Token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return env.Hub.Connections(ana.ID) == 1 }, 2*time.Second, 10*time.Millisecond)

	w := env.Request(http.MethodPost, "/api/match/assign", map[string]string{
		"event_id":     event.ID,
		"volunteer_id": ana.ID,
	}, admin.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg realtime.Message
	require.NoError(t, json.Unmarshal(payload, &msg))
	require.Equal(t, realtime.StreamNotifications, msg.Stream)
}
