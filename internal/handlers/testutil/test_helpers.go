package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/volunteerhub/internal/api"
	"github.com/charlesng35/volunteerhub/internal/app"
	iauth "github.com/charlesng35/volunteerhub/internal/auth"
	sharedtestutil "github.com/charlesng35/volunteerhub/internal/database/testutil"
	"github.com/charlesng35/volunteerhub/internal/realtime"
	"github.com/charlesng35/volunteerhub/pkg/mail"
	"github.com/charlesng35/volunteerhub/pkg/response"
)

// Mailer records outbound messages instead of sending them.
type Mailer struct {
	mu       sync.Mutex
	messages []mail.Message
}

// Send records the message.
func (m *Mailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// Messages returns a copy of the recorded messages.
func (m *Mailer) Messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.messages...)
}

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T        *testing.T
	DB       *gorm.DB
	Router   *gin.Engine
	JWT      *iauth.JWTService
	Hub      *realtime.Hub
	Services *api.Services
	Mailer   *Mailer
}

// NewEnv provisions a fresh handler test environment with migrations and seed data applied.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithSeedData())

	cfg := &app.Config{
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: "test-suite-super-secret-key-32-bytes!!",
				Issuer: "test-suite",
				TTL:    time.Hour,
			},
		},
		Notifications: app.NotificationConfig{EmailEnabled: true},
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	hub := realtime.NewHub()
	mailer := &Mailer{}
	svc, err := api.NewServices(db, jwtSvc, cfg, hub, mailer)
	require.NoError(t, err)
	t.Cleanup(svc.Notifications.Wait)

	router, err := api.NewRouter(db, jwtSvc, cfg, hub, svc)
	require.NoError(t, err)

	return &Env{
		T:        t,
		DB:       db,
		Router:   router,
		JWT:      jwtSvc,
		Hub:      hub,
		Services: svc,
		Mailer:   mailer,
	}
}

// Account describes an authenticated test principal.
type Account struct {
	ID    string
	Email string
	Token string
}

// Register creates a volunteer through the API and logs in.
func (e *Env) Register(email, password, fullName string) Account {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/register", map[string]string{
		"email":     email,
		"password":  password,
		"full_name": fullName,
	}, "")
	require.Equal(e.T, http.StatusCreated, w.Code, w.Body.String())

	return e.Login(email, password)
}

// CreateAdmin provisions an administrator and logs in.
func (e *Env) CreateAdmin(email, password string) Account {
	e.T.Helper()

	created, err := e.Services.Accounts.EnsureAdmin(context.Background(), email, password)
	require.NoError(e.T, err)
	require.True(e.T, created)
	return e.Login(email, password)
}

// Login authenticates and returns the issued token.
func (e *Env) Login(email, password string) Account {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())

	var result struct {
		AccessToken string `json:"access_token"`
		Account     struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"account"`
	}
	DecodeInto(e.T, resp.Data, &result)
	require.NotEmpty(e.T, result.AccessToken)

	return Account{ID: result.Account.ID, Email: result.Account.Email, Token: result.AccessToken}
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	buf := bytes.NewBuffer(nil)
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
