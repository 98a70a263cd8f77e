package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/volunteerhub/internal/app"
	"github.com/charlesng35/volunteerhub/internal/models"
)

func testConfig(t *testing.T) *app.Config {
	t.Helper()
	cfg := &app.Config{
		Database: app.DatabaseConfig{
			Driver: "sqlite",
			Path:   filepath.Join(t.TempDir(), "volunteerhub.sqlite"),
		},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{Secret: "bootstrap-test-secret-32-bytes-long!", TTL: time.Hour},
			Bootstrap: app.BootstrapSettings{
				AdminEmail:    "Admin@Example.com",
				AdminPassword: "admin-pass-123",
			},
		},
		Maintenance: app.MaintenanceConfig{
			Enabled:               true,
			TokenSchedule:         "@daily",
			NotificationSchedule:  "@daily",
			NotificationRetention: 30 * 24 * time.Hour,
		},
	}
	return cfg
}

func TestBootstrapRuntime(t *testing.T) {
	cfg := testConfig(t)
	log := zap.NewNop()

	stack, err := bootstrapRuntime(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), log) })

	require.NotNil(t, stack.Router)
	require.NotNil(t, stack.Cleaner)

	var admin models.User
	require.NoError(t, stack.DB.Where("email = ?", "admin@example.com").First(&admin).Error)
	require.True(t, admin.IsAdmin)

	w := httptest.NewRecorder()
	stack.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestBootstrapRuntimeIsRestartable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Maintenance.Enabled = false
	log := zap.NewNop()

	first, err := bootstrapRuntime(context.Background(), cfg, log)
	require.NoError(t, err)
	first.Shutdown(context.Background(), log)

	second, err := bootstrapRuntime(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { second.Shutdown(context.Background(), log) })

	var admins int64
	require.NoError(t, second.DB.Model(&models.User{}).Where("is_admin = ?", true).Count(&admins).Error)
	require.EqualValues(t, 1, admins)
	require.Nil(t, second.Cleaner)
}

func TestBootstrapRuntimeRejectsBadSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Maintenance.TokenSchedule = "every now and then"

	_, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.ErrorContains(t, err, "start maintenance jobs")
}

func TestBootstrapRuntimeRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "oracle"

	_, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.ErrorContains(t, err, "unsupported database driver")
}

func TestLoadApplicationConfig(t *testing.T) {
	_, err := loadApplicationConfig(filepath.Join(t.TempDir(), "missing"))
	require.ErrorContains(t, err, "does not exist")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9100\n"), 0o600))

	cfg, err := loadApplicationConfig(path)
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	require.Contains(t, out.String(), "volunteerhub-server version: dev")
}

func TestMigrateCommandSeedsDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "migrate.sqlite")
	config := "database:\n  driver: sqlite\n  path: " + dbPath + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(config), 0o600))

	require.NoError(t, run(context.Background(), []string{"migrate", "--config", dir}))

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	require.Positive(t, info.Size())
}

func TestMigrateCommandMissingConfig(t *testing.T) {
	err := run(context.Background(), []string{"migrate", "--config", filepath.Join(t.TempDir(), "nope")})
	require.ErrorContains(t, err, "does not exist")
}
