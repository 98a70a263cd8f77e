package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/volunteerhub/internal/api"
	"github.com/charlesng35/volunteerhub/internal/app"
	"github.com/charlesng35/volunteerhub/internal/app/maintenance"
	iauth "github.com/charlesng35/volunteerhub/internal/auth"
	"github.com/charlesng35/volunteerhub/internal/database"
	"github.com/charlesng35/volunteerhub/internal/monitoring/checks"
	"github.com/charlesng35/volunteerhub/internal/realtime"
	"github.com/charlesng35/volunteerhub/pkg/logger"
	"github.com/charlesng35/volunteerhub/pkg/mail"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB       *gorm.DB
	Hub      *realtime.Hub
	Services *api.Services
	Cleaner  *maintenance.Cleaner
	Router   *gin.Engine
}

// bootstrapRuntime opens the database, builds the domain services and the HTTP router,
// provisions the bootstrap administrator and starts maintenance jobs.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return nil, fmt.Errorf("initialise mailer: %w", err)
	}

	stack.Hub = realtime.NewHub(realtime.WithAllowedOrigins(cfg.Server.AllowedOrigins))

	stack.Services, err = api.NewServices(stack.DB, jwtSvc, cfg, stack.Hub, mailer)
	if err != nil {
		return nil, fmt.Errorf("initialise services: %w", err)
	}

	if cfg.Auth.BootstrapAdminEnabled() {
		if _, err := stack.Services.Accounts.EnsureAdmin(ctx, cfg.Auth.Bootstrap.AdminEmail, cfg.Auth.Bootstrap.AdminPassword); err != nil {
			return nil, fmt.Errorf("bootstrap administrator: %w", err)
		}
	}

	if cfg.Maintenance.Enabled {
		stack.Cleaner = maintenance.NewCleaner(stack.Services.Verification, stack.Services.Notifications,
			maintenance.WithTokenSchedule(cfg.Maintenance.TokenSchedule),
			maintenance.WithNotificationSchedule(cfg.Maintenance.NotificationSchedule),
			maintenance.WithNotificationRetention(cfg.Maintenance.NotificationRetention),
		)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	var routerOpts []api.RouterOption
	if stack.Cleaner != nil {
		routerOpts = append(routerOpts, api.WithReadinessChecks(checks.Maintenance(stack.Cleaner, 0)))
	}

	stack.Router, err = api.NewRouter(stack.DB, jwtSvc, cfg, stack.Hub, stack.Services, routerOpts...)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown stops background jobs, waits for pending email deliveries and releases the database.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if stopCtx != nil {
			ctx = stopCtx
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
		s.Cleaner = nil
	}

	if s.Services != nil && s.Services.Notifications != nil {
		s.Services.Notifications.Wait()
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
		s.DB = nil
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		closeDatabase(db, logger.WithModule("database"))
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
