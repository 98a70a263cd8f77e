package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/volunteerhub/internal/app"
	iauth "github.com/charlesng35/volunteerhub/internal/auth"
	"github.com/charlesng35/volunteerhub/internal/handlers"
	"github.com/charlesng35/volunteerhub/internal/middleware"
	"github.com/charlesng35/volunteerhub/internal/monitoring"
	"github.com/charlesng35/volunteerhub/internal/monitoring/checks"
	"github.com/charlesng35/volunteerhub/internal/realtime"
)

// RouterOption customises NewRouter.
type RouterOption func(*routerOptions)

type routerOptions struct {
	readiness []monitoring.Check
}

// WithReadinessChecks registers extra readiness probes next to the database probe.
func WithReadinessChecks(probes ...monitoring.Check) RouterOption {
	return func(o *routerOptions) {
		o.readiness = append(o.readiness, probes...)
	}
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, hub *realtime.Hub, svc *Services, opts ...RouterOption) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if err := svc.validate(); err != nil {
		return nil, err
	}

	var options routerOptions
	for _, opt := range opts {
		opt(&options)
	}

	health := monitoring.NewHealthManager(0)
	health.RegisterLiveness(monitoring.NewCheck("process", func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))
	health.RegisterReadiness(checks.Database(db, 0))
	health.RegisterReadiness(options.readiness...)

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins...))

	registerHealthRoutes(r, health)

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(svc.Accounts, svc.Verification)
	registerPublicAuthRoutes(r, authHandler, middleware.RateLimit(cfg.Auth.RateLimit.Requests, cfg.Auth.RateLimit.Window))

	realtimeHandler := handlers.NewRealtimeHandler(hub, jwt)
	r.GET("/api/realtime", realtimeHandler.Stream)

	api := r.Group("/api")
	api.Use(middleware.Auth(jwt))
	requireAdmin := middleware.RequireAdmin()

	api.GET("/auth/me", authHandler.Me)
	registerProfileRoutes(api, handlers.NewProfileHandler(svc.Profiles))
	registerSkillRoutes(api, handlers.NewSkillHandler(svc.Skills), requireAdmin)
	registerEventRoutes(api, handlers.NewEventHandler(svc.Events, svc.Assignments), requireAdmin)
	registerMatchRoutes(api, handlers.NewMatchHandler(svc.Matching, svc.Assignments), requireAdmin)
	registerHistoryRoutes(api, handlers.NewHistoryHandler(svc.History), requireAdmin)
	registerNotificationRoutes(api, handlers.NewNotificationHandler(svc.Notifications))

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
