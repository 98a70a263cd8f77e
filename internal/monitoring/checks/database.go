// Package checks provides the health probes registered by the API router.
package checks

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/volunteerhub/internal/monitoring"
)

const defaultDatabaseTimeout = 2 * time.Second

// Database returns a readiness probe that pings the store.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	if timeout <= 0 {
		timeout = defaultDatabaseTimeout
	}
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if db == nil {
			return monitoring.ResultFromError(errors.New("database not configured"), time.Since(start))
		}

		sqlDB, err := db.DB()
		if err != nil {
			return monitoring.ResultFromError(err, time.Since(start))
		}

		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return monitoring.ResultFromError(sqlDB.PingContext(probeCtx), time.Since(start))
	})
}
