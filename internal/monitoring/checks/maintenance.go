package checks

import (
	"context"
	"strings"
	"time"

	"github.com/charlesng35/volunteerhub/internal/app/maintenance"
	"github.com/charlesng35/volunteerhub/internal/monitoring"
)

// The default cleanup schedule is daily; allow one missed run.
const defaultMaintenanceMaxAge = 48 * time.Hour

// JobReporter exposes the run history of background jobs.
type JobReporter interface {
	Jobs() []maintenance.JobStatus
}

// Maintenance reports down when a cleanup job keeps failing and degraded when its
// last run is older than maxAge. Jobs that have not run yet are reported as pending.
func Maintenance(reporter JobReporter, maxAge time.Duration) monitoring.Check {
	if maxAge <= 0 {
		maxAge = defaultMaintenanceMaxAge
	}

	return monitoring.NewCheck("maintenance", func(context.Context) monitoring.ProbeResult {
		if reporter == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "maintenance disabled"}
		}

		jobs := reporter.Jobs()
		if len(jobs) == 0 {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "no maintenance jobs registered"}
		}

		now := time.Now()
		status := monitoring.StatusUp
		var notes []string
		for _, job := range jobs {
			switch {
			case job.TotalRuns == 0:
				notes = append(notes, job.Job+": pending first run")
			case job.ConsecutiveFailures > 0:
				status = monitoring.Worst(status, monitoring.StatusDown)
				notes = append(notes, job.Job+": "+job.LastError)
			case now.Sub(job.LastRunAt) > maxAge:
				status = monitoring.Worst(status, monitoring.StatusDegraded)
				notes = append(notes, job.Job+": stale run "+job.LastRunAt.UTC().Format(time.RFC3339))
			}
		}

		return monitoring.ProbeResult{Status: status, Details: strings.Join(notes, "; ")}
	})
}
