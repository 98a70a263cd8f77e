package maintenance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/volunteerhub/pkg/logger"
)

// Job names reported by Jobs.
const (
	JobTokenCleanup        = "token_cleanup"
	JobNotificationCleanup = "notification_cleanup"
)

const (
	defaultTokenSpec             = "@daily"
	defaultNotificationSpec      = "@daily"
	defaultNotificationRetention = 30 * 24 * time.Hour
)

// TokenPurger removes consumed or expired verification tokens.
type TokenPurger interface {
	PurgeStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationPruner removes read notifications older than a cutoff.
type NotificationPruner interface {
	PruneRead(ctx context.Context, cutoff time.Time) (int64, error)
}

// Cleaner coordinates background maintenance: purging stale verification tokens and
// pruning read notifications past the retention window.
type Cleaner struct {
	tokens        TokenPurger
	notifications NotificationPruner
	cron          *cron.Cron
	now           func() time.Time
	log           *zap.Logger
	retention     time.Duration

	tokenSchedule        string
	notificationSchedule string

	mu   sync.Mutex
	jobs map[string]*JobStatus
}

// JobStatus summarises the run history of one cleanup job.
type JobStatus struct {
	Job                 string    `json:"job"`
	TotalRuns           int       `json:"total_runs"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastRunAt           time.Time `json:"last_run_at"`
	LastError           string    `json:"last_error,omitempty"`
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for cleanup cutoffs.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithNotificationRetention adjusts how long read notifications are kept.
func WithNotificationRetention(d time.Duration) Option {
	return func(cleaner *Cleaner) {
		if d > 0 {
			cleaner.retention = d
		}
	}
}

// WithTokenSchedule overrides the cron specification for token cleanup.
func WithTokenSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.tokenSchedule = spec
		}
	}
}

// WithNotificationSchedule overrides the cron specification for notification pruning.
func WithNotificationSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.notificationSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. A nil dependency skips the corresponding job.
func NewCleaner(tokens TokenPurger, notifications NotificationPruner, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		tokens:               tokens,
		notifications:        notifications,
		now:                  time.Now,
		retention:            defaultNotificationRetention,
		tokenSchedule:        defaultTokenSpec,
		notificationSchedule: defaultNotificationSpec,
		log:                  logger.WithModule("maintenance"),
		jobs:                 make(map[string]*JobStatus),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if tokens != nil {
		cleaner.jobs[JobTokenCleanup] = &JobStatus{Job: JobTokenCleanup}
	}
	if notifications != nil {
		cleaner.jobs[JobNotificationCleanup] = &JobStatus{Job: JobNotificationCleanup}
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it if at least one job is enabled.
func (c *Cleaner) Start() error {
	if c.tokens == nil && c.notifications == nil {
		return nil
	}

	if c.tokens != nil {
		if _, err := c.cron.AddFunc(c.tokenSchedule, func() {
			if err := c.purgeTokens(context.Background()); err != nil {
				c.log.Warn("token cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.notifications != nil {
		if _, err := c.cron.AddFunc(c.notificationSchedule, func() {
			if err := c.pruneNotifications(context.Background()); err != nil {
				c.log.Warn("notification cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler. The returned context is done once running jobs finish.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every configured cleanup sequentially and aggregates failures.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if c.tokens != nil {
		errs = multierr.Append(errs, c.purgeTokens(ctx))
	}
	if c.notifications != nil {
		errs = multierr.Append(errs, c.pruneNotifications(ctx))
	}
	return errs
}

// Jobs returns the run history of every registered job, sorted by name.
func (c *Cleaner) Jobs() []JobStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]JobStatus, 0, len(c.jobs))
	for _, job := range c.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out
}

func (c *Cleaner) record(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	job, ok := c.jobs[name]
	if !ok {
		job = &JobStatus{Job: name}
		c.jobs[name] = job
	}
	job.TotalRuns++
	job.LastRunAt = c.now()
	if err != nil {
		job.ConsecutiveFailures++
		job.LastError = err.Error()
		return
	}
	job.ConsecutiveFailures = 0
	job.LastError = ""
}

func (c *Cleaner) purgeTokens(ctx context.Context) error {
	removed, err := c.tokens.PurgeStale(ctx, c.now())
	c.record(JobTokenCleanup, err)
	if err != nil {
		return err
	}
	if removed > 0 {
		c.log.Info("purged verification tokens", zap.Int64("removed", removed))
	}
	return nil
}

func (c *Cleaner) pruneNotifications(ctx context.Context) error {
	removed, err := c.notifications.PruneRead(ctx, c.now().Add(-c.retention))
	c.record(JobNotificationCleanup, err)
	if err != nil {
		return err
	}
	if removed > 0 {
		c.log.Info("pruned read notifications", zap.Int64("removed", removed))
	}
	return nil
}
