package scheduler

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sladesk-io/sladesk/internal/config"
	"github.com/sladesk-io/sladesk/internal/models"
)

type options struct {
	Logger   *log.Logger
	Cron     *cron.Cron
	Parser   cron.Parser
	Jobs     []*models.ScheduledJob
	Location *time.Location
}

// Option applies configuration to the scheduler service.
type Option func(*options)

func defaultOptions() options {
	return options{Logger: log.Default(), Location: time.UTC}
}

// WithLogger injects a custom logger implementation.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.Logger = l
	}
}

// WithCron supplies a preconfigured cron scheduler instance.
func WithCron(c *cron.Cron) Option {
	return func(o *options) {
		o.Cron = c
	}
}

// WithCronParser allows replacing the cron expression parser.
func WithCronParser(p cron.Parser) Option {
	return func(o *options) {
		o.Parser = p
	}
}

// WithJobs registers explicit job definitions.
func WithJobs(jobs []*models.ScheduledJob) Option {
	return func(o *options) {
		o.Jobs = jobs
	}
}

// WithLocation sets the scheduler timezone location.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		o.Location = loc
	}
}

// SweepJob builds the compliance sweep job definition from configuration.
func SweepJob(cfg *config.SchedulerConfig) *models.ScheduledJob {
	schedule := "* * * * *"
	timeout := 300
	runOnStartup := false
	if cfg != nil {
		if cfg.SweepSchedule != "" {
			schedule = cfg.SweepSchedule
		}
		if cfg.SweepTimeout > 0 {
			timeout = cfg.SweepTimeout
		}
		runOnStartup = cfg.RunOnStartup
	}
	return &models.ScheduledJob{
		Name:           "SLA Compliance Sweep",
		Slug:           JobSweep,
		Handler:        JobSweep,
		Schedule:       schedule,
		TimeoutSeconds: timeout,
		RunOnStartup:   runOnStartup,
	}
}
