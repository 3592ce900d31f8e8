package schedulerrunner

import (
	"context"
	"log"

	"github.com/sadewadee/social-analytics/internal/queue"
	"github.com/sadewadee/social-analytics/runner"
	"github.com/sadewadee/social-analytics/tlmt"
)

// Config holds configuration for the scheduler runner
type Config struct {
	// Redis configuration for the job queue
	RedisURL  string
	RedisAddr string
	RedisPass string
	RedisDB   int
}

// SchedulerRunner enqueues the recurring jobs on their cron schedules.
// Exactly one scheduler instance should run per deployment; concurrent
// fires debounce on their fixed task IDs.
type SchedulerRunner struct {
	scheduler *queue.Scheduler
}

// New creates a new SchedulerRunner
func New(cfg *Config) (runner.Runner, error) {
	qcfg := queue.Config{
		RedisURL:  cfg.RedisURL,
		RedisAddr: cfg.RedisAddr,
		Password:  cfg.RedisPass,
		DB:        cfg.RedisDB,
	}

	redisOpt, err := qcfg.RedisConnOpt()
	if err != nil {
		return nil, err
	}

	scheduler, err := queue.NewScheduler(redisOpt, queue.DefaultRecurringJobs())
	if err != nil {
		return nil, err
	}

	return &SchedulerRunner{scheduler: scheduler}, nil
}

// Run starts the scheduler and blocks until the context is cancelled
func (s *SchedulerRunner) Run(ctx context.Context) error {
	_ = runner.Telemetry().Send(ctx, tlmt.NewEvent("schedulerrunner.Run", nil))

	log.Println("[Scheduler] starting")

	return s.scheduler.Run(ctx)
}

// Close stops the scheduler
func (s *SchedulerRunner) Close(_ context.Context) error {
	s.scheduler.Shutdown()
	return nil
}
