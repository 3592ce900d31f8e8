package queue

import (
	"context"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/sadewadee/social-analytics/internal/domain"
)

// RecurringJob pairs a cron expression with the job it enqueues on each
// fire. Fixed task IDs make overlapping fires debounce instead of stacking.
type RecurringJob struct {
	Cron     string
	Queue    Name
	TaskType string
	TaskID   string
	Payload  any
}

// DefaultRecurringJobs is the periodic work catalog: platform sync every six
// hours, weekly reports Monday morning, hourly rollups, and the Sunday
// cleanup.
func DefaultRecurringJobs() []RecurringJob {
	return []RecurringJob{
		{
			Cron:     "0 */6 * * *",
			Queue:    QueueDataSync,
			TaskType: TypeSyncDispatch,
			TaskID:   "sync-dispatch",
			Payload:  SyncDispatchPayload{},
		},
		{
			Cron:     "0 9 * * 1",
			Queue:    QueueReports,
			TaskType: TypeReportDispatch,
			TaskID:   "report-dispatch-weekly",
			Payload:  ReportDispatchPayload{Period: domain.ReportPeriodWeekly},
		},
		{
			Cron:     "0 * * * *",
			Queue:    QueueAnalytics,
			TaskType: TypeAnalyticsRollup,
			TaskID:   "analytics-rollup",
			Payload:  AnalyticsRollupPayload{},
		},
		{
			Cron:     "0 2 * * 0",
			Queue:    QueueCleanup,
			TaskType: TypeCleanupPurge,
			TaskID:   "cleanup-purge",
			Payload:  CleanupPurgePayload{},
		},
	}
}

// Scheduler enqueues recurring jobs when their cron expressions fire
type Scheduler struct {
	scheduler *asynq.Scheduler
}

// NewScheduler creates a scheduler and registers the recurring jobs
func NewScheduler(redisOpt asynq.RedisConnOpt, jobs []RecurringJob) (*Scheduler, error) {
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger: &asynqLogger{},
		EnqueueErrorHandler: func(task *asynq.Task, _ []asynq.Option, err error) {
			log.Printf("[Scheduler] failed to enqueue %s: %v", task.Type(), err)
		},
	})

	for _, job := range jobs {
		qcfg, ok := Configs[job.Queue]
		if !ok {
			return nil, fmt.Errorf("unknown queue: %s", job.Queue)
		}

		data, err := MarshalPayload(job.Payload)
		if err != nil {
			return nil, err
		}

		task := asynq.NewTask(job.TaskType, data)

		// No Retention here: the fixed task ID must free as soon as a fire
		// completes, or it would block the next fire for the whole
		// retention window.
		entryID, err := scheduler.Register(job.Cron, task,
			asynq.Queue(BandQueue(job.Queue, DefaultRecurringPriority)),
			asynq.TaskID(job.TaskID),
			asynq.MaxRetry(qcfg.MaxAttempts-1),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to register %s (%s): %w", job.TaskType, job.Cron, err)
		}

		log.Printf("[Scheduler] registered %s on %q (entry: %s)", job.TaskType, job.Cron, entryID)
	}

	return &Scheduler{scheduler: scheduler}, nil
}

// DefaultRecurringPriority places scheduled jobs in the default band
const DefaultRecurringPriority = domain.DefaultSyncPriority

// Run starts the scheduler and blocks until the context is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.scheduler.Start(); err != nil {
		return fmt.Errorf("scheduler start failed: %w", err)
	}

	<-ctx.Done()
	s.scheduler.Shutdown()
	return nil
}

// Shutdown stops the scheduler
func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
