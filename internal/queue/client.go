package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sadewadee/social-analytics/internal/domain"
)

// Config holds Redis queue configuration
type Config struct {
	RedisURL  string
	RedisAddr string
	Password  string
	DB        int
}

// RedisConnOpt builds the asynq connection options from the config
func (cfg *Config) RedisConnOpt() (asynq.RedisConnOpt, error) {
	if cfg.RedisURL != "" {
		opt, err := asynq.ParseRedisURI(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		return opt, nil
	}

	if cfg.RedisAddr != "" {
		return asynq.RedisClientOpt{
			Addr:         cfg.RedisAddr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
		}, nil
	}

	return nil, fmt.Errorf("redis URL or address is required")
}

// EnqueueOptions control how a job enters its queue
type EnqueueOptions struct {
	// Priority orders the job within its queue; higher first. Zero means
	// the default priority.
	Priority int

	// Delay postpones the first execution
	Delay time.Duration

	// TaskID is the idempotency key: enqueueing while a job with the same
	// ID is pending or active is a debounce, not a duplicate
	TaskID string
}

// Client enqueues jobs and inspects queue state
type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	redisOpt  asynq.RedisConnOpt
}

// NewClient creates a queue client
func NewClient(cfg *Config) (*Client, error) {
	redisOpt, err := cfg.RedisConnOpt()
	if err != nil {
		return nil, err
	}

	return &Client{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		redisOpt:  redisOpt,
	}, nil
}

// RedisOpt returns the connection options for creating servers/schedulers
func (c *Client) RedisOpt() asynq.RedisConnOpt {
	return c.redisOpt
}

// Enqueue adds a job to a logical queue. A TaskID collision with a pending
// or active job is swallowed: the contract guarantees at most one in-flight
// job per idempotency key per queue.
func (c *Client) Enqueue(ctx context.Context, queue Name, taskType string, payload any, opts EnqueueOptions) error {
	qcfg, ok := Configs[queue]
	if !ok {
		return fmt.Errorf("unknown queue: %s", queue)
	}

	data, err := MarshalPayload(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(taskType, data)

	priority := opts.Priority
	if priority == 0 {
		priority = domain.DefaultSyncPriority
	}

	options := []asynq.Option{
		asynq.Queue(BandQueue(queue, priority)),
		asynq.MaxRetry(qcfg.MaxAttempts - 1),
	}

	if opts.TaskID != "" {
		// A retained completed task keeps holding its task ID, so the key
		// must free on completion: the dedupe contract covers non-terminal
		// jobs only, and the next logical run has to go through.
		options = append(options, asynq.TaskID(opts.TaskID))
	} else {
		options = append(options, asynq.Retention(qcfg.Retention))
	}

	if opts.Delay > 0 {
		options = append(options, asynq.ProcessIn(opts.Delay))
	}

	info, err := c.client.EnqueueContext(ctx, task, options...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			log.Printf("[Queue] debounced %s (id=%s): already in flight", taskType, opts.TaskID)
			return nil
		}
		return fmt.Errorf("failed to enqueue %s: %w", taskType, err)
	}

	log.Printf("[Queue] enqueued %s to %s (task_id: %s)", taskType, info.Queue, info.ID)
	return nil
}

// QueueStats holds per-queue job-state counts
type QueueStats struct {
	Waiting   int `json:"waiting"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// GetQueueStats aggregates the band queues of every logical queue
func (c *Client) GetQueueStats(ctx context.Context) (map[Name]QueueStats, error) {
	stats := make(map[Name]QueueStats, len(AllQueues()))

	for _, name := range AllQueues() {
		var agg QueueStats

		for band := range BandQueues(name) {
			info, err := c.inspector.GetQueueInfo(band)
			if err != nil {
				// Band queues materialize lazily; absent means empty
				continue
			}

			agg.Waiting += info.Pending + info.Scheduled + info.Retry
			agg.Active += info.Active
			// Keyed jobs are not retained after completion, so count
			// successes from the cumulative processed totals instead of
			// the retained-completed set
			agg.Completed += info.ProcessedTotal - info.FailedTotal
			agg.Failed += info.Archived
		}

		stats[name] = agg
	}

	return stats, nil
}

// Close closes the queue connections
func (c *Client) Close() error {
	if err := c.inspector.Close(); err != nil {
		log.Printf("[Queue] inspector close failed: %v", err)
	}
	return c.client.Close()
}
