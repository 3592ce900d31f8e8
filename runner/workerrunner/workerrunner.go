package workerrunner

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/sadewadee/social-analytics/internal/cache"
	"github.com/sadewadee/social-analytics/internal/mq"
	"github.com/sadewadee/social-analytics/internal/platform"
	"github.com/sadewadee/social-analytics/internal/queue"
	"github.com/sadewadee/social-analytics/internal/worker"
	"github.com/sadewadee/social-analytics/runner"
	"github.com/sadewadee/social-analytics/tlmt"
)

// Config holds configuration for the worker runner
type Config struct {
	// DatabaseURL is the PostgreSQL connection string or SQLite file path
	DatabaseURL string

	// DataFolder is where generated report artifacts are written
	DataFolder string

	// Platforms maps each social platform to its API client. Clients are
	// registered by the embedding build; sync jobs for unregistered
	// platforms fail with ErrUnknownPlatform.
	Platforms platform.Registry

	// Recipients resolves report notification addresses; nil routes
	// through the internal relay alias
	Recipients worker.RecipientDirectory

	// Redis configuration for cache and job queue
	RedisURL  string
	RedisAddr string
	RedisPass string
	RedisDB   int

	// RabbitMQURL enables outbound email delivery; empty drops emails
	RabbitMQURL string
}

// WorkerRunner consumes the background job queues
type WorkerRunner struct {
	cfg       *Config
	db        *sql.DB
	tiered    *cache.Tiered
	qclient   *queue.Client
	publisher mq.Publisher
	worker    *queue.Worker
}

// New creates a new WorkerRunner
func New(cfg *Config) (runner.Runner, error) {
	if cfg.DataFolder == "" {
		cfg.DataFolder = "."
	}

	if err := os.MkdirAll(cfg.DataFolder, os.ModePerm); err != nil {
		return nil, err
	}

	if cfg.Platforms == nil {
		cfg.Platforms = platform.Registry{}
	}

	if len(cfg.Platforms) == 0 {
		log.Println("[WorkerRunner] no platform clients registered, sync jobs will fail until one is")
	}

	db, repos, err := runner.OpenDatabase(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	store, err := cache.NewRedisStore(cache.Config{
		URL:      cfg.RedisURL,
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	tiered := cache.NewTiered(store, cache.DefaultLocalMaxEntries)

	qclient, err := queue.NewClient(&queue.Config{
		RedisURL:  cfg.RedisURL,
		RedisAddr: cfg.RedisAddr,
		Password:  cfg.RedisPass,
		DB:        cfg.RedisDB,
	})
	if err != nil {
		tiered.Close()
		db.Close()
		return nil, fmt.Errorf("failed to create queue client: %w", err)
	}

	var publisher mq.Publisher
	if cfg.RabbitMQURL != "" {
		publisher, err = mq.NewPublisher(mq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			qclient.Close()
			tiered.Close()
			db.Close()
			return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
	} else {
		log.Println("[WorkerRunner] no RabbitMQ URL configured, email messages will be dropped")
		publisher = mq.NewNoopPublisher()
	}

	handlers := worker.Handlers(
		worker.NewSyncProcessor(repos.Accounts, repos.Analytics, cfg.Platforms, qclient, tiered),
		worker.NewReportProcessor(repos.Reports, repos.Accounts, repos.Analytics, qclient, cfg.Recipients, cfg.DataFolder),
		worker.NewEmailProcessor(publisher),
		worker.NewAnalyticsProcessor(repos.Analytics, tiered),
		worker.NewCleanupProcessor(repos.Analytics, repos.Reports, tiered),
	)

	qworker, err := queue.NewWorker(qclient.RedisOpt(), handlers)
	if err != nil {
		publisher.Close()
		qclient.Close()
		tiered.Close()
		db.Close()
		return nil, err
	}

	return &WorkerRunner{
		cfg:       cfg,
		db:        db,
		tiered:    tiered,
		qclient:   qclient,
		publisher: publisher,
		worker:    qworker,
	}, nil
}

// Run starts the queue servers and blocks until the context is cancelled
func (w *WorkerRunner) Run(ctx context.Context) error {
	_ = runner.Telemetry().Send(ctx, tlmt.NewEvent("workerrunner.Run", nil))

	log.Println("[WorkerRunner] starting queue servers")

	return w.worker.Run(ctx)
}

// Close cleans up resources
func (w *WorkerRunner) Close(_ context.Context) error {
	if w.worker != nil {
		w.worker.Shutdown()
	}

	if w.publisher != nil {
		if err := w.publisher.Close(); err != nil {
			log.Printf("[WorkerRunner] publisher close failed: %v", err)
		}
	}

	if w.qclient != nil {
		if err := w.qclient.Close(); err != nil {
			log.Printf("[WorkerRunner] queue client close failed: %v", err)
		}
	}

	if w.tiered != nil {
		if err := w.tiered.Close(); err != nil {
			log.Printf("[WorkerRunner] cache close failed: %v", err)
		}
	}

	if w.db != nil {
		return w.db.Close()
	}

	return nil
}
