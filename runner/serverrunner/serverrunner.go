package serverrunner

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/sadewadee/social-analytics/internal/api"
	"github.com/sadewadee/social-analytics/internal/api/handlers"
	"github.com/sadewadee/social-analytics/internal/cache"
	"github.com/sadewadee/social-analytics/internal/platform"
	"github.com/sadewadee/social-analytics/internal/queue"
	"github.com/sadewadee/social-analytics/internal/service"
	"github.com/sadewadee/social-analytics/internal/worker"
	"github.com/sadewadee/social-analytics/runner"
	"github.com/sadewadee/social-analytics/tlmt"
)

// Config holds configuration for the API server runner
type Config struct {
	// DatabaseURL is the PostgreSQL connection string or SQLite file path
	DatabaseURL string

	// Address is the HTTP server address
	Address string

	// DataFolder is where report artifacts live
	DataFolder string

	// APIToken protects the API endpoints; empty disables auth
	APIToken string

	// Platforms maps each social platform to its API client, used by the
	// synchronous sync endpoint. Registered by the embedding build.
	Platforms platform.Registry

	// Redis configuration for cache and queue inspection
	RedisURL  string
	RedisAddr string
	RedisPass string
	RedisDB   int
}

// ServerRunner serves the dashboard API backed by the tiered cache
type ServerRunner struct {
	cfg     *Config
	db      *sql.DB
	tiered  *cache.Tiered
	qclient *queue.Client
	srv     *http.Server
}

// New creates a new ServerRunner
func New(cfg *Config) (runner.Runner, error) {
	if cfg.Address == "" {
		cfg.Address = ":8080"
	}

	if cfg.DataFolder == "" {
		cfg.DataFolder = "."
	}

	if err := os.MkdirAll(cfg.DataFolder, os.ModePerm); err != nil {
		return nil, err
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

	if cfg.Platforms == nil {
		cfg.Platforms = platform.Registry{}
	}

	syncer := worker.NewSyncProcessor(repos.Accounts, repos.Analytics, cfg.Platforms, qclient, tiered)
	syncSvc := service.NewSyncService(repos.Accounts, qclient, syncer, tiered)
	analyticsSvc := service.NewAnalyticsService(repos.Accounts, repos.Analytics)

	router := api.NewRouter(
		tiered,
		handlers.NewAnalyticsHandler(analyticsSvc),
		handlers.NewSyncHandler(syncSvc),
		handlers.NewCacheHandler(tiered),
		handlers.NewQueueHandler(qclient),
		handlers.NewSystemHandler(runner.Version),
	)

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           router.Setup(cfg.APIToken),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &ServerRunner{
		cfg:     cfg,
		db:      db,
		tiered:  tiered,
		qclient: qclient,
		srv:     srv,
	}, nil
}

// Run starts the API server
func (s *ServerRunner) Run(ctx context.Context) error {
	_ = runner.Telemetry().Send(ctx, tlmt.NewEvent("serverrunner.Run", nil))

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[Server] error shutting down: %v", err)
		}
	}()

	log.Printf("[Server] API listening on http://localhost%s", s.cfg.Address)
	if runner.IsPostgres(s.cfg.DatabaseURL) {
		log.Printf("[Server] using PostgreSQL database")
	} else {
		log.Printf("[Server] using SQLite database: %s", s.cfg.DatabaseURL)
	}

	err := s.srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Close cleans up resources
func (s *ServerRunner) Close(_ context.Context) error {
	if s.qclient != nil {
		if err := s.qclient.Close(); err != nil {
			log.Printf("[Server] queue client close failed: %v", err)
		}
	}

	if s.tiered != nil {
		if err := s.tiered.Close(); err != nil {
			log.Printf("[Server] cache close failed: %v", err)
		}
	}

	if s.db != nil {
		return s.db.Close()
	}

	return nil
}
