package migraterunner

import (
	"context"
	"fmt"
	"log"

	"github.com/sadewadee/social-analytics/internal/migration"
	"github.com/sadewadee/social-analytics/internal/repository/postgres"
	"github.com/sadewadee/social-analytics/internal/repository/sqlite"
	"github.com/sadewadee/social-analytics/runner"
)

// Config holds configuration for the migration runner
type Config struct {
	// DatabaseURL is the PostgreSQL connection string or SQLite file path
	DatabaseURL string

	// StatusOnly reports the schema state without applying anything
	StatusOnly bool
}

// MigrateRunner applies or inspects the database schema and exits
type MigrateRunner struct {
	cfg *Config
}

// New creates a new MigrateRunner
func New(cfg *Config) (runner.Runner, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database DSN is required for migration")
	}

	return &MigrateRunner{cfg: cfg}, nil
}

// Run applies the schema, or reports its state when StatusOnly is set
func (m *MigrateRunner) Run(ctx context.Context) error {
	if m.cfg.StatusOnly {
		return m.status(ctx)
	}

	db, _, err := runner.OpenDatabase(ctx, m.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Println("[Migrate] schema is up to date")

	return nil
}

func (m *MigrateRunner) status(ctx context.Context) error {
	if runner.IsPostgres(m.cfg.DatabaseURL) {
		db, err := postgres.OpenConnection(m.cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		state, err := migration.DetectState(ctx, db)
		if err != nil {
			return err
		}

		log.Printf("[Migrate] schema state: %s", state)

		return nil
	}

	db, err := sqlite.OpenConnection(m.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	var applied int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied)
	if err != nil {
		log.Println("[Migrate] schema state: fresh install")
		return nil
	}

	log.Printf("[Migrate] schema state: %d migration(s) applied", applied)

	return nil
}

// Close is a no-op; Run owns the connection lifetime
func (m *MigrateRunner) Close(_ context.Context) error {
	return nil
}
