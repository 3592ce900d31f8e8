package runner

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sadewadee/social-analytics/internal/domain"
	"github.com/sadewadee/social-analytics/internal/migration"
	"github.com/sadewadee/social-analytics/internal/repository/postgres"
	"github.com/sadewadee/social-analytics/internal/repository/sqlite"
)

// Repositories exposes the persistence layer behind the domain interfaces
type Repositories struct {
	Accounts  domain.AccountRepository
	Analytics domain.AnalyticsRepository
	Reports   domain.ReportRepository
}

// IsPostgres reports whether the DSN selects the PostgreSQL backend
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// OpenDatabase selects the backend by DSN, brings the schema current and
// returns the repositories. An empty DSN falls back to a local SQLite file.
func OpenDatabase(ctx context.Context, dsn string) (*sql.DB, *Repositories, error) {
	if IsPostgres(dsn) {
		db, err := postgres.OpenConnection(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := migration.AutoMigrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		repos := postgres.NewRepositories(db)

		return db, &Repositories{
			Accounts:  repos.Accounts,
			Analytics: repos.Analytics,
			Reports:   repos.Reports,
		}, nil
	}

	if dsn == "" {
		dsn = "social.db"
	}

	db, err := sqlite.OpenConnection(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := sqlite.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	repos := sqlite.NewRepositories(db)

	return db, &Repositories{
		Accounts:  repos.Accounts,
		Analytics: repos.Analytics,
		Reports:   repos.Reports,
	}, nil
}
