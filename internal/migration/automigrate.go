// Package migration applies the PostgreSQL schema on startup. SQLite gets
// its schema from the embedded migrations in the sqlite repository package.
package migration

import (
	"context"
	"database/sql"
)

// State represents the current state of the database
type State int

const (
	StateFreshInstall State = iota // No tables exist
	StatePartial                   // Some tables exist
	StateMigrated                  // Full schema present
)

// String returns a human-readable name for the migration state
func (s State) String() string {
	switch s {
	case StateFreshInstall:
		return "FreshInstall"
	case StatePartial:
		return "Partial"
	case StateMigrated:
		return "Migrated"
	default:
		return "Unknown"
	}
}

// tables the schema consists of, in dependency order
var tables = []string{"social_accounts", "analytics_records", "analytics_hourly", "reports"}

// DetectState checks which schema tables already exist
func DetectState(ctx context.Context, db *sql.DB) (State, error) {
	existing := 0
	for _, table := range tables {
		var exists bool
		err := db.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_name = $1
			)
		`, table).Scan(&exists)
		if err != nil {
			return 0, err
		}
		if exists {
			existing++
		}
	}

	switch existing {
	case 0:
		return StateFreshInstall, nil
	case len(tables):
		return StateMigrated, nil
	default:
		return StatePartial, nil
	}
}
