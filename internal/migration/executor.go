package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// AutoMigrate applies the schema based on the detected state. Every
// statement is idempotent, so a partial schema is completed in place.
func AutoMigrate(ctx context.Context, db *sql.DB) error {
	state, err := DetectState(ctx, db)
	if err != nil {
		return fmt.Errorf("detect migration state: %w", err)
	}

	log.Printf("[AutoMigrate] Detected state: %v", state)

	if state == StateMigrated {
		log.Println("[AutoMigrate] Schema present, skipping")
		return nil
	}

	return applySchema(ctx, db)
}

func applySchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS social_accounts (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			platform VARCHAR(20) NOT NULL,
			handle TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_synced_at TIMESTAMPTZ,
			sync_error TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_social_accounts_user ON social_accounts(user_id);
		CREATE INDEX IF NOT EXISTS idx_social_accounts_active ON social_accounts(active);
	`)
	if err != nil {
		return fmt.Errorf("create social_accounts: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analytics_records (
			id UUID PRIMARY KEY,
			account_id UUID NOT NULL REFERENCES social_accounts(id),
			platform VARCHAR(20) NOT NULL,
			post_id TEXT NOT NULL,
			impressions BIGINT NOT NULL DEFAULT 0,
			likes BIGINT NOT NULL DEFAULT 0,
			comments BIGINT NOT NULL DEFAULT 0,
			shares BIGINT NOT NULL DEFAULT 0,
			followers BIGINT NOT NULL DEFAULT 0,
			published_at TIMESTAMPTZ NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL,
			recorded_hour TIMESTAMPTZ GENERATED ALWAYS AS (date_trunc('hour', recorded_at)) STORED
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_analytics_records_dedupe
			ON analytics_records(account_id, post_id, recorded_hour);
		CREATE INDEX IF NOT EXISTS idx_analytics_records_recorded
			ON analytics_records(recorded_at);
	`)
	if err != nil {
		return fmt.Errorf("create analytics_records: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analytics_hourly (
			account_id UUID NOT NULL REFERENCES social_accounts(id),
			platform VARCHAR(20) NOT NULL,
			hour TIMESTAMPTZ NOT NULL,
			posts BIGINT NOT NULL DEFAULT 0,
			impressions BIGINT NOT NULL DEFAULT 0,
			engagement BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (account_id, hour)
		);
	`)
	if err != nil {
		return fmt.Errorf("create analytics_hourly: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS reports (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			period VARCHAR(10) NOT NULL,
			status VARCHAR(10) NOT NULL,
			file_path TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMPTZ,
			error_message TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_reports_user ON reports(user_id);
		CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);
	`)
	if err != nil {
		return fmt.Errorf("create reports: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS migration_history (
			id SERIAL PRIMARY KEY,
			migration_name TEXT NOT NULL,
			executed_at TIMESTAMPTZ DEFAULT NOW()
		);

		INSERT INTO migration_history (migration_name)
		VALUES ('auto_migrate_schema');
	`)
	if err != nil {
		return fmt.Errorf("record migration: %w", err)
	}

	log.Println("[AutoMigrate] Schema applied")
	return tx.Commit()
}
