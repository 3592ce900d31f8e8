package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountRepository manages social account persistence
type AccountRepository interface {
	// GetByID retrieves an account by ID, ErrAccountNotFound if missing
	GetByID(ctx context.Context, id uuid.UUID) (*SocialAccount, error)

	// List retrieves accounts matching the params
	List(ctx context.Context, params AccountListParams) ([]SocialAccount, error)

	// ListActive retrieves all active accounts across users
	ListActive(ctx context.Context) ([]SocialAccount, error)

	// ListByUser retrieves all accounts for one user
	ListByUser(ctx context.Context, userID uuid.UUID) ([]SocialAccount, error)

	// ListUserIDs returns the distinct user IDs that own active accounts
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)

	// MarkSynced records a successful sync timestamp and clears the error
	MarkSynced(ctx context.Context, id uuid.UUID, at time.Time) error

	// MarkSyncError records the last sync error for an account
	MarkSyncError(ctx context.Context, id uuid.UUID, msg string) error
}

// AnalyticsRepository manages normalized analytics records
type AnalyticsRepository interface {
	// CreateBatch inserts records, skipping duplicates; returns the number
	// actually inserted
	CreateBatch(ctx context.Context, records []AnalyticsRecord) (int, error)

	// GetOverview aggregates metrics for one user's accounts
	GetOverview(ctx context.Context, userID uuid.UUID) (*Overview, error)

	// GetTimeseries returns hourly buckets for one account
	GetTimeseries(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]TimeseriesPoint, error)

	// RollupHour aggregates raw records for the given hour into the
	// hourly table; returns the number of buckets written
	RollupHour(ctx context.Context, hour time.Time) (int, error)

	// PurgeOlderThan deletes records recorded before the cutoff
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ReportRepository manages generated report metadata
type ReportRepository interface {
	// Create inserts a pending report row
	Create(ctx context.Context, report *Report) error

	// GetByID retrieves a report, ErrReportNotFound if missing
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)

	// MarkCompleted records the artifact path and completion time
	MarkCompleted(ctx context.Context, id uuid.UUID, filePath string, at time.Time) error

	// MarkFailed records a terminal failure
	MarkFailed(ctx context.Context, id uuid.UUID, msg string) error

	// PurgeOlderThan deletes report rows created before the cutoff
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
