package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sadewadee/social-analytics/internal/domain"
)

// ReportRepository implements domain.ReportRepository for SQLite
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a pending report row
func (r *ReportRepository) Create(ctx context.Context, report *domain.Report) error {
	query := `
		INSERT INTO reports (id, user_id, period, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		report.ID.String(), report.UserID.String(), string(report.Period), string(report.Status),
		report.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

// GetByID retrieves a report
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	query := `
		SELECT id, user_id, period, status, file_path, created_at, completed_at, error_message
		FROM reports WHERE id = ?
	`

	var report domain.Report
	var rawID, rawUserID, period, status, createdAt string
	var filePath, completedAt, errorMessage sql.NullString

	err := r.db.QueryRowContext(ctx, query, id.String()).Scan(
		&rawID, &rawUserID, &period, &status, &filePath, &createdAt, &completedAt, &errorMessage,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReportNotFound
		}
		return nil, err
	}

	if report.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("invalid report id %q: %w", rawID, err)
	}
	if report.UserID, err = uuid.Parse(rawUserID); err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", rawUserID, err)
	}
	report.Period = domain.ReportPeriod(period)
	report.Status = domain.ReportStatus(status)
	if report.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if filePath.Valid {
		report.FilePath = filePath.String
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		report.CompletedAt = &t
	}
	if errorMessage.Valid {
		report.ErrorMessage = &errorMessage.String
	}
	return &report, nil
}

// MarkCompleted records the artifact path and completion time
func (r *ReportRepository) MarkCompleted(ctx context.Context, id uuid.UUID, filePath string, at time.Time) error {
	query := `
		UPDATE reports
		SET status = ?, file_path = ?, completed_at = ?, error_message = NULL
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		string(domain.ReportStatusCompleted), filePath, at.UTC().Format(time.RFC3339), id.String())
	return err
}

// MarkFailed records a terminal failure
func (r *ReportRepository) MarkFailed(ctx context.Context, id uuid.UUID, msg string) error {
	query := `
		UPDATE reports
		SET status = ?, error_message = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, string(domain.ReportStatusFailed), msg, id.String())
	return err
}

// PurgeOlderThan deletes report rows created before the cutoff
func (r *ReportRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM reports WHERE created_at < ?`,
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
