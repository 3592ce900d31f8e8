package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sadewadee/social-analytics/internal/domain"
)

// ReportRepository implements domain.ReportRepository for PostgreSQL
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
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		report.ID, report.UserID, string(report.Period), string(report.Status), report.CreatedAt)
	return err
}

// GetByID retrieves a report
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	query := `
		SELECT id, user_id, period, status, file_path, created_at, completed_at, error_message
		FROM reports WHERE id = $1
	`

	var report domain.Report
	var period, status string
	var filePath sql.NullString
	var completedAt sql.NullTime
	var errorMessage sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&report.ID, &report.UserID, &period, &status,
		&filePath, &report.CreatedAt, &completedAt, &errorMessage,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReportNotFound
		}
		return nil, err
	}

	report.Period = domain.ReportPeriod(period)
	report.Status = domain.ReportStatus(status)
	if filePath.Valid {
		report.FilePath = filePath.String
	}
	if completedAt.Valid {
		report.CompletedAt = &completedAt.Time
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
		SET status = $2, file_path = $3, completed_at = $4, error_message = NULL
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, string(domain.ReportStatusCompleted), filePath, at)
	return err
}

// MarkFailed records a terminal failure
func (r *ReportRepository) MarkFailed(ctx context.Context, id uuid.UUID, msg string) error {
	query := `
		UPDATE reports
		SET status = $2, error_message = $3
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, string(domain.ReportStatusFailed), msg)
	return err
}

// PurgeOlderThan deletes report rows created before the cutoff
func (r *ReportRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
