package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sadewadee/social-analytics/internal/domain"
)

// AnalyticsRepository implements domain.AnalyticsRepository for PostgreSQL
type AnalyticsRepository struct {
	db *sql.DB
}

// NewAnalyticsRepository creates a new AnalyticsRepository
func NewAnalyticsRepository(db *sql.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// CreateBatch inserts records, skipping duplicates on the
// (account_id, post_id, recorded_hour) uniqueness constraint
func (r *AnalyticsRepository) CreateBatch(ctx context.Context, records []domain.AnalyticsRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	// Build batch insert query
	values := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*11)

	for i, rec := range records {
		base := i * 11
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10, base+11,
		))
		id := rec.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		args = append(args,
			id, rec.AccountID, string(rec.Platform), rec.PostID,
			rec.Impressions, rec.Likes, rec.Comments, rec.Shares, rec.Followers,
			rec.PublishedAt, rec.RecordedAt,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO analytics_records
			(id, account_id, platform, post_id, impressions, likes, comments, shares, followers, published_at, recorded_at)
		VALUES %s
		ON CONFLICT (account_id, post_id, recorded_hour) DO NOTHING
	`, strings.Join(values, ", "))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(inserted), nil
}

// GetOverview aggregates metrics for one user's accounts
func (r *AnalyticsRepository) GetOverview(ctx context.Context, userID uuid.UUID) (*domain.Overview, error) {
	query := `
		SELECT
			a.platform,
			COUNT(DISTINCT a.id) AS accounts,
			COUNT(rec.id) AS posts,
			COALESCE(SUM(rec.impressions), 0) AS impressions,
			COALESCE(SUM(rec.likes + rec.comments + rec.shares), 0) AS engagement
		FROM social_accounts a
		LEFT JOIN analytics_records rec ON rec.account_id = a.id
		WHERE a.user_id = $1
		GROUP BY a.platform
		ORDER BY a.platform
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overview := &domain.Overview{}
	for rows.Next() {
		var stats domain.PlatformStats
		var platform string
		if err := rows.Scan(&platform, &stats.Accounts, &stats.Posts, &stats.Impressions, &stats.Engagement); err != nil {
			return nil, err
		}
		stats.Platform = domain.Platform(platform)
		overview.ByPlatform = append(overview.ByPlatform, stats)
		overview.Accounts += stats.Accounts
		overview.Posts += stats.Posts
		overview.Impressions += stats.Impressions
		overview.Engagement += stats.Engagement
	}
	return overview, rows.Err()
}

// GetTimeseries returns hourly buckets for one account
func (r *AnalyticsRepository) GetTimeseries(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]domain.TimeseriesPoint, error) {
	query := `
		SELECT hour, posts, impressions, engagement
		FROM analytics_hourly
		WHERE account_id = $1 AND hour >= $2 AND hour < $3
		ORDER BY hour
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []domain.TimeseriesPoint
	for rows.Next() {
		var pt domain.TimeseriesPoint
		if err := rows.Scan(&pt.Hour, &pt.Posts, &pt.Impressions, &pt.Engagement); err != nil {
			return nil, err
		}
		points = append(points, pt)
	}
	return points, rows.Err()
}

// RollupHour aggregates raw records for the given hour into the hourly
// table; re-running for the same hour overwrites the buckets
func (r *AnalyticsRepository) RollupHour(ctx context.Context, hour time.Time) (int, error) {
	query := `
		INSERT INTO analytics_hourly (account_id, platform, hour, posts, impressions, engagement)
		SELECT
			account_id,
			platform,
			$1,
			COUNT(*),
			COALESCE(SUM(impressions), 0),
			COALESCE(SUM(likes + comments + shares), 0)
		FROM analytics_records
		WHERE recorded_at >= $1 AND recorded_at < $2
		GROUP BY account_id, platform
		ON CONFLICT (account_id, hour) DO UPDATE SET
			posts = EXCLUDED.posts,
			impressions = EXCLUDED.impressions,
			engagement = EXCLUDED.engagement
	`

	result, err := r.db.ExecContext(ctx, query, hour, hour.Add(time.Hour))
	if err != nil {
		return 0, err
	}
	buckets, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(buckets), nil
}

// PurgeOlderThan deletes records recorded before the cutoff
func (r *AnalyticsRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM analytics_records WHERE recorded_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
