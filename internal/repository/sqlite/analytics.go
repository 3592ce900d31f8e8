package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sadewadee/social-analytics/internal/domain"
)

// AnalyticsRepository implements domain.AnalyticsRepository for SQLite
type AnalyticsRepository struct {
	db *sql.DB
}

// NewAnalyticsRepository creates a new AnalyticsRepository
func NewAnalyticsRepository(db *sql.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// CreateBatch inserts records, skipping duplicates
func (r *AnalyticsRepository) CreateBatch(ctx context.Context, records []domain.AnalyticsRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	inserted := 0

	// SQLite has a limit on the number of variables. Safe batch size: 100.
	batchSize := 100
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[i:end]

		valueStrings := make([]string, 0, len(batch))
		valueArgs := make([]interface{}, 0, len(batch)*11)

		for _, rec := range batch {
			id := rec.ID
			if id == uuid.Nil {
				id = uuid.New()
			}
			valueStrings = append(valueStrings, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			valueArgs = append(valueArgs,
				id.String(), rec.AccountID.String(), string(rec.Platform), rec.PostID,
				rec.Impressions, rec.Likes, rec.Comments, rec.Shares, rec.Followers,
				rec.PublishedAt.UTC().Format(time.RFC3339),
				rec.RecordedAt.UTC().Format(time.RFC3339),
				rec.RecordedAt.UTC().Truncate(time.Hour).Format(time.RFC3339),
			)
		}

		query := fmt.Sprintf(`
			INSERT INTO analytics_records
				(id, account_id, platform, post_id, impressions, likes, comments, shares, followers, published_at, recorded_at, recorded_hour)
			VALUES %s
			ON CONFLICT (account_id, post_id, recorded_hour) DO NOTHING
		`, strings.Join(valueStrings, ","))

		result, err := r.db.ExecContext(ctx, query, valueArgs...)
		if err != nil {
			return inserted, err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return inserted, err
		}
		inserted += int(n)
	}

	return inserted, nil
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
		WHERE a.user_id = ?
		GROUP BY a.platform
		ORDER BY a.platform
	`

	rows, err := r.db.QueryContext(ctx, query, userID.String())
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
		WHERE account_id = ? AND hour >= ? AND hour < ?
		ORDER BY hour
	`

	rows, err := r.db.QueryContext(ctx, query,
		accountID.String(),
		from.UTC().Format(time.RFC3339),
		to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []domain.TimeseriesPoint
	for rows.Next() {
		var pt domain.TimeseriesPoint
		var hour string
		if err := rows.Scan(&hour, &pt.Posts, &pt.Impressions, &pt.Engagement); err != nil {
			return nil, err
		}
		if pt.Hour, err = parseTime(hour); err != nil {
			return nil, err
		}
		points = append(points, pt)
	}
	return points, rows.Err()
}

// RollupHour aggregates raw records for the given hour into the hourly table
func (r *AnalyticsRepository) RollupHour(ctx context.Context, hour time.Time) (int, error) {
	hourStr := hour.UTC().Format(time.RFC3339)
	endStr := hour.Add(time.Hour).UTC().Format(time.RFC3339)

	query := `
		INSERT INTO analytics_hourly (account_id, platform, hour, posts, impressions, engagement)
		SELECT
			account_id,
			platform,
			?,
			COUNT(*),
			COALESCE(SUM(impressions), 0),
			COALESCE(SUM(likes + comments + shares), 0)
		FROM analytics_records
		WHERE recorded_at >= ? AND recorded_at < ?
		GROUP BY account_id, platform
		ON CONFLICT (account_id, hour) DO UPDATE SET
			posts = excluded.posts,
			impressions = excluded.impressions,
			engagement = excluded.engagement
	`

	result, err := r.db.ExecContext(ctx, query, hourStr, hourStr, endStr)
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
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM analytics_records WHERE recorded_at < ?`,
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
