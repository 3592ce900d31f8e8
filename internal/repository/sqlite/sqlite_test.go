package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadewadee/social-analytics/internal/domain"
)

func newTestDB(t *testing.T) *Repositories {
	t.Helper()
	db, err := OpenConnection(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, RunMigrations(db))
	return NewRepositories(db)
}

func insertAccount(t *testing.T, repos *Repositories, userID uuid.UUID, platform domain.Platform) uuid.UUID {
	t.Helper()
	id := uuid.New()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := repos.Accounts.db.Exec(`
		INSERT INTO social_accounts (id, user_id, platform, handle, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)`,
		id.String(), userID.String(), string(platform), "@handle", now, now)
	require.NoError(t, err)
	return id
}

func TestAccountRoundTrip(t *testing.T) {
	repos := newTestDB(t)
	ctx := context.Background()
	userID := uuid.New()
	accountID := insertAccount(t, repos, userID, domain.PlatformTwitter)

	account, err := repos.Accounts.GetByID(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, userID, account.UserID)
	assert.Equal(t, domain.PlatformTwitter, account.Platform)
	assert.True(t, account.Active)
	assert.Nil(t, account.LastSyncedAt)

	_, err = repos.Accounts.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	syncedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repos.Accounts.MarkSyncError(ctx, accountID, "token expired"))
	require.NoError(t, repos.Accounts.MarkSynced(ctx, accountID, syncedAt))

	account, err = repos.Accounts.GetByID(ctx, accountID)
	require.NoError(t, err)
	require.NotNil(t, account.LastSyncedAt)
	assert.True(t, account.LastSyncedAt.Equal(syncedAt))
	assert.Nil(t, account.SyncError)

	ids, err := repos.Accounts.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{userID}, ids)
}

func TestCreateBatchSkipsDuplicates(t *testing.T) {
	repos := newTestDB(t)
	ctx := context.Background()
	accountID := insertAccount(t, repos, uuid.New(), domain.PlatformInstagram)

	recordedAt := time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC)
	record := domain.AnalyticsRecord{
		AccountID:   accountID,
		Platform:    domain.PlatformInstagram,
		PostID:      "post-1",
		Impressions: 100,
		Likes:       10,
		PublishedAt: recordedAt.Add(-time.Hour),
		RecordedAt:  recordedAt,
	}

	n, err := repos.Analytics.CreateBatch(ctx, []domain.AnalyticsRecord{record})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Same post in the same recorded hour is a duplicate
	dup := record
	dup.RecordedAt = recordedAt.Add(10 * time.Minute)
	n, err = repos.Analytics.CreateBatch(ctx, []domain.AnalyticsRecord{dup})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// A later hour is a new snapshot
	next := record
	next.RecordedAt = recordedAt.Add(time.Hour)
	n, err = repos.Analytics.CreateBatch(ctx, []domain.AnalyticsRecord{next})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRollupAndTimeseries(t *testing.T) {
	repos := newTestDB(t)
	ctx := context.Background()
	userID := uuid.New()
	accountID := insertAccount(t, repos, userID, domain.PlatformTwitter)

	hour := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	records := []domain.AnalyticsRecord{
		{AccountID: accountID, Platform: domain.PlatformTwitter, PostID: "a", Impressions: 100, Likes: 5, Comments: 2, Shares: 1, PublishedAt: hour, RecordedAt: hour.Add(5 * time.Minute)},
		{AccountID: accountID, Platform: domain.PlatformTwitter, PostID: "b", Impressions: 50, Likes: 3, PublishedAt: hour, RecordedAt: hour.Add(20 * time.Minute)},
	}
	_, err := repos.Analytics.CreateBatch(ctx, records)
	require.NoError(t, err)

	buckets, err := repos.Analytics.RollupHour(ctx, hour)
	require.NoError(t, err)
	assert.Equal(t, 1, buckets)

	// Re-running the same hour overwrites rather than duplicating
	_, err = repos.Analytics.RollupHour(ctx, hour)
	require.NoError(t, err)

	points, err := repos.Analytics.GetTimeseries(ctx, accountID, hour, hour.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, int64(2), points[0].Posts)
	assert.Equal(t, int64(150), points[0].Impressions)
	assert.Equal(t, int64(11), points[0].Engagement)

	overview, err := repos.Analytics.GetOverview(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, overview.Accounts)
	assert.Equal(t, int64(2), overview.Posts)
	assert.Equal(t, int64(150), overview.Impressions)
}

func TestPurgeOlderThan(t *testing.T) {
	repos := newTestDB(t)
	ctx := context.Background()
	accountID := insertAccount(t, repos, uuid.New(), domain.PlatformYouTube)

	old := time.Now().UTC().AddDate(0, 0, -120)
	fresh := time.Now().UTC()
	_, err := repos.Analytics.CreateBatch(ctx, []domain.AnalyticsRecord{
		{AccountID: accountID, Platform: domain.PlatformYouTube, PostID: "old", PublishedAt: old, RecordedAt: old},
		{AccountID: accountID, Platform: domain.PlatformYouTube, PostID: "new", PublishedAt: fresh, RecordedAt: fresh},
	})
	require.NoError(t, err)

	purged, err := repos.Analytics.PurgeOlderThan(ctx, time.Now().UTC().AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestReportLifecycle(t *testing.T) {
	repos := newTestDB(t)
	ctx := context.Background()

	report := &domain.Report{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Period:    domain.ReportPeriodWeekly,
		Status:    domain.ReportStatusPending,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repos.Reports.Create(ctx, report))

	_, err := repos.Reports.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrReportNotFound)

	completedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repos.Reports.MarkCompleted(ctx, report.ID, "/reports/out.xlsx", completedAt))

	stored, err := repos.Reports.GetByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusCompleted, stored.Status)
	assert.Equal(t, "/reports/out.xlsx", stored.FilePath)
	require.NotNil(t, stored.CompletedAt)
	assert.True(t, stored.CompletedAt.Equal(completedAt))

	require.NoError(t, repos.Reports.MarkFailed(ctx, report.ID, "generation failed"))
	stored, err = repos.Reports.GetByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
}
