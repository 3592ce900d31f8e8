package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadewadee/social-analytics/internal/domain"
	"github.com/sadewadee/social-analytics/internal/platform"
	"github.com/sadewadee/social-analytics/internal/queue"
)

type fakeAccountRepo struct {
	accounts   []domain.SocialAccount
	syncErrors map[uuid.UUID]string
	synced     map[uuid.UUID]time.Time
}

func newFakeAccountRepo(accounts ...domain.SocialAccount) *fakeAccountRepo {
	return &fakeAccountRepo{
		accounts:   accounts,
		syncErrors: make(map[uuid.UUID]string),
		synced:     make(map[uuid.UUID]time.Time),
	}
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.SocialAccount, error) {
	for i := range r.accounts {
		if r.accounts[i].ID == id {
			account := r.accounts[i]
			return &account, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *fakeAccountRepo) List(_ context.Context, _ domain.AccountListParams) ([]domain.SocialAccount, error) {
	return r.accounts, nil
}

func (r *fakeAccountRepo) ListActive(_ context.Context) ([]domain.SocialAccount, error) {
	var active []domain.SocialAccount
	for _, a := range r.accounts {
		if a.Active {
			active = append(active, a)
		}
	}
	return active, nil
}

func (r *fakeAccountRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.SocialAccount, error) {
	var owned []domain.SocialAccount
	for _, a := range r.accounts {
		if a.UserID == userID {
			owned = append(owned, a)
		}
	}
	return owned, nil
}

func (r *fakeAccountRepo) ListUserIDs(_ context.Context) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, a := range r.accounts {
		if a.Active && !seen[a.UserID] {
			seen[a.UserID] = true
			ids = append(ids, a.UserID)
		}
	}
	return ids, nil
}

func (r *fakeAccountRepo) MarkSynced(_ context.Context, id uuid.UUID, at time.Time) error {
	r.synced[id] = at
	return nil
}

func (r *fakeAccountRepo) MarkSyncError(_ context.Context, id uuid.UUID, msg string) error {
	r.syncErrors[id] = msg
	return nil
}

type fakeAnalyticsRepo struct {
	inserted []domain.AnalyticsRecord
	rollups  []time.Time
	purged   []time.Time
	err      error
}

func (r *fakeAnalyticsRepo) CreateBatch(_ context.Context, records []domain.AnalyticsRecord) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.inserted = append(r.inserted, records...)
	return len(records), nil
}

func (r *fakeAnalyticsRepo) GetOverview(_ context.Context, _ uuid.UUID) (*domain.Overview, error) {
	return &domain.Overview{}, nil
}

func (r *fakeAnalyticsRepo) GetTimeseries(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]domain.TimeseriesPoint, error) {
	return nil, nil
}

func (r *fakeAnalyticsRepo) RollupHour(_ context.Context, hour time.Time) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.rollups = append(r.rollups, hour)
	return 3, nil
}

func (r *fakeAnalyticsRepo) PurgeOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.purged = append(r.purged, cutoff)
	return 42, nil
}

// fakeClient returns canned content or a canned error per account ID
type fakeClient struct {
	content map[uuid.UUID][]platform.Content
	errs    map[uuid.UUID]error
}

func (c *fakeClient) FetchRecentContent(_ context.Context, account domain.SocialAccount) ([]platform.Content, error) {
	if err, ok := c.errs[account.ID]; ok {
		return nil, err
	}
	return c.content[account.ID], nil
}

func (c *fakeClient) HealthCheck(_ context.Context) error { return nil }

type enqueuedTask struct {
	Queue    queue.Name
	TaskType string
	Payload  any
	Opts     queue.EnqueueOptions
}

type fakeEnqueuer struct {
	tasks []enqueuedTask
	err   error
}

func (e *fakeEnqueuer) Enqueue(_ context.Context, q queue.Name, taskType string, payload any, opts queue.EnqueueOptions) error {
	if e.err != nil {
		return e.err
	}
	e.tasks = append(e.tasks, enqueuedTask{Queue: q, TaskType: taskType, Payload: payload, Opts: opts})
	return nil
}

func testAccount(userID uuid.UUID, p domain.Platform) domain.SocialAccount {
	return domain.SocialAccount{
		ID:       uuid.New(),
		UserID:   userID,
		Platform: p,
		Handle:   "@" + string(p),
		Active:   true,
	}
}

func syncTask(t *testing.T, payload queue.SyncPlatformPayload) *asynq.Task {
	t.Helper()
	data, err := queue.MarshalPayload(payload)
	require.NoError(t, err)
	return asynq.NewTask(queue.TypeSyncPlatform, data)
}

func TestSyncPlatformStoresFetchedContent(t *testing.T) {
	userID := uuid.New()
	account := testAccount(userID, domain.PlatformTwitter)
	accounts := newFakeAccountRepo(account)
	analytics := &fakeAnalyticsRepo{}
	client := &fakeClient{content: map[uuid.UUID][]platform.Content{
		account.ID: {
			{PostID: "p1", Impressions: 100, Likes: 10},
			{PostID: "p2", Impressions: 50, Likes: 3},
		},
	}}
	enq := &fakeEnqueuer{}
	proc := NewSyncProcessor(accounts, analytics, platform.Registry{domain.PlatformTwitter: client}, enq, nil)

	err := proc.ProcessTask(context.Background(), syncTask(t, queue.SyncPlatformPayload{
		UserID: userID, Platform: account.Platform, AccountID: account.ID,
	}))
	require.NoError(t, err)

	assert.Len(t, analytics.inserted, 2)
	assert.Equal(t, account.ID, analytics.inserted[0].AccountID)
	assert.Contains(t, accounts.synced, account.ID)
	assert.Empty(t, enq.tasks)
}

func TestSyncPlatformRateLimitReschedulesWithCooldown(t *testing.T) {
	userID := uuid.New()
	account := testAccount(userID, domain.PlatformTwitter)
	accounts := newFakeAccountRepo(account)
	client := &fakeClient{errs: map[uuid.UUID]error{
		account.ID: &domain.UpstreamError{Kind: domain.ErrKindRateLimited, Platform: domain.PlatformTwitter},
	}}
	enq := &fakeEnqueuer{}
	proc := NewSyncProcessor(accounts, &fakeAnalyticsRepo{}, platform.Registry{domain.PlatformTwitter: client}, enq, nil)

	err := proc.ProcessTask(context.Background(), syncTask(t, queue.SyncPlatformPayload{
		UserID: userID, Platform: account.Platform, AccountID: account.ID,
	}))

	// The task succeeds from the worker's point of view so no retry
	// attempt is consumed; the follow-up carries the cooldown delay.
	require.NoError(t, err)
	require.Len(t, enq.tasks, 1)
	got := enq.tasks[0]
	assert.Equal(t, queue.QueueDataSync, got.Queue)
	assert.Equal(t, queue.TypeSyncPlatform, got.TaskType)
	assert.Equal(t, domain.PlatformTwitter.RateLimitCooldown(), got.Opts.Delay)
	assert.Contains(t, got.Opts.TaskID, "-cooldown-")
	assert.NotContains(t, accounts.syncErrors, account.ID)
}

func TestSyncPlatformRateLimitHonorsRetryAfter(t *testing.T) {
	userID := uuid.New()
	account := testAccount(userID, domain.PlatformYouTube)
	accounts := newFakeAccountRepo(account)
	client := &fakeClient{errs: map[uuid.UUID]error{
		account.ID: &domain.UpstreamError{
			Kind:       domain.ErrKindRateLimited,
			Platform:   domain.PlatformYouTube,
			RetryAfter: 37 * time.Second,
		},
	}}
	enq := &fakeEnqueuer{}
	proc := NewSyncProcessor(accounts, &fakeAnalyticsRepo{}, platform.Registry{domain.PlatformYouTube: client}, enq, nil)

	err := proc.ProcessTask(context.Background(), syncTask(t, queue.SyncPlatformPayload{
		UserID: userID, Platform: account.Platform, AccountID: account.ID,
	}))
	require.NoError(t, err)
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, 37*time.Second, enq.tasks[0].Opts.Delay)
}

func TestSyncPlatformCredentialExpiredSkipsRetry(t *testing.T) {
	userID := uuid.New()
	account := testAccount(userID, domain.PlatformInstagram)
	accounts := newFakeAccountRepo(account)
	client := &fakeClient{errs: map[uuid.UUID]error{
		account.ID: &domain.UpstreamError{Kind: domain.ErrKindCredentialExpired, Platform: domain.PlatformInstagram},
	}}
	enq := &fakeEnqueuer{}
	proc := NewSyncProcessor(accounts, &fakeAnalyticsRepo{}, platform.Registry{domain.PlatformInstagram: client}, enq, nil)

	err := proc.ProcessTask(context.Background(), syncTask(t, queue.SyncPlatformPayload{
		UserID: userID, Platform: account.Platform, AccountID: account.ID,
	}))

	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
	assert.Contains(t, accounts.syncErrors, account.ID)
	assert.Empty(t, enq.tasks)
}

func TestSyncPlatformServerErrorReturnsErrorForRetry(t *testing.T) {
	userID := uuid.New()
	account := testAccount(userID, domain.PlatformTwitter)
	accounts := newFakeAccountRepo(account)
	client := &fakeClient{errs: map[uuid.UUID]error{
		account.ID: &domain.UpstreamError{Kind: domain.ErrKindServerError, Platform: domain.PlatformTwitter},
	}}
	proc := NewSyncProcessor(accounts, &fakeAnalyticsRepo{}, platform.Registry{domain.PlatformTwitter: client}, &fakeEnqueuer{}, nil)

	err := proc.ProcessTask(context.Background(), syncTask(t, queue.SyncPlatformPayload{
		UserID: userID, Platform: account.Platform, AccountID: account.ID,
	}))

	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
	assert.Contains(t, accounts.syncErrors, account.ID)
}

func TestSyncUserIsolatesAccountFailures(t *testing.T) {
	userID := uuid.New()
	good := testAccount(userID, domain.PlatformTwitter)
	bad := testAccount(userID, domain.PlatformInstagram)
	alsoGood := testAccount(userID, domain.PlatformYouTube)
	accounts := newFakeAccountRepo(good, bad, alsoGood)
	analytics := &fakeAnalyticsRepo{}
	clients := platform.Registry{
		domain.PlatformTwitter: &fakeClient{content: map[uuid.UUID][]platform.Content{
			good.ID: {{PostID: "t1"}},
		}},
		domain.PlatformInstagram: &fakeClient{errs: map[uuid.UUID]error{
			bad.ID: &domain.UpstreamError{Kind: domain.ErrKindServerError, Platform: domain.PlatformInstagram},
		}},
		domain.PlatformYouTube: &fakeClient{content: map[uuid.UUID][]platform.Content{
			alsoGood.ID: {{PostID: "y1"}, {PostID: "y2"}},
		}},
	}
	proc := NewSyncProcessor(accounts, analytics, clients, &fakeEnqueuer{}, nil)

	results, err := proc.SyncUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, results, 3)

	byAccount := make(map[uuid.UUID]domain.SyncResult)
	for _, r := range results {
		byAccount[r.AccountID] = r
	}
	assert.True(t, byAccount[good.ID].Success)
	assert.Equal(t, 1, byAccount[good.ID].ItemsProcessed)
	assert.False(t, byAccount[bad.ID].Success)
	assert.NotEmpty(t, byAccount[bad.ID].Errors)
	assert.True(t, byAccount[alsoGood.ID].Success)
	assert.Equal(t, 2, byAccount[alsoGood.ID].ItemsProcessed)
}

func TestSyncDispatchFansOutActiveAccounts(t *testing.T) {
	userA := uuid.New()
	userB := uuid.New()
	active := testAccount(userA, domain.PlatformTwitter)
	inactive := testAccount(userB, domain.PlatformInstagram)
	inactive.Active = false
	accounts := newFakeAccountRepo(active, inactive)
	enq := &fakeEnqueuer{}
	proc := NewSyncProcessor(accounts, &fakeAnalyticsRepo{}, platform.Registry{}, enq, nil)

	data, err := queue.MarshalPayload(queue.SyncDispatchPayload{})
	require.NoError(t, err)
	err = proc.ProcessTask(context.Background(), asynq.NewTask(queue.TypeSyncDispatch, data))
	require.NoError(t, err)

	require.Len(t, enq.tasks, 1)
	got := enq.tasks[0]
	assert.Equal(t, queue.TypeSyncPlatform, got.TaskType)
	assert.Equal(t, domain.PlatformTwitter.SyncPriority(), got.Opts.Priority)
	assert.Equal(t, queue.SyncTaskID(userA, domain.PlatformTwitter, active.ID), got.Opts.TaskID)
}
