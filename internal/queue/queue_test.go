package queue

import (
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadewadee/social-analytics/internal/domain"
)

func TestBandForOrdering(t *testing.T) {
	// Jobs enqueued with priorities [5, 10, 1] must drain as [10, 5, 1]:
	// each priority lands in a distinct band and the bands are strictly
	// ordered.
	priorities := []int{5, 10, 1}

	weights := BandQueues(QueueDataSync)

	sorted := append([]int(nil), priorities...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	var prev int
	for i, p := range sorted {
		w := weights[BandQueue(QueueDataSync, p)]
		if i > 0 {
			assert.Less(t, w, prev, "priority %d must map below the previous band", p)
		}
		prev = w
	}
}

func TestBandForPlatformPriorities(t *testing.T) {
	// Every platform priority and the default occupy their own band
	seen := map[string]int{}
	for _, p := range []int{
		domain.PlatformTwitter.SyncPriority(),
		domain.PlatformInstagram.SyncPriority(),
		domain.PlatformYouTube.SyncPriority(),
		domain.DefaultSyncPriority,
	} {
		band := BandFor(p)
		if other, dup := seen[band]; dup {
			t.Fatalf("priorities %d and %d share band %s", p, other, band)
		}
		seen[band] = p
	}
}

func TestBandQueuesCoverAllBands(t *testing.T) {
	queues := BandQueues(QueueEmail)
	require.Len(t, queues, 5)

	for name, weight := range queues {
		assert.Contains(t, name, "email:")
		assert.Greater(t, weight, 0)
	}
}

func TestRetryDelayFixed(t *testing.T) {
	cfg := QueueConfig{Backoff: BackoffFixed, BackoffBase: time.Minute}

	assert.Equal(t, time.Minute, cfg.RetryDelay(0))
	assert.Equal(t, time.Minute, cfg.RetryDelay(1))
	assert.Equal(t, time.Minute, cfg.RetryDelay(5))
}

func TestRetryDelayExponential(t *testing.T) {
	cfg := QueueConfig{Backoff: BackoffExponential, BackoffBase: 30 * time.Second}

	assert.Equal(t, 30*time.Second, cfg.RetryDelay(0))
	assert.Equal(t, time.Minute, cfg.RetryDelay(1))
	assert.Equal(t, 2*time.Minute, cfg.RetryDelay(2))
	assert.Equal(t, 4*time.Minute, cfg.RetryDelay(3))
}

func TestRetryDelayRateLimitCooldownOverride(t *testing.T) {
	cfg := Configs[QueueDataSync]
	fn := retryDelayFunc(cfg)

	rateLimited := &domain.UpstreamError{
		Kind:     domain.ErrKindRateLimited,
		Platform: domain.PlatformTwitter,
	}

	// The platform cooldown replaces the generic backoff entirely
	assert.Equal(t, 15*time.Minute, fn(0, rateLimited, nil))
	assert.Equal(t, 15*time.Minute, fn(2, rateLimited, nil))

	// Hard errors keep the generic backoff
	hard := &domain.UpstreamError{
		Kind:     domain.ErrKindServerError,
		Platform: domain.PlatformTwitter,
	}
	assert.Equal(t, 30*time.Second, fn(0, hard, nil))
}

func TestIsFailureExemptsRateLimits(t *testing.T) {
	assert.False(t, isFailure(&domain.UpstreamError{
		Kind:     domain.ErrKindRateLimited,
		Platform: domain.PlatformYouTube,
	}))

	assert.True(t, isFailure(&domain.UpstreamError{
		Kind:     domain.ErrKindServerError,
		Platform: domain.PlatformYouTube,
	}))
}

func TestSyncTaskIDDeterministic(t *testing.T) {
	userID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	accountID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	id1 := SyncTaskID(userID, domain.PlatformTwitter, accountID)
	id2 := SyncTaskID(userID, domain.PlatformTwitter, accountID)

	assert.Equal(t, id1, id2)
	assert.Equal(t,
		"sync-11111111-1111-1111-1111-111111111111-twitter-22222222-2222-2222-2222-222222222222",
		id1)

	// Different account, different key
	other := SyncTaskID(userID, domain.PlatformTwitter, uuid.New())
	assert.NotEqual(t, id1, other)
}

func TestCooldownTaskIDWindowed(t *testing.T) {
	base := "sync-u-twitter-a"
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Same window collapses, different windows stay distinct
	assert.Equal(t, CooldownTaskID(base, at), CooldownTaskID(base, at))
	assert.NotEqual(t, CooldownTaskID(base, at), CooldownTaskID(base, at.Add(time.Minute)))
	assert.NotEqual(t, base, CooldownTaskID(base, at))
}

func TestPayloadRoundTrip(t *testing.T) {
	payload := SyncPlatformPayload{
		UserID:    uuid.New(),
		Platform:  domain.PlatformInstagram,
		AccountID: uuid.New(),
	}

	data, err := MarshalPayload(payload)
	require.NoError(t, err)

	got, err := UnmarshalPayload[SyncPlatformPayload](data)
	require.NoError(t, err)
	assert.Equal(t, payload, *got)
}

func TestQueueConfigsComplete(t *testing.T) {
	for _, name := range AllQueues() {
		cfg, ok := Configs[name]
		require.True(t, ok, "queue %s missing config", name)
		assert.GreaterOrEqual(t, cfg.MaxAttempts, 1)
		assert.GreaterOrEqual(t, cfg.Concurrency, 1)
	}

	// Policy ceilings stay pinned; changing them changes retry behavior
	assert.Equal(t, 3, Configs[QueueDataSync].MaxAttempts)
	assert.Equal(t, 2, Configs[QueueReports].MaxAttempts)
	assert.Equal(t, 5, Configs[QueueEmail].MaxAttempts)
	assert.Equal(t, 3, Configs[QueueAnalytics].MaxAttempts)
	assert.Equal(t, 1, Configs[QueueCleanup].MaxAttempts)

	assert.Equal(t, 5, Configs[QueueDataSync].Concurrency)
	assert.Equal(t, 2, Configs[QueueReports].Concurrency)
	assert.Equal(t, 10, Configs[QueueEmail].Concurrency)
	assert.Equal(t, 3, Configs[QueueAnalytics].Concurrency)
	assert.Equal(t, 1, Configs[QueueCleanup].Concurrency)
}
