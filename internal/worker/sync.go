// Package worker contains the task processors registered with the queue
// workers. Each processor owns one logical queue's task types.
package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/semaphore"

	"github.com/sadewadee/social-analytics/internal/cache"
	"github.com/sadewadee/social-analytics/internal/domain"
	"github.com/sadewadee/social-analytics/internal/platform"
	"github.com/sadewadee/social-analytics/internal/queue"
)

// Enqueuer is the narrow enqueue surface processors use to schedule
// follow-up work. Satisfied by *queue.Client.
type Enqueuer interface {
	Enqueue(ctx context.Context, q queue.Name, taskType string, payload any, opts queue.EnqueueOptions) error
}

// maxConcurrentAccountSyncs bounds how many accounts a single user sync
// fetches in parallel
const maxConcurrentAccountSyncs = 4

// SyncProcessor handles sync:platform and sync:dispatch tasks
type SyncProcessor struct {
	accounts  domain.AccountRepository
	analytics domain.AnalyticsRepository
	platforms platform.Registry
	enqueuer  Enqueuer
	cache     *cache.Tiered
}

// NewSyncProcessor creates a sync processor
func NewSyncProcessor(accounts domain.AccountRepository, analytics domain.AnalyticsRepository, platforms platform.Registry, enqueuer Enqueuer, tiered *cache.Tiered) *SyncProcessor {
	return &SyncProcessor{
		accounts:  accounts,
		analytics: analytics,
		platforms: platforms,
		enqueuer:  enqueuer,
		cache:     tiered,
	}
}

// ProcessTask dispatches on task type
func (p *SyncProcessor) ProcessTask(ctx context.Context, task *asynq.Task) error {
	switch task.Type() {
	case queue.TypeSyncPlatform:
		return p.processSyncPlatform(ctx, task)
	case queue.TypeSyncDispatch:
		return p.processSyncDispatch(ctx, task)
	default:
		return fmt.Errorf("unexpected task type %q", task.Type())
	}
}

// processSyncPlatform fetches recent content for one account and stores it.
// Rate-limit responses from the platform do not consume a retry attempt:
// the task is re-enqueued after the platform's cooldown window instead of
// failing.
func (p *SyncProcessor) processSyncPlatform(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.UnmarshalPayload[queue.SyncPlatformPayload](task.Payload())
	if err != nil {
		return fmt.Errorf("sync:platform payload: %w", err)
	}

	account, err := p.accounts.GetByID(ctx, payload.AccountID)
	if err != nil {
		return fmt.Errorf("failed to load account %s: %w", payload.AccountID, err)
	}

	result, syncErr := p.syncAccount(ctx, *account)
	if result.Success {
		log.Printf("[Sync] account %s (%s): %d items", account.Handle, account.Platform, result.ItemsProcessed)
		return nil
	}

	err = syncErr
	switch {
	case domain.IsRateLimited(err):
		cooldown := domain.CooldownFor(err)
		runAt := time.Now().Add(cooldown)
		base := queue.SyncTaskID(payload.UserID, payload.Platform, payload.AccountID)
		enqErr := p.enqueuer.Enqueue(ctx, queue.QueueDataSync, queue.TypeSyncPlatform, payload, queue.EnqueueOptions{
			Priority: account.Platform.SyncPriority(),
			Delay:    cooldown,
			TaskID:   queue.CooldownTaskID(base, runAt),
		})
		if enqErr != nil {
			return fmt.Errorf("failed to reschedule rate-limited sync: %w", enqErr)
		}
		log.Printf("[Sync] account %s (%s) rate limited, retrying in %s", account.Handle, account.Platform, cooldown)
		return nil
	case domain.IsCredentialExpired(err):
		if markErr := p.accounts.MarkSyncError(ctx, account.ID, err.Error()); markErr != nil {
			log.Printf("[Sync] failed to record credential error for %s: %v", account.ID, markErr)
		}
		return fmt.Errorf("credentials expired for %s account %s: %w", account.Platform, account.Handle, asynq.SkipRetry)
	default:
		if markErr := p.accounts.MarkSyncError(ctx, account.ID, err.Error()); markErr != nil {
			log.Printf("[Sync] failed to record sync error for %s: %v", account.ID, markErr)
		}
		return fmt.Errorf("sync failed for %s account %s: %w", account.Platform, account.Handle, err)
	}
}

// processSyncDispatch fans out one sync:platform task per active account
// across all users. Triggered by the recurring schedule.
func (p *SyncProcessor) processSyncDispatch(ctx context.Context, task *asynq.Task) error {
	if _, err := queue.UnmarshalPayload[queue.SyncDispatchPayload](task.Payload()); err != nil {
		return fmt.Errorf("sync:dispatch payload: %w", err)
	}

	accounts, err := p.accounts.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active accounts: %w", err)
	}

	enqueued := 0
	for _, account := range accounts {
		payload := queue.SyncPlatformPayload{
			UserID:    account.UserID,
			Platform:  account.Platform,
			AccountID: account.ID,
		}
		err := p.enqueuer.Enqueue(ctx, queue.QueueDataSync, queue.TypeSyncPlatform, payload, queue.EnqueueOptions{
			Priority: account.Platform.SyncPriority(),
			TaskID:   queue.SyncTaskID(account.UserID, account.Platform, account.ID),
		})
		if err != nil {
			log.Printf("[Sync] dispatch enqueue failed for account %s: %v", account.ID, err)
			continue
		}
		enqueued++
	}

	log.Printf("[Sync] dispatched %d of %d account syncs", enqueued, len(accounts))
	return nil
}

// SyncUser synchronizes all of a user's active accounts inline and returns
// one result per account. Account failures are isolated: one account's
// error never aborts the others.
func (p *SyncProcessor) SyncUser(ctx context.Context, userID uuid.UUID) ([]domain.SyncResult, error) {
	accounts, err := p.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for user %s: %w", userID, err)
	}

	results := make([]domain.SyncResult, len(accounts))
	sem := semaphore.NewWeighted(maxConcurrentAccountSyncs)
	var wg sync.WaitGroup

	for i, account := range accounts {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = domain.SyncResult{AccountID: account.ID, Platform: account.Platform}
			results[i].AddError(err.Error())
			continue
		}
		wg.Add(1)
		go func(i int, account domain.SocialAccount) {
			defer wg.Done()
			defer sem.Release(1)
			results[i], _ = p.syncAccount(ctx, account)
		}(i, account)
	}
	wg.Wait()

	if p.cache != nil {
		p.cache.Invalidate(ctx, cache.KeyPrefixAnalytics+":*:"+userID.String()+"*")
		p.cache.Invalidate(ctx, cache.KeyPrefixAccounts+":*:"+userID.String()+"*")
	}
	return results, nil
}

// syncAccount fetches recent content for one account and persists it.
// The returned error is the underlying cause, used by callers that need
// to classify the failure; the result carries the human-readable form.
func (p *SyncProcessor) syncAccount(ctx context.Context, account domain.SocialAccount) (domain.SyncResult, error) {
	start := time.Now()
	result := domain.SyncResult{AccountID: account.ID, Platform: account.Platform}

	client, err := p.platforms.Get(account.Platform)
	if err != nil {
		result.AddError(err.Error())
		result.Duration = time.Since(start)
		return result, err
	}

	content, err := client.FetchRecentContent(ctx, account)
	if err != nil {
		result.AddError(err.Error())
		result.Duration = time.Since(start)
		return result, err
	}

	records := make([]domain.AnalyticsRecord, 0, len(content))
	now := time.Now().UTC()
	for _, c := range content {
		records = append(records, domain.AnalyticsRecord{
			AccountID:   account.ID,
			Platform:    account.Platform,
			PostID:      c.PostID,
			Impressions: c.Impressions,
			Likes:       c.Likes,
			Comments:    c.Comments,
			Shares:      c.Shares,
			Followers:   c.Followers,
			PublishedAt: c.PublishedAt,
			RecordedAt:  now,
		})
	}

	inserted, err := p.analytics.CreateBatch(ctx, records)
	if err != nil {
		result.AddError(fmt.Sprintf("failed to store records: %v", err))
		result.Duration = time.Since(start)
		return result, err
	}

	if err := p.accounts.MarkSynced(ctx, account.ID, now); err != nil {
		log.Printf("[Sync] failed to mark account %s synced: %v", account.ID, err)
	}

	result.Success = true
	result.ItemsProcessed = inserted
	result.Duration = time.Since(start)
	return result, nil
}
