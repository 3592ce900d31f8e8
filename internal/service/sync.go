// Package service contains the use-case layer between the HTTP handlers
// and the repositories/queues.
package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/sadewadee/social-analytics/internal/cache"
	"github.com/sadewadee/social-analytics/internal/domain"
	"github.com/sadewadee/social-analytics/internal/queue"
)

// Enqueuer is the narrow enqueue surface the sync service needs.
// Satisfied by *queue.Client.
type Enqueuer interface {
	Enqueue(ctx context.Context, q queue.Name, taskType string, payload any, opts queue.EnqueueOptions) error
}

// UserSyncer runs a user's account syncs in-process and reports per-account
// results. Satisfied by *worker.SyncProcessor.
type UserSyncer interface {
	SyncUser(ctx context.Context, userID uuid.UUID) ([]domain.SyncResult, error)
}

// SyncService triggers on-demand sync jobs for dashboard users
type SyncService struct {
	accounts domain.AccountRepository
	enqueuer Enqueuer
	syncer   UserSyncer
	cache    *cache.Tiered
}

// NewSyncService creates a sync service
func NewSyncService(accounts domain.AccountRepository, enqueuer Enqueuer, syncer UserSyncer, tiered *cache.Tiered) *SyncService {
	return &SyncService{accounts: accounts, enqueuer: enqueuer, syncer: syncer, cache: tiered}
}

// TriggerUserSync enqueues one sync job per active account the user owns
// and returns the number of jobs enqueued. Re-triggering while a job is
// still in flight is a no-op for that account.
func (s *SyncService) TriggerUserSync(ctx context.Context, userID uuid.UUID) (int, error) {
	accounts, err := s.accounts.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list accounts: %w", err)
	}

	enqueued := 0
	for _, account := range accounts {
		if !account.Active {
			continue
		}
		if err := s.enqueueAccountSync(ctx, account); err != nil {
			log.Printf("[Sync] enqueue failed for account %s: %v", account.ID, err)
			continue
		}
		enqueued++
	}

	s.invalidateUser(ctx, userID)
	return enqueued, nil
}

// SyncUserNow runs the user's account syncs synchronously and returns the
// aggregated per-account results. Failures are isolated per account; the
// caller waits for the whole pass.
func (s *SyncService) SyncUserNow(ctx context.Context, userID uuid.UUID) ([]domain.SyncResult, error) {
	if s.syncer == nil {
		return nil, fmt.Errorf("synchronous sync is not configured")
	}
	return s.syncer.SyncUser(ctx, userID)
}

// TriggerAccountSync enqueues a sync job for one account, verifying the
// caller owns it
func (s *SyncService) TriggerAccountSync(ctx context.Context, userID, accountID uuid.UUID) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.UserID != userID {
		return domain.ErrAccountNotFound
	}
	if err := s.enqueueAccountSync(ctx, *account); err != nil {
		return err
	}
	s.invalidateUser(ctx, userID)
	return nil
}

func (s *SyncService) enqueueAccountSync(ctx context.Context, account domain.SocialAccount) error {
	return s.enqueuer.Enqueue(ctx, queue.QueueDataSync, queue.TypeSyncPlatform, queue.SyncPlatformPayload{
		UserID:    account.UserID,
		Platform:  account.Platform,
		AccountID: account.ID,
	}, queue.EnqueueOptions{
		Priority: account.Platform.SyncPriority(),
		TaskID:   queue.SyncTaskID(account.UserID, account.Platform, account.ID),
	})
}

// invalidateUser drops the user's cached analytics views; fresh data will
// land once the sync jobs run
func (s *SyncService) invalidateUser(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, cache.KeyPrefixAnalytics+":*:"+userID.String()+"*")
	s.cache.Invalidate(ctx, cache.KeyPrefixAccounts+":*:"+userID.String()+"*")
}
