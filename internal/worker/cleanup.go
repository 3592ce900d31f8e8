package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sadewadee/social-analytics/internal/cache"
	"github.com/sadewadee/social-analytics/internal/domain"
	"github.com/sadewadee/social-analytics/internal/queue"
)

// DefaultRetentionDays is how long raw analytics records and report rows
// are kept before the weekly cleanup purges them
const DefaultRetentionDays = 90

// CleanupProcessor handles cleanup:purge tasks
type CleanupProcessor struct {
	analytics domain.AnalyticsRepository
	reports   domain.ReportRepository
	cache     *cache.Tiered
}

// NewCleanupProcessor creates a cleanup processor
func NewCleanupProcessor(analytics domain.AnalyticsRepository, reports domain.ReportRepository, tiered *cache.Tiered) *CleanupProcessor {
	return &CleanupProcessor{analytics: analytics, reports: reports, cache: tiered}
}

// ProcessTask purges expired rows and drops stale cached aggregates
func (p *CleanupProcessor) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.UnmarshalPayload[queue.CleanupPurgePayload](task.Payload())
	if err != nil {
		return fmt.Errorf("cleanup:purge payload: %w", err)
	}

	days := payload.OlderThanDays
	if days <= 0 {
		days = DefaultRetentionDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	records, err := p.analytics.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge analytics records: %w", err)
	}
	reports, err := p.reports.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge reports: %w", err)
	}

	if p.cache != nil {
		p.cache.Invalidate(ctx, cache.KeyPrefixAnalytics+":*")
	}

	log.Printf("[Cleanup] purged %d analytics records and %d reports older than %s", records, reports, cutoff.Format("2006-01-02"))
	return nil
}
