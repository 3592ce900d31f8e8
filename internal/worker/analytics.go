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

// AnalyticsProcessor handles analytics:rollup tasks
type AnalyticsProcessor struct {
	analytics domain.AnalyticsRepository
	cache     *cache.Tiered
}

// NewAnalyticsProcessor creates an analytics processor
func NewAnalyticsProcessor(analytics domain.AnalyticsRepository, tiered *cache.Tiered) *AnalyticsProcessor {
	return &AnalyticsProcessor{analytics: analytics, cache: tiered}
}

// ProcessTask rolls raw records for one hour into the hourly table. A zero
// Hour in the payload means the previous full hour, which is what the
// recurring schedule sends.
func (p *AnalyticsProcessor) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.UnmarshalPayload[queue.AnalyticsRollupPayload](task.Payload())
	if err != nil {
		return fmt.Errorf("analytics:rollup payload: %w", err)
	}

	hour := payload.Hour
	if hour.IsZero() {
		hour = time.Now().UTC().Truncate(time.Hour).Add(-time.Hour)
	} else {
		hour = hour.UTC().Truncate(time.Hour)
	}

	buckets, err := p.analytics.RollupHour(ctx, hour)
	if err != nil {
		return fmt.Errorf("rollup for %s failed: %w", hour.Format(time.RFC3339), err)
	}

	if buckets > 0 && p.cache != nil {
		// Rolled-up data feeds the dashboard aggregates; drop them
		p.cache.InvalidateTag(ctx, cache.TagAnalytics)
	}

	log.Printf("[Analytics] rolled up %d buckets for %s", buckets, hour.Format(time.RFC3339))
	return nil
}
