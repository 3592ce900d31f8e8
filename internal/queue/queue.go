// Package queue provides the Redis-backed background job system using Asynq
package queue

import (
	"time"
)

// Name identifies a logical job queue
type Name string

const (
	QueueDataSync  Name = "data-sync"
	QueueReports   Name = "report-generation"
	QueueEmail     Name = "email"
	QueueAnalytics Name = "analytics-processing"
	QueueCleanup   Name = "cleanup"
)

// AllQueues lists every logical queue
func AllQueues() []Name {
	return []Name{QueueDataSync, QueueReports, QueueEmail, QueueAnalytics, QueueCleanup}
}

// Task types, one per job payload shape
const (
	TypeSyncPlatform    = "sync:platform"
	TypeSyncDispatch    = "sync:dispatch"
	TypeReportGenerate  = "report:generate"
	TypeReportDispatch  = "report:dispatch"
	TypeEmailSend       = "email:send"
	TypeAnalyticsRollup = "analytics:rollup"
	TypeCleanupPurge    = "cleanup:purge"
)

// BackoffStrategy selects how retry delay grows with attempts
type BackoffStrategy string

const (
	BackoffFixed       BackoffStrategy = "fixed"
	BackoffExponential BackoffStrategy = "exponential"
)

// QueueConfig holds the per-queue retry and concurrency policy
type QueueConfig struct {
	// MaxAttempts is the total execution attempt ceiling (first run included)
	MaxAttempts int

	// Concurrency bounds how many jobs from this queue run simultaneously
	Concurrency int

	Backoff     BackoffStrategy
	BackoffBase time.Duration

	// Retention is how long completed jobs without an idempotency key stay
	// visible for inspection. Keyed jobs are dropped on completion so the
	// key frees for the next run; the backend archives failures with its
	// own bounded retention.
	Retention time.Duration
}

// Configs maps each logical queue to its policy
var Configs = map[Name]QueueConfig{
	QueueDataSync: {
		MaxAttempts: 3,
		Concurrency: 5,
		Backoff:     BackoffExponential,
		BackoffBase: 30 * time.Second,
		Retention:   24 * time.Hour,
	},
	QueueReports: {
		MaxAttempts: 2,
		Concurrency: 2,
		Backoff:     BackoffFixed,
		BackoffBase: time.Minute,
		Retention:   24 * time.Hour,
	},
	QueueEmail: {
		MaxAttempts: 5,
		Concurrency: 10,
		Backoff:     BackoffExponential,
		BackoffBase: 10 * time.Second,
		Retention:   6 * time.Hour,
	},
	QueueAnalytics: {
		MaxAttempts: 3,
		Concurrency: 3,
		Backoff:     BackoffExponential,
		BackoffBase: 15 * time.Second,
		Retention:   12 * time.Hour,
	},
	QueueCleanup: {
		MaxAttempts: 1,
		Concurrency: 1,
		Backoff:     BackoffFixed,
		BackoffBase: 0,
		Retention:   24 * time.Hour,
	},
}

// RetryDelay computes the backoff before attempt n+1 (n = attempts so far)
func (c QueueConfig) RetryDelay(n int) time.Duration {
	if c.Backoff != BackoffExponential {
		return c.BackoffBase
	}

	delay := c.BackoffBase
	for i := 0; i < n; i++ {
		delay *= 2
	}
	return delay
}

// Priority bands. Asynq attaches priority to queues rather than individual
// tasks, so per-job priority maps onto strictly-ordered band queues under
// each logical queue. Band cuts are chosen so each platform priority
// (10/8/6) and the default (5) lands in its own band; equal-band jobs drain
// FIFO.
const (
	bandCritical = "critical" // priority >= 10
	bandHigh     = "high"     // priority >= 8
	bandElevated = "elevated" // priority >= 6
	bandDefault  = "default"  // priority >= 3
	bandLow      = "low"      // anything lower
)

// bands in strict priority order, highest first
var bands = []string{bandCritical, bandHigh, bandElevated, bandDefault, bandLow}

// BandFor maps a job priority to its band
func BandFor(priority int) string {
	switch {
	case priority >= 10:
		return bandCritical
	case priority >= 8:
		return bandHigh
	case priority >= 6:
		return bandElevated
	case priority >= 3:
		return bandDefault
	default:
		return bandLow
	}
}

// BandQueue returns the concrete asynq queue name for a logical queue and
// priority
func BandQueue(name Name, priority int) string {
	return string(name) + ":" + BandFor(priority)
}

// BandQueues returns every concrete asynq queue under a logical queue,
// mapped to descending weights. Servers consume them with strict priority,
// so the weights only fix the ordering.
func BandQueues(name Name) map[string]int {
	queues := make(map[string]int, len(bands))
	for i, band := range bands {
		queues[string(name)+":"+band] = len(bands) - i
	}
	return queues
}
