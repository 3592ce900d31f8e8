package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sadewadee/social-analytics/internal/domain"
)

// SyncPlatformPayload is the payload for a single-account sync task
type SyncPlatformPayload struct {
	UserID    uuid.UUID       `json:"user_id"`
	Platform  domain.Platform `json:"platform"`
	AccountID uuid.UUID       `json:"account_id"`
}

// SyncDispatchPayload triggers fan-out of sync tasks for all active accounts
type SyncDispatchPayload struct {
	// Requested marks manual triggers; scheduled dispatches leave it zero
	Requested time.Time `json:"requested,omitempty"`
}

// ReportGeneratePayload is the payload for one report-generation task
type ReportGeneratePayload struct {
	ReportID uuid.UUID           `json:"report_id"`
	UserID   uuid.UUID           `json:"user_id"`
	Period   domain.ReportPeriod `json:"period"`
}

// ReportDispatchPayload triggers per-user fan-out of report generation
type ReportDispatchPayload struct {
	Period domain.ReportPeriod `json:"period"`
}

// EmailSendPayload is the payload for an outbound email task
type EmailSendPayload struct {
	To       []string          `json:"to"`
	Subject  string            `json:"subject"`
	Template string            `json:"template"`
	Data     map[string]string `json:"data,omitempty"`
}

// AnalyticsRollupPayload is the payload for an hourly rollup task
type AnalyticsRollupPayload struct {
	// Hour is the bucket to roll up; zero means the previous full hour
	Hour time.Time `json:"hour,omitempty"`
}

// CleanupPurgePayload is the payload for the retention cleanup task
type CleanupPurgePayload struct {
	// OlderThanDays overrides the default retention window when positive
	OlderThanDays int `json:"older_than_days,omitempty"`
}

// SyncTaskID builds the idempotency key for a platform sync job: at most one
// such job is in flight per (user, platform, account)
func SyncTaskID(userID uuid.UUID, platform domain.Platform, accountID uuid.UUID) string {
	return fmt.Sprintf("sync-%s-%s-%s", userID, platform, accountID)
}

// ReportTaskID builds the idempotency key for a report-generation job
func ReportTaskID(userID uuid.UUID, period domain.ReportPeriod) string {
	return fmt.Sprintf("report-%s-%s", userID, period)
}

// CooldownTaskID builds the ID for a sync retry scheduled after a rate
// limit. The window stamp dedupes concurrent cooldown re-enqueues while
// keeping the ID distinct from the still-active original task.
func CooldownTaskID(base string, runAt time.Time) string {
	return fmt.Sprintf("%s-cooldown-%d", base, runAt.Unix())
}

// MarshalPayload serializes a task payload
func MarshalPayload(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return data, nil
}

// UnmarshalPayload deserializes a task payload
func UnmarshalPayload[T any](data []byte) (*T, error) {
	var payload T
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return &payload, nil
}
