package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReportStatus represents the status of a generated report
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusCompleted ReportStatus = "completed"
	ReportStatusFailed    ReportStatus = "failed"
)

// Report is one generated analytics report artifact
type Report struct {
	ID       uuid.UUID    `json:"id"`
	UserID   uuid.UUID    `json:"user_id"`
	Period   ReportPeriod `json:"period"`
	Status   ReportStatus `json:"status"`
	FilePath string       `json:"file_path,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	ErrorMessage *string `json:"error_message,omitempty"`
}

// ReportPeriod identifies the time window a report covers
type ReportPeriod string

const (
	ReportPeriodDaily  ReportPeriod = "daily"
	ReportPeriodWeekly ReportPeriod = "weekly"
)

// Range returns the half-open [from, to) window the period covers,
// anchored at now
func (p ReportPeriod) Range(now time.Time) (time.Time, time.Time) {
	switch p {
	case ReportPeriodDaily:
		return now.Add(-24 * time.Hour), now
	default:
		return now.Add(-7 * 24 * time.Hour), now
	}
}
