package domain

import (
	"time"

	"github.com/google/uuid"
)

// AnalyticsRecord is one normalized metrics snapshot for a single post,
// produced by sync jobs from the raw platform responses
type AnalyticsRecord struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	Platform  Platform  `json:"platform"`
	PostID    string    `json:"post_id"`

	Impressions int64 `json:"impressions"`
	Likes       int64 `json:"likes"`
	Comments    int64 `json:"comments"`
	Shares      int64 `json:"shares"`
	Followers   int64 `json:"followers"`

	PublishedAt time.Time `json:"published_at"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// HourlyRollup is an aggregated per-account bucket computed by the
// analytics-processing job
type HourlyRollup struct {
	AccountID   uuid.UUID `json:"account_id"`
	Platform    Platform  `json:"platform"`
	Hour        time.Time `json:"hour"`
	Posts       int64     `json:"posts"`
	Impressions int64     `json:"impressions"`
	Engagement  int64     `json:"engagement"` // likes + comments + shares
}

// Overview is the aggregate shown on the dashboard landing page
type Overview struct {
	Accounts    int             `json:"accounts"`
	Posts       int64           `json:"posts"`
	Impressions int64           `json:"impressions"`
	Engagement  int64           `json:"engagement"`
	ByPlatform  []PlatformStats `json:"by_platform"`
}

// PlatformStats is the per-platform slice of an Overview
type PlatformStats struct {
	Platform    Platform `json:"platform"`
	Accounts    int      `json:"accounts"`
	Posts       int64    `json:"posts"`
	Impressions int64    `json:"impressions"`
	Engagement  int64    `json:"engagement"`
}

// TimeseriesPoint is one bucket in an account timeseries response
type TimeseriesPoint struct {
	Hour        time.Time `json:"hour"`
	Posts       int64     `json:"posts"`
	Impressions int64     `json:"impressions"`
	Engagement  int64     `json:"engagement"`
}
