package domain

import (
	"time"

	"github.com/google/uuid"
)

// SocialAccount is a linked platform account owned by a dashboard user
type SocialAccount struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Platform Platform  `json:"platform"`
	Handle   string    `json:"handle"`
	Active   bool      `json:"active"`

	// Timestamps
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`

	// Last sync error, if any
	SyncError *string `json:"sync_error,omitempty"`
}

// AccountListParams are parameters for listing accounts
type AccountListParams struct {
	UserID   *uuid.UUID
	Platform *Platform
	Active   *bool
	Limit    int
	Offset   int
}
