package domain

import (
	"time"

	"github.com/google/uuid"
)

// SyncResult reports the outcome of syncing a single account. A multi-account
// sync returns one result per account; one account failing never aborts the
// others.
type SyncResult struct {
	AccountID      uuid.UUID     `json:"account_id"`
	Platform       Platform      `json:"platform"`
	Success        bool          `json:"success"`
	ItemsProcessed int           `json:"items_processed"`
	Errors         []string      `json:"errors,omitempty"`
	Duration       time.Duration `json:"duration"`
}

// AddError records a failure on the result and marks it unsuccessful
func (r *SyncResult) AddError(msg string) {
	r.Success = false
	r.Errors = append(r.Errors, msg)
}
