package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/sadewadee/social-analytics/internal/domain"
	"github.com/sadewadee/social-analytics/internal/service"
)

// SyncHandler triggers on-demand sync jobs
type SyncHandler struct {
	sync *service.SyncService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(sync *service.SyncService) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// TriggerAll handles POST /api/v1/sync
func (h *SyncHandler) TriggerAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		RenderError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	// wait=1 runs the sync in-request and returns per-account results
	if r.URL.Query().Get("wait") == "1" {
		results, err := h.sync.SyncUserNow(r.Context(), userID)
		if err != nil {
			RenderError(w, http.StatusInternalServerError, "Failed to sync: "+err.Error())
			return
		}
		RenderJSON(w, http.StatusOK, map[string]interface{}{
			"results": results,
		})
		return
	}

	enqueued, err := h.sync.TriggerUserSync(r.Context(), userID)
	if err != nil {
		RenderError(w, http.StatusInternalServerError, "Failed to trigger sync: "+err.Error())
		return
	}

	RenderJSON(w, http.StatusAccepted, map[string]interface{}{
		"enqueued": enqueued,
	})
}

// TriggerAccount handles POST /api/v1/sync/accounts/{id}
func (h *SyncHandler) TriggerAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		RenderError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	accountID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RenderError(w, http.StatusBadRequest, "Invalid account ID")
		return
	}

	if err := h.sync.TriggerAccountSync(r.Context(), userID, accountID); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			RenderError(w, http.StatusNotFound, "Account not found")
			return
		}
		RenderError(w, http.StatusInternalServerError, "Failed to trigger sync: "+err.Error())
		return
	}

	RenderJSON(w, http.StatusAccepted, map[string]interface{}{
		"account_id": accountID,
	})
}
