// Package handlers contains the HTTP handlers for the dashboard API.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sadewadee/social-analytics/internal/domain"
	"github.com/sadewadee/social-analytics/internal/service"
)

// AnalyticsHandler serves the dashboard's analytics views
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// GetOverview handles GET /api/v1/analytics/overview
func (h *AnalyticsHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		RenderError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	overview, err := h.analytics.GetOverview(r.Context(), userID)
	if err != nil {
		RenderError(w, http.StatusInternalServerError, "Failed to get overview: "+err.Error())
		return
	}

	RenderJSON(w, http.StatusOK, overview)
}

// GetTimeseries handles GET /api/v1/analytics/accounts/{id}/timeseries
func (h *AnalyticsHandler) GetTimeseries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
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

	var from, to time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			RenderError(w, http.StatusBadRequest, "Invalid from timestamp")
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			RenderError(w, http.StatusBadRequest, "Invalid to timestamp")
			return
		}
	}

	points, err := h.analytics.GetTimeseries(r.Context(), userID, accountID, from, to)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			RenderError(w, http.StatusNotFound, "Account not found")
			return
		}
		RenderError(w, http.StatusBadRequest, err.Error())
		return
	}

	RenderJSON(w, http.StatusOK, map[string]interface{}{
		"account_id": accountID,
		"points":     points,
	})
}

// ListAccounts handles GET /api/v1/accounts
func (h *AnalyticsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		RenderError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	accounts, err := h.analytics.ListAccounts(r.Context(), userID)
	if err != nil {
		RenderError(w, http.StatusInternalServerError, "Failed to list accounts: "+err.Error())
		return
	}

	RenderJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"total":    len(accounts),
	})
}
