package handlers

import (
	"context"
	"net/http"

	"github.com/sadewadee/social-analytics/internal/queue"
)

// QueueStatsProvider reports per-queue job-state counts.
// Satisfied by *queue.Client.
type QueueStatsProvider interface {
	GetQueueStats(ctx context.Context) (map[queue.Name]queue.QueueStats, error)
}

// QueueHandler exposes queue observability
type QueueHandler struct {
	stats QueueStatsProvider
}

// NewQueueHandler creates a new QueueHandler
func NewQueueHandler(stats QueueStatsProvider) *QueueHandler {
	return &QueueHandler{stats: stats}
}

// GetStats handles GET /api/v1/queues/stats
func (h *QueueHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		RenderError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	stats, err := h.stats.GetQueueStats(r.Context())
	if err != nil {
		RenderError(w, http.StatusInternalServerError, "Failed to get queue stats: "+err.Error())
		return
	}

	RenderJSON(w, http.StatusOK, map[string]interface{}{
		"queues": stats,
	})
}
