package handlers

import (
	"net/http"

	"github.com/sadewadee/social-analytics/internal/cache"
)

// CacheHandler exposes cache stats, health and invalidation
type CacheHandler struct {
	cache *cache.Tiered
}

// NewCacheHandler creates a new CacheHandler
func NewCacheHandler(tiered *cache.Tiered) *CacheHandler {
	return &CacheHandler{cache: tiered}
}

// GetStats handles GET /api/v1/cache/stats
func (h *CacheHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		RenderError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	stats := h.cache.GetStats(r.Context())
	RenderJSON(w, http.StatusOK, map[string]interface{}{
		"local":    stats.Local,
		"redis":    stats.Remote,
		"hit_rate": h.cache.HitRate(),
	})
}

// GetHealth handles GET /api/v1/cache/health. Degraded and unhealthy
// report 503 so load balancers can act on it.
func (h *CacheHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		RenderError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	health := h.cache.HealthCheck(r.Context())
	code := http.StatusOK
	if health.Status != cache.HealthHealthy {
		code = http.StatusServiceUnavailable
	}
	RenderJSON(w, code, health)
}

// Invalidate handles DELETE /api/v1/cache?pattern=...
func (h *CacheHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		RenderError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		RenderError(w, http.StatusBadRequest, "Missing pattern parameter")
		return
	}

	h.cache.Invalidate(r.Context(), pattern)
	RenderJSON(w, http.StatusOK, map[string]interface{}{
		"pattern": pattern,
	})
}
