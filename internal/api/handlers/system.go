package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// SystemHandler exposes host-level stats for the ops dashboard
type SystemHandler struct {
	started time.Time
	version string
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(version string) *SystemHandler {
	return &SystemHandler{started: time.Now(), version: version}
}

// GetStats handles GET /api/v1/system/stats
func (h *SystemHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		RenderError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	stats := map[string]interface{}{
		"version":    h.version,
		"uptime":     time.Since(h.started).Round(time.Second).String(),
		"goroutines": runtime.NumGoroutine(),
	}

	if vm, err := mem.VirtualMemoryWithContext(r.Context()); err == nil {
		stats["memory"] = map[string]interface{}{
			"total":        vm.Total,
			"used":         vm.Used,
			"used_percent": vm.UsedPercent,
		}
	}

	// Sampled over the interval since the last call; zero means not yet known
	if percents, err := cpu.PercentWithContext(r.Context(), 0, false); err == nil && len(percents) > 0 {
		stats["cpu_percent"] = percents[0]
	}

	RenderJSON(w, http.StatusOK, stats)
}

// GetHealth handles GET /api/v1/health
func (h *SystemHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	RenderJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	})
}
