// Package api wires the HTTP surface: routing, middleware and the
// response cache.
package api

import (
	"net/http"

	"github.com/sadewadee/social-analytics/internal/api/handlers"
	"github.com/sadewadee/social-analytics/internal/cache"
)

// Router sets up all API routes
type Router struct {
	mux       *http.ServeMux
	cache     *cache.Tiered
	analytics *handlers.AnalyticsHandler
	sync      *handlers.SyncHandler
	caches    *handlers.CacheHandler
	queues    *handlers.QueueHandler
	system    *handlers.SystemHandler
}

// NewRouter creates a new Router
func NewRouter(
	tiered *cache.Tiered,
	analytics *handlers.AnalyticsHandler,
	sync *handlers.SyncHandler,
	caches *handlers.CacheHandler,
	queues *handlers.QueueHandler,
	system *handlers.SystemHandler,
) *Router {
	return &Router{
		mux:       http.NewServeMux(),
		cache:     tiered,
		analytics: analytics,
		sync:      sync,
		caches:    caches,
		queues:    queues,
		system:    system,
	}
}

// Setup configures all routes
func (r *Router) Setup(token string) http.Handler {
	analyticsCache := ResponseCache(r.cache, CachePolicy{
		Prefix: cache.KeyPrefixAnalytics,
		TTL:    cache.TTLOverview,
		Tags:   analyticsTags,
	})
	timeseriesCache := ResponseCache(r.cache, CachePolicy{
		Prefix: cache.KeyPrefixAnalytics,
		TTL:    cache.TTLTimeseries,
		Tags:   analyticsTags,
	})
	accountsCache := ResponseCache(r.cache, CachePolicy{
		Prefix: cache.KeyPrefixAccounts,
		TTL:    cache.TTLAccounts,
		Tags:   analyticsTags,
	})

	// Analytics endpoints (cached)
	r.mux.Handle("/api/v1/analytics/overview",
		analyticsCache(http.HandlerFunc(r.analytics.GetOverview)))
	r.mux.Handle("/api/v1/analytics/accounts/{id}/timeseries",
		timeseriesCache(http.HandlerFunc(r.analytics.GetTimeseries)))
	r.mux.Handle("/api/v1/accounts",
		accountsCache(http.HandlerFunc(r.analytics.ListAccounts)))

	// Sync triggers
	r.mux.HandleFunc("/api/v1/sync", r.sync.TriggerAll)
	r.mux.HandleFunc("/api/v1/sync/accounts/{id}", r.sync.TriggerAccount)

	// Cache operations
	r.mux.HandleFunc("/api/v1/cache", r.caches.Invalidate)
	r.mux.HandleFunc("/api/v1/cache/stats", r.caches.GetStats)
	r.mux.HandleFunc("/api/v1/cache/health", r.caches.GetHealth)

	// Queue observability
	r.mux.HandleFunc("/api/v1/queues/stats", r.queues.GetStats)

	// System
	r.mux.HandleFunc("/api/v1/system/stats", r.system.GetStats)
	r.mux.HandleFunc("/api/v1/health", r.system.GetHealth)

	// Apply middleware
	return Chain(r.mux,
		Recovery,
		Logger,
		CORS,
		SecurityHeaders,
		Auth(token),
		Identity,
	)
}

// analyticsTags tags cached analytics responses for group invalidation
func analyticsTags(req *http.Request) []string {
	tags := []string{cache.TagAnalytics}
	if id, ok := handlers.UserID(req); ok {
		tags = append(tags, UserTag(id.String()))
	}
	return tags
}
