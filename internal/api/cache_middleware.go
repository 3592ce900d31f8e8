package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sadewadee/social-analytics/internal/cache"
)

// CachePolicy configures response caching for one route
type CachePolicy struct {
	// Prefix namespaces the cache keys, e.g. cache.KeyPrefixAnalytics
	Prefix string

	// TTL is the remote lifetime of a cached response
	TTL time.Duration

	// Tags returns the invalidation tags for a request. Static tags plus
	// per-user tags live here.
	Tags func(r *http.Request) []string
}

// UserTag is the invalidation tag for one user's cached responses
func UserTag(user string) string {
	return "user:" + user
}

// ResponseCache caches successful GET responses in the tiered cache,
// keyed by route, user and query fingerprint. Non-GET requests and non-200
// responses pass through uncached.
func ResponseCache(tiered *cache.Tiered, policy CachePolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := cache.RequestKey(policy.Prefix, r.URL.Path, CacheUser(r), r.URL.Query())

			tags := []string(nil)
			if policy.Tags != nil {
				tags = policy.Tags(r)
			}
			setCacheHeaders(ctx, w, tiered, policy, tags)

			if body, ok := tiered.Get(ctx, key); ok {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(http.StatusOK)
				w.Write(body)
				return
			}

			crw := NewCachedResponseWriter(w)
			crw.Header().Set("X-Cache", "MISS")
			next.ServeHTTP(crw, r)

			if crw.StatusCode() == http.StatusOK {
				tiered.Set(ctx, key, crw.Body(), policy.TTL, tags...)
			}
		})
	}
}

func setCacheHeaders(ctx context.Context, w http.ResponseWriter, tiered *cache.Tiered, policy CachePolicy, tags []string) {
	w.Header().Set("X-Cache-TTL", fmt.Sprintf("%d", int(policy.TTL.Seconds())))
	if len(tags) > 0 {
		w.Header().Set("X-Cache-Tags", strings.Join(tags, ","))
	}
	w.Header().Set("X-Cache-Stats-Local-Size", fmt.Sprintf("%d", tiered.LocalSize()))
	redisStatus := "disconnected"
	if tiered.RemoteConnected(ctx) {
		redisStatus = "connected"
	}
	w.Header().Set("X-Cache-Stats-Redis-Status", redisStatus)
	w.Header().Set("X-Cache-Hit-Rate", fmt.Sprintf("%.2f", tiered.HitRate()))
}

// CachedResponseWriter captures the response for caching
type CachedResponseWriter struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

// NewCachedResponseWriter creates a new CachedResponseWriter
func NewCachedResponseWriter(w http.ResponseWriter) *CachedResponseWriter {
	return &CachedResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		body:           &bytes.Buffer{},
	}
}

// WriteHeader captures the status code
func (crw *CachedResponseWriter) WriteHeader(code int) {
	crw.statusCode = code
	crw.ResponseWriter.WriteHeader(code)
}

// Write captures the response body
func (crw *CachedResponseWriter) Write(b []byte) (int, error) {
	crw.body.Write(b)
	return crw.ResponseWriter.Write(b)
}

// StatusCode returns the captured status code
func (crw *CachedResponseWriter) StatusCode() int {
	return crw.statusCode
}

// Body returns the captured response body
func (crw *CachedResponseWriter) Body() []byte {
	return crw.body.Bytes()
}
