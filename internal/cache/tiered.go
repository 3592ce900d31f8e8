package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Tiered is the two-tier cache service: a bounded in-process tier in front
// of a shared remote store. The cache is an optimization, never a source of
// truth: remote failures degrade to miss/no-op and are not surfaced to
// callers.
type Tiered struct {
	local  *Local
	remote Store

	hits   atomic.Int64
	misses atomic.Int64
}

// HealthStatus is the outcome of a cache health check
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// Health reports remote-tier health
type Health struct {
	Status  HealthStatus `json:"status"`
	Details string       `json:"details,omitempty"`
}

// Stats reports utilization of both tiers
type Stats struct {
	Local  LocalStats  `json:"local"`
	Remote RemoteStats `json:"remote"`
}

// LocalStats reports the in-process tier
type LocalStats struct {
	Size    int `json:"size"`
	MaxSize int `json:"max_size"`
}

// RemoteStats reports the shared store
type RemoteStats struct {
	Connected   bool   `json:"connected"`
	MemoryUsage string `json:"memory_usage,omitempty"`
}

// NewTiered creates the tiered cache over the given remote store
func NewTiered(remote Store, localMaxEntries int) *Tiered {
	return &Tiered{
		local:  NewLocal(localMaxEntries),
		remote: remote,
	}
}

// newTieredWithLocal wires a pre-built local tier; tests use it to control
// the clock and skip the sweep goroutine
func newTieredWithLocal(remote Store, local *Local) *Tiered {
	return &Tiered{local: local, remote: remote}
}

// Get returns the cached value for key. Local tier first; on a local miss
// the remote tier is consulted and, when it hits, the local tier is
// repopulated with the remaining remote TTL capped at the local ceiling.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	if val, ok := t.local.Get(key); ok {
		t.hits.Add(1)
		return val, true
	}

	val, err := t.remote.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("[Cache] WARNING: remote get failed for %s: %v", key, err)
		}
		t.misses.Add(1)
		return nil, false
	}

	localTTL := LocalTTLCeiling
	if remaining, err := t.remote.TTL(ctx, key); err == nil && remaining < localTTL {
		localTTL = remaining
	}
	t.local.Set(key, val, localTTL)

	t.hits.Add(1)
	return val, true
}

// Set writes the value to both tiers: the remote store with the full TTL,
// the local tier capped at the local ceiling. Best effort; a remote failure
// is logged and swallowed.
func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) {
	if ttl <= 0 {
		return
	}

	if err := t.remote.Set(ctx, key, value, ttl); err != nil {
		log.Printf("[Cache] WARNING: remote set failed for %s: %v", key, err)
	} else if len(tags) > 0 {
		for _, tag := range tags {
			tagKey := fmt.Sprintf("%s:%s", KeyPrefixTag, tag)
			if err := t.remote.AddToSet(ctx, tagKey, ttl, key); err != nil {
				log.Printf("[Cache] WARNING: tag update failed for %s: %v", tag, err)
			}
		}
	}

	localTTL := ttl
	if localTTL > LocalTTLCeiling {
		localTTL = LocalTTLCeiling
	}
	t.local.Set(key, value, localTTL)
}

// Invalidate removes remote keys matching the glob pattern and local keys
// containing the pattern's literal prefix
func (t *Tiered) Invalidate(ctx context.Context, pattern string) {
	if err := t.remote.DeleteByPattern(ctx, pattern); err != nil {
		log.Printf("[Cache] WARNING: remote invalidate %q failed: %v", pattern, err)
	}

	t.local.DeleteContaining(literalPrefix(pattern))
}

// InvalidateMultiple removes exactly the given keys from both tiers
func (t *Tiered) InvalidateMultiple(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}

	if err := t.remote.Delete(ctx, keys...); err != nil {
		log.Printf("[Cache] WARNING: remote delete failed: %v", err)
	}

	t.local.Delete(keys...)
}

// InvalidateTag removes every key recorded under the tag, plus the tag set
func (t *Tiered) InvalidateTag(ctx context.Context, tag string) {
	tagKey := fmt.Sprintf("%s:%s", KeyPrefixTag, tag)

	members, err := t.remote.SetMembers(ctx, tagKey)
	if err != nil {
		log.Printf("[Cache] WARNING: tag lookup failed for %s: %v", tag, err)
		return
	}

	t.InvalidateMultiple(ctx, append(members, tagKey))
}

// GetStats reports utilization of both tiers
func (t *Tiered) GetStats(ctx context.Context) Stats {
	remote := RemoteStats{}
	if err := t.remote.Ping(ctx); err == nil {
		remote.Connected = true
		remote.MemoryUsage = t.remote.MemoryUsage(ctx)
	}

	return Stats{
		Local: LocalStats{
			Size:    t.local.Len(),
			MaxSize: t.local.MaxEntries(),
		},
		Remote: remote,
	}
}

// RemoteConnected reports whether the remote tier answers a ping
func (t *Tiered) RemoteConnected(ctx context.Context) bool {
	return t.remote.Ping(ctx) == nil
}

// LocalSize returns the local tier's current entry count
func (t *Tiered) LocalSize() int {
	return t.local.Len()
}

// HitRate returns the fraction of Get calls served from either tier
func (t *Tiered) HitRate() float64 {
	hits := t.hits.Load()
	total := hits + t.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// HealthCheck verifies the remote tier with a set/get/delete round trip
func (t *Tiered) HealthCheck(ctx context.Context) Health {
	if err := t.remote.Ping(ctx); err != nil {
		return Health{
			Status:  HealthUnhealthy,
			Details: fmt.Sprintf("remote store unreachable: %v", err),
		}
	}

	key := fmt.Sprintf("cache:health:%s", uuid.NewString())
	want := []byte("ok")

	if err := t.remote.Set(ctx, key, want, 10*time.Second); err != nil {
		return Health{
			Status:  HealthDegraded,
			Details: fmt.Sprintf("round-trip write failed: %v", err),
		}
	}

	got, err := t.remote.Get(ctx, key)
	if err != nil || !bytes.Equal(got, want) {
		return Health{
			Status:  HealthDegraded,
			Details: "round-trip value mismatch",
		}
	}

	if err := t.remote.Delete(ctx, key); err != nil {
		log.Printf("[Cache] WARNING: health-check cleanup failed: %v", err)
	}

	return Health{Status: HealthHealthy}
}

// Close stops the local sweep and closes the remote connection
func (t *Tiered) Close() error {
	t.local.Close()
	return t.remote.Close()
}

// literalPrefix returns the pattern text before the first glob metacharacter
func literalPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, "*?["); i >= 0 {
		return pattern[:i]
	}
	return pattern
}
