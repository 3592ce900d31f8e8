package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is not found in a store
var ErrCacheMiss = errors.New("cache miss")

// Store is the remote-tier contract: a shared key-value store with per-key
// expiry and pattern enumeration
type Store interface {
	// Get retrieves a value, ErrCacheMiss if absent or expired
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes one or more keys
	Delete(ctx context.Context, keys ...string) error

	// DeleteByPattern removes all keys matching a glob pattern
	// (e.g., "cache:analytics:*")
	DeleteByPattern(ctx context.Context, pattern string) error

	// TTL returns the remaining lifetime of a key, ErrCacheMiss if absent
	TTL(ctx context.Context, key string) (time.Duration, error)

	// AddToSet adds members to a set key and bounds its lifetime
	AddToSet(ctx context.Context, key string, ttl time.Duration, members ...string) error

	// SetMembers returns the members of a set key
	SetMembers(ctx context.Context, key string) ([]string, error)

	// Ping verifies connectivity
	Ping(ctx context.Context) error

	// MemoryUsage reports the store's memory usage (e.g., "1.24M"),
	// empty if unavailable
	MemoryUsage(ctx context.Context) string

	// Close closes the store connection
	Close() error
}

// Key prefixes for dashboard response caching
const (
	// KeyPrefixAnalytics is the prefix for analytics responses
	KeyPrefixAnalytics = "cache:analytics"

	// KeyPrefixReports is the prefix for report listings
	KeyPrefixReports = "cache:reports"

	// KeyPrefixAccounts is the prefix for account listings
	KeyPrefixAccounts = "cache:accounts"

	// KeyPrefixTag is the prefix under which tag membership sets live
	KeyPrefixTag = "cache:tag"
)

// Well-known invalidation tags
const (
	TagAnalytics = "analytics"
)

// TTL configurations for different response types
const (
	// TTLOverview is the TTL for dashboard overview responses (5 minutes)
	TTLOverview = 5 * time.Minute

	// TTLTimeseries is the TTL for account timeseries responses (10 minutes)
	TTLTimeseries = 10 * time.Minute

	// TTLAccounts is the TTL for account listings (60 seconds)
	TTLAccounts = 60 * time.Second

	// LocalTTLCeiling bounds how long the in-process tier may serve an entry.
	// The local copy exists only to shave latency off repeated remote reads,
	// so it never outlives this ceiling even when the remote TTL is longer.
	LocalTTLCeiling = 60 * time.Second
)
