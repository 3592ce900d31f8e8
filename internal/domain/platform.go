package domain

import "time"

// Platform identifies a supported social network
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
)

// DefaultSyncPriority is used for jobs without a platform-specific priority
const DefaultSyncPriority = 5

// AllPlatforms lists every supported platform
func AllPlatforms() []Platform {
	return []Platform{PlatformTwitter, PlatformInstagram, PlatformYouTube}
}

// IsValid returns true if the platform is supported
func (p Platform) IsValid() bool {
	switch p {
	case PlatformTwitter, PlatformInstagram, PlatformYouTube:
		return true
	}
	return false
}

// SyncPriority returns the queue priority for sync jobs of this platform.
// Higher values are dequeued first.
func (p Platform) SyncPriority() int {
	switch p {
	case PlatformTwitter:
		return 10
	case PlatformInstagram:
		return 8
	case PlatformYouTube:
		return 6
	default:
		return DefaultSyncPriority
	}
}

// RateLimitCooldown returns how long sync must wait after the platform
// signals a rate limit. These windows come from the vendors' documented
// rate-limit reset intervals, not from our retry policy.
func (p Platform) RateLimitCooldown() time.Duration {
	switch p {
	case PlatformTwitter:
		return 15 * time.Minute
	case PlatformInstagram:
		return 60 * time.Minute
	case PlatformYouTube:
		return time.Minute
	default:
		return 5 * time.Minute
	}
}
