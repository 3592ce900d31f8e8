// Package platform defines the contract the sync jobs require from the
// upstream social-network clients. The clients themselves live outside this
// service; sync treats them as opaque collaborators that classify their own
// failures.
package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/sadewadee/social-analytics/internal/domain"
)

// Content is one post with its current metrics, as returned by a platform
// client
type Content struct {
	PostID      string    `json:"post_id"`
	PublishedAt time.Time `json:"published_at"`

	Impressions int64 `json:"impressions"`
	Likes       int64 `json:"likes"`
	Comments    int64 `json:"comments"`
	Shares      int64 `json:"shares"`
	Followers   int64 `json:"followers"`
}

// Client is the upstream collaborator for one platform. Errors must be
// returned as *domain.UpstreamError so the sync routine can branch on the
// kind (rate limit, expired credential, not found, server error).
type Client interface {
	// FetchRecentContent returns recent posts with metrics for an
	// authorized account
	FetchRecentContent(ctx context.Context, account domain.SocialAccount) ([]Content, error)

	// HealthCheck verifies the upstream API is reachable
	HealthCheck(ctx context.Context) error
}

// Registry maps platforms to their clients
type Registry map[domain.Platform]Client

// Get returns the client for a platform
func (r Registry) Get(p domain.Platform) (Client, error) {
	c, ok := r[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownPlatform, p)
	}
	return c, nil
}
