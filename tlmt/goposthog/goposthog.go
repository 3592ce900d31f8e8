package goposthog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/posthog/posthog-go"

	"github.com/sadewadee/social-analytics/tlmt"
)

type service struct {
	client     posthog.Client
	distinctID string
}

// New creates a PostHog-backed telemetry sender. The distinct ID is a hash
// of the hostname so repeated runs on the same host correlate without
// identifying it.
func New(apiKey, endpoint string) (tlmt.Telemetry, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	client, err := posthog.NewWithConfig(apiKey, posthog.Config{
		Endpoint: endpoint,
	})
	if err != nil {
		return nil, err
	}

	return &service{
		client:     client,
		distinctID: distinctID(),
	}, nil
}

func (s *service) Send(_ context.Context, event tlmt.Event) error {
	props := posthog.NewProperties()
	for k, v := range event.Properties {
		props.Set(k, v)
	}

	return s.client.Enqueue(posthog.Capture{
		DistinctId: s.distinctID,
		Event:      event.Name,
		Timestamp:  event.CreatedAt,
		Properties: props,
	})
}

func (s *service) Close() error {
	return s.client.Close()
}

func distinctID() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return uuid.New().String()
	}

	sum := sha256.Sum256([]byte(hostname))

	return hex.EncodeToString(sum[:16])
}
