package tlmt

import (
	"context"
	"time"
)

// Event is a single telemetry datapoint
type Event struct {
	Name       string
	CreatedAt  time.Time
	Properties map[string]any
}

// NewEvent creates an event with the current timestamp
func NewEvent(name string, properties map[string]any) Event {
	return Event{
		Name:       name,
		CreatedAt:  time.Now().UTC(),
		Properties: properties,
	}
}

// Telemetry sends anonymous usage events
type Telemetry interface {
	Send(ctx context.Context, event Event) error
	Close() error
}
