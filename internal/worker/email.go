package worker

import (
	"context"
	"fmt"
	"log"

	emailaddress "github.com/mcnijman/go-emailaddress"

	"github.com/hibiken/asynq"

	"github.com/sadewadee/social-analytics/internal/mq"
	"github.com/sadewadee/social-analytics/internal/queue"
)

// EmailProcessor handles email:send tasks by validating recipients and
// handing the message to the delivery publisher
type EmailProcessor struct {
	publisher mq.Publisher
}

// NewEmailProcessor creates an email processor
func NewEmailProcessor(publisher mq.Publisher) *EmailProcessor {
	return &EmailProcessor{publisher: publisher}
}

// ProcessTask validates and publishes one email message
func (p *EmailProcessor) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.UnmarshalPayload[queue.EmailSendPayload](task.Payload())
	if err != nil {
		return fmt.Errorf("email:send payload: %w", err)
	}

	valid := make([]string, 0, len(payload.To))
	for _, addr := range payload.To {
		if _, err := emailaddress.Parse(addr); err != nil {
			log.Printf("[Email] dropping invalid recipient %q: %v", addr, err)
			continue
		}
		valid = append(valid, addr)
	}
	if len(valid) == 0 {
		// No deliverable recipients; retrying cannot fix the payload
		return fmt.Errorf("no valid recipients in %v: %w", payload.To, asynq.SkipRetry)
	}

	msg := &mq.EmailMessage{
		To:       valid,
		Subject:  payload.Subject,
		Template: payload.Template,
		Data:     payload.Data,
	}
	if err := p.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish email: %w", err)
	}

	log.Printf("[Email] published %q to %d recipients", payload.Subject, len(valid))
	return nil
}
