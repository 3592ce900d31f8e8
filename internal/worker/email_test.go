package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadewadee/social-analytics/internal/mq"
	"github.com/sadewadee/social-analytics/internal/queue"
)

type capturingPublisher struct {
	messages []*mq.EmailMessage
	err      error
}

func (p *capturingPublisher) Publish(_ context.Context, msg *mq.EmailMessage) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func emailTask(t *testing.T, payload queue.EmailSendPayload) *asynq.Task {
	t.Helper()
	data, err := queue.MarshalPayload(payload)
	require.NoError(t, err)
	return asynq.NewTask(queue.TypeEmailSend, data)
}

func TestEmailSendPublishesValidRecipients(t *testing.T) {
	pub := &capturingPublisher{}
	proc := NewEmailProcessor(pub)

	err := proc.ProcessTask(context.Background(), emailTask(t, queue.EmailSendPayload{
		To:       []string{"user@example.com", "not-an-address", "other@example.com"},
		Subject:  "Weekly report",
		Template: "report-ready",
	}))
	require.NoError(t, err)

	require.Len(t, pub.messages, 1)
	assert.Equal(t, []string{"user@example.com", "other@example.com"}, pub.messages[0].To)
	assert.Equal(t, "Weekly report", pub.messages[0].Subject)
}

func TestEmailSendAllInvalidSkipsRetry(t *testing.T) {
	pub := &capturingPublisher{}
	proc := NewEmailProcessor(pub)

	err := proc.ProcessTask(context.Background(), emailTask(t, queue.EmailSendPayload{
		To:      []string{"nope", "also bad"},
		Subject: "Oops",
	}))

	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
	assert.Empty(t, pub.messages)
}

func TestEmailSendPublishFailureRetries(t *testing.T) {
	pub := &capturingPublisher{err: errors.New("broker unavailable")}
	proc := NewEmailProcessor(pub)

	err := proc.ProcessTask(context.Background(), emailTask(t, queue.EmailSendPayload{
		To:      []string{"user@example.com"},
		Subject: "Weekly report",
	}))

	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}
