package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestNotifierPublishesEvent(t *testing.T) {
	ch := &fakeChannel{}
	notifier := NewNotifier(ch, "resume_analyses")

	completed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err := notifier.AnalysisCompleted(context.Background(), AnalysisCompletedEvent{
		ResumeID:         "b7d1c1c4-0000-4000-8000-000000000000",
		OriginalFilename: "cv.pdf",
		ATSScore:         50,
		MatchSummary:     "Matched 5 of 10 keywords",
		Recommendations:  6,
		CompletedAt:      completed,
	})
	require.NoError(t, err)

	assert.Equal(t, "resume_analyses", ch.exchange)
	assert.Equal(t, "analysis.completed", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)

	var body map[string]any
	require.NoError(t, json.Unmarshal(ch.msg.Body, &body))
	assert.Equal(t, "cv.pdf", body["originalFilename"])
	assert.Equal(t, float64(50), body["atsScore"])
	assert.Equal(t, float64(6), body["recommendationCount"])

	require.NoError(t, notifier.Close())
	assert.True(t, ch.closed)
}

func TestNotifierPublishError(t *testing.T) {
	notifier := NewNotifier(&fakeChannel{err: errors.New("channel closed")}, "x")
	err := notifier.AnalysisCompleted(context.Background(), AnalysisCompletedEvent{})
	assert.ErrorContains(t, err, "channel closed")
}

func TestNotifierCancelledContext(t *testing.T) {
	ch := &fakeChannel{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewNotifier(ch, "x").AnalysisCompleted(ctx, AnalysisCompletedEvent{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ch.key)
}
