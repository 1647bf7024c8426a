package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestClient(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestPublishSubscribe(t *testing.T) {
	client := setupTestClient(t)

	received := make(chan *ProgressMessage, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	subscriber := NewSubscriber(client)
	go subscriber.Subscribe(ctx, func(msg *ProgressMessage) {
		received <- msg
	})
	time.Sleep(50 * time.Millisecond) // 等订阅建立

	publisher := NewPublisher(client)
	require.NoError(t, publisher.PublishProgress(ctx, &ProgressMessage{
		UserID:   7,
		ResumeID: 8,
		JobID:    9,
		Status:   "processing",
		Step:     StepWriting,
	}))

	select {
	case msg := <-received:
		assert.Equal(t, "job_progress", msg.Type)
		assert.Equal(t, int64(7), msg.UserID)
		assert.Equal(t, StepWriting, msg.Step)
		// 进度和文案按阶段自动补齐
		assert.Equal(t, StepProgress[StepWriting], msg.Progress)
		assert.Equal(t, StepMessages[StepWriting], msg.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for progress message")
	}
}

func TestSubscribe_StopsOnCancel(t *testing.T) {
	client := setupTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	subscriber := NewSubscriber(client)
	go func() {
		done <- subscriber.Subscribe(ctx, func(*ProgressMessage) {})
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Subscriber did not stop after context cancel")
	}
}
