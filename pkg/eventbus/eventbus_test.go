package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextgen10/evalctl/pkg/evalmodel"
)

func TestPublish_DeliversToSubscriber(t *testing.T) {
	b := New(4, time.Second)
	sub := b.Subscribe("tenant-a")
	defer sub.Close()

	b.Publish("tenant-a", evalmodel.ProgressEvent{Message: "hello"})

	ev, err := sub.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello", ev.Message)
}

func TestPublish_ScopedByTenant(t *testing.T) {
	b := New(4, 10*time.Millisecond)
	subA := b.Subscribe("tenant-a")
	subB := b.Subscribe("tenant-b")
	defer subA.Close()
	defer subB.Close()

	b.Publish("tenant-a", evalmodel.ProgressEvent{Message: "only for a"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	ev, err := subB.Poll(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, "only for a", ev.Message)
}

func TestPoll_HeartbeatsWhenIdle(t *testing.T) {
	b := New(4, 10*time.Millisecond)
	sub := b.Subscribe("tenant-a")
	defer sub.Close()

	ev, err := sub.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Heartbeat.Message, ev.Message)
}

func TestPublish_DropsOldestOnFullQueue(t *testing.T) {
	b := New(2, time.Second)
	sub := b.Subscribe("tenant-a")
	defer sub.Close()

	b.Publish("tenant-a", evalmodel.ProgressEvent{Message: "1"})
	b.Publish("tenant-a", evalmodel.ProgressEvent{Message: "2"})
	b.Publish("tenant-a", evalmodel.ProgressEvent{Message: "3"})

	first, err := sub.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2", first.Message)

	second, err := sub.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3", second.Message)
}

func TestClose_ReclaimsSubscriber(t *testing.T) {
	b := New(4, time.Second)
	sub := b.Subscribe("tenant-a")
	assert.Equal(t, 1, b.SubscriberCount("tenant-a"))

	sub.Close()
	assert.Equal(t, 0, b.SubscriberCount("tenant-a"))
}

func TestPoll_RespectsContextCancellation(t *testing.T) {
	b := New(4, time.Second)
	sub := b.Subscribe("tenant-a")
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sub.Poll(ctx)
	assert.Error(t, err)
}
