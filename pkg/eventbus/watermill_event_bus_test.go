package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowlineio/flowline/pkg/channels/gochannel"
	"github.com/flowlineio/flowline/pkg/eventbus"
	"github.com/flowlineio/flowline/pkg/events"
)

func TestWatermillEventBus_PublishSubscribeRoundtrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	received := make(chan any, 1)

	require.NoError(t, bus.Handle(events.TaskCompletedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	}))

	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "wf-1", events.TaskCompleted{
		BaseEvent: events.BaseEvent{
			ID:         bus.GenerateID(),
			Type:       events.TaskCompletedEvent,
			Timestamp:  time.Now().UTC(),
			AccountID:  "acct-1",
			WorkflowID: "wf-1",
		},
		TaskAPIName: "review",
		TaskNumber:  2,
		UserID:      "user-1",
	}))

	select {
	case event := <-received:
		completed, ok := event.(*events.TaskCompleted)
		require.True(t, ok)
		assert.Equal(t, "review", completed.TaskAPIName)
		assert.Equal(t, 2, completed.TaskNumber)
		assert.Equal(t, "wf-1", completed.WorkflowID)
	case <-time.After(2 * time.Second):
		t.Fatal("event never reached the handler")
	}
}

func TestWatermillEventBus_UnhandledTypesAreAcked(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	received := make(chan any, 2)

	require.NoError(t, bus.Handle(events.WorkflowCompletedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	}))

	require.NoError(t, bus.Subscribe(ctx))

	// A type without a handler is dropped without blocking the stream.
	require.NoError(t, bus.Publish(ctx, "wf-1", events.TaskStarted{
		BaseEvent: events.BaseEvent{ID: bus.GenerateID(), Type: events.TaskStartedEvent},
	}))
	require.NoError(t, bus.Publish(ctx, "wf-1", events.WorkflowCompleted{
		BaseEvent: events.BaseEvent{ID: bus.GenerateID(), Type: events.WorkflowCompletedEvent},
	}))

	select {
	case event := <-received:
		_, ok := event.(*events.WorkflowCompleted)
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("event never reached the handler")
	}
}
