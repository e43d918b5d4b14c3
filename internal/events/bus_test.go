package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	bus := NewBus(4)

	ch1, cancel1 := bus.Subscribe()
	defer cancel1()
	ch2, cancel2 := bus.Subscribe()
	defer cancel2()

	bus.Publish(Event{Type: TypeWorkCardAdded, Data: map[string]interface{}{"id": "WC-1"}})

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case event := <-ch:
			assert.Equal(t, TypeWorkCardAdded, event.Type)
			assert.Equal(t, "WC-1", event.Data["id"])
			assert.False(t, event.Timestamp.IsZero())
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	bus := NewBus(4)

	ch, cancel := bus.Subscribe()
	require.Equal(t, 1, bus.SubscriberCount())

	cancel()
	assert.Equal(t, 0, bus.SubscriberCount())

	// Channel is closed after cancel
	_, open := <-ch
	assert.False(t, open)

	// Cancel is idempotent
	cancel()

	bus.Publish(Event{Type: TypeDirectiveAdded})
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	bus := NewBus(1)

	ch, cancel := bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.Publish(Event{Type: TypeWorkCardsChanged})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// The single buffered event is still deliverable
	select {
	case event := <-ch:
		assert.Equal(t, TypeWorkCardsChanged, event.Type)
	default:
		t.Fatal("expected one buffered event")
	}
}

func TestPublishPreservesExplicitTimestamp(t *testing.T) {
	bus := NewBus(1)
	ch, cancel := bus.Subscribe()
	defer cancel()

	stamp := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	bus.Publish(Event{Type: TypeComplianceAlert, Timestamp: stamp})

	event := <-ch
	assert.Equal(t, stamp, event.Timestamp)
}
