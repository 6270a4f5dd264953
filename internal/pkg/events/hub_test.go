package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub()

	ch1, cancel1 := hub.Subscribe()
	ch2, cancel2 := hub.Subscribe()
	defer cancel1()
	defer cancel2()

	assert.Equal(t, 2, hub.SubscriberCount())

	hub.Publish(Event{Kind: CheckApplied, EmployeeID: 7})

	for _, ch := range []chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, CheckApplied, ev.Kind)
			assert.Equal(t, 7, ev.EmployeeID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestHubPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	hub := NewHub()

	_, cancel := hub.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		// Way past the channel buffer; must not deadlock.
		for i := 0; i < 1000; i++ {
			hub.Publish(Event{Kind: EmployeeUpdated, EmployeeID: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe()
	cancel()
	require.Equal(t, 0, hub.SubscriberCount())

	// Cancel twice must be safe, and the channel must be closed.
	cancel()
	_, open := <-ch
	assert.False(t, open)

	// Publishing with no subscribers is a no-op.
	hub.Publish(Event{Kind: EmployeeRemoved, EmployeeID: 1})
}
