package events

import (
	"testing"
	"time"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan PresenceUpdatedEvent, 1)

	unsub := bus.Subscribe(func(e PresenceUpdatedEvent) {
		received <- e
	})
	defer unsub()

	ev := PresenceUpdatedEvent{
		Keyword:   "online",
		Text:      "Server is online",
		Timestamp: "2025-01-27T10:30:00Z",
	}
	bus.Publish(ev)

	select {
	case got := <-received:
		if got.Keyword != ev.Keyword {
			t.Errorf("keyword = %q, want %q", got.Keyword, ev.Keyword)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusMultipleSubscribers(t *testing.T) {
	bus := New()
	received1 := make(chan ServerStateChangedEvent, 1)
	received2 := make(chan ServerStateChangedEvent, 1)

	unsub1 := bus.Subscribe(func(e ServerStateChangedEvent) { received1 <- e })
	defer unsub1()
	unsub2 := bus.Subscribe(func(e ServerStateChangedEvent) { received2 <- e })
	defer unsub2()

	bus.Publish(ServerStateChangedEvent{Lifecycle: "online", PID: 42})

	for i, ch := range []chan ServerStateChangedEvent{received1, received2} {
		select {
		case got := <-ch:
			if got.PID != 42 {
				t.Errorf("subscriber %d: pid = %d, want 42", i+1, got.PID)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: timed out", i+1)
		}
	}
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := New()
	received := make(chan ModsRescannedEvent, 2)

	unsub := bus.Subscribe(func(e ModsRescannedEvent) { received <- e })
	bus.Publish(ModsRescannedEvent{Count: 1})

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("first event not delivered")
	}

	unsub()
	bus.Publish(ModsRescannedEvent{Count: 2})

	select {
	case got := <-received:
		t.Errorf("received event %v after unsubscribe", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeToChannelDropsWhenFull(t *testing.T) {
	bus := New()
	ch := make(chan any, 1)

	unsub := SubscribeToChannel[LogEntryEvent](bus, ch)
	defer unsub()

	bus.Publish(LogEntryEvent{Message: "first"})
	bus.Publish(LogEntryEvent{Message: "second"}) // dropped, channel full

	// Give the dispatcher goroutine time to deliver
	time.Sleep(50 * time.Millisecond)

	if len(ch) != 1 {
		t.Fatalf("channel holds %d events, want 1", len(ch))
	}
}
