package events

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()

	broker.Publish(&Event{
		ID:      "evt-1",
		Type:    EventSeatReserved,
		Message: "seat 3 reserved",
		Metadata: map[string]string{
			"show_id": "s1",
			"seat_id": "3",
		},
	})

	select {
	case evt := <-sub:
		if evt.Type != EventSeatReserved {
			t.Errorf("expected %s, got %s", EventSeatReserved, evt.Type)
		}
		if evt.Timestamp.IsZero() {
			t.Error("expected broker to stamp the event")
		}
		if evt.Metadata["show_id"] != "s1" {
			t.Errorf("unexpected metadata: %v", evt.Metadata)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestUnsubscribe(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	if broker.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", broker.SubscriberCount())
	}

	broker.Unsubscribe(sub)
	if broker.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", broker.SubscriberCount())
	}

	// Channel is closed after unsubscribe
	if _, ok := <-sub; ok {
		t.Error("expected closed subscriber channel")
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	// Never drained; its buffer fills and further events are dropped.
	broker.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			broker.Publish(&Event{Type: EventSeatReserved})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
