package eventbus

import (
	"context"
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := h.Subscribe(ctx, 4)
	h.Publish(Event{Type: StateUpdated})

	select {
	case evt := <-sub:
		if evt.Type != StateUpdated {
			t.Errorf("Type = %q, want %q", evt.Type, StateUpdated)
		}
		if evt.Timestamp == 0 {
			t.Error("Timestamp should be filled in")
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := h.Subscribe(ctx, 1)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.Publish(Event{Type: BadgeUpdated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	if got := len(sub); got != 1 {
		t.Errorf("buffered events = %d, want 1", got)
	}
}

func TestUnsubscribeOnCancel(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	sub := h.Subscribe(ctx, 0)

	cancel()
	select {
	case _, ok := <-sub:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
	if n := h.Subscribers(); n != 0 {
		t.Errorf("Subscribers() = %d, want 0", n)
	}
}

func TestNilHubPublish(t *testing.T) {
	var h *Hub
	h.Publish(Event{Type: StateUpdated})
}
