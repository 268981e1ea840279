package events

import (
	"encoding/json"
	"testing"
	"time"
)

func recvEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed before event arrived")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}
	return Event{}
}

func TestHub_DeliversByType(t *testing.T) {
	hub := NewHub(nil)
	secCh, unsubSec := hub.Subscribe("security_event", 4)
	defer unsubSec()
	auditCh, unsubAudit := hub.Subscribe("audit_event", 4)
	defer unsubAudit()

	hub.Publish(Event{Type: "security_event", Payload: json.RawMessage(`{"severity":"HIGH"}`)})

	ev := recvEvent(t, secCh)
	if ev.Type != "security_event" {
		t.Fatalf("got type %q", ev.Type)
	}
	if ev.ReceivedAt.IsZero() {
		t.Fatalf("expected ReceivedAt to be stamped")
	}
	select {
	case ev := <-auditCh:
		t.Fatalf("audit subscriber got event of type %q", ev.Type)
	default:
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(nil)
	ch, unsubscribe := hub.Subscribe("security_event", 1)
	if got := hub.SubscriberCount(); got != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", got)
	}

	unsubscribe()
	unsubscribe() // second call is a no-op

	if got := hub.SubscriberCount(); got != 0 {
		t.Fatalf("SubscriberCount after unsubscribe = %d, want 0", got)
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}

	// Publishing after unsubscribe must not panic or deliver.
	hub.Publish(Event{Type: "security_event"})
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(nil)
	_, unsubscribe := hub.Subscribe("security_event", 1)
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			hub.Publish(Event{Type: "security_event"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Publish blocked on a full subscriber channel")
	}
	if hub.Dropped() != 4 {
		t.Fatalf("Dropped = %d, want 4", hub.Dropped())
	}
}

func TestHub_MultipleSubscribersSameType(t *testing.T) {
	hub := NewHub(nil)
	a, unsubA := hub.Subscribe("security_event", 2)
	defer unsubA()
	b, unsubB := hub.Subscribe("security_event", 2)
	defer unsubB()

	hub.Publish(Event{Type: "security_event", Payload: json.RawMessage(`{}`)})

	recvEvent(t, a)
	recvEvent(t, b)
}
