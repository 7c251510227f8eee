package kafka

import (
	"testing"
)

func TestMessageBuilder(t *testing.T) {
	type payload struct {
		ID string `json:"id"`
	}

	msg := NewMessage().
		WithKey("user-1").
		WithValue(payload{ID: "abc"}).
		WithEventType("notification.created").
		WithSource("bookings").
		Build()

	if msg.Key != "user-1" {
		t.Errorf("Key = %q, want user-1", msg.Key)
	}
	if msg.GetEventType() != "notification.created" {
		t.Errorf("event type = %q", msg.GetEventType())
	}
	if msg.Headers[HeaderSource] != "bookings" {
		t.Errorf("source = %q", msg.Headers[HeaderSource])
	}
	if msg.GetEventID() == "" {
		t.Error("Build must assign an event ID")
	}
	if msg.Headers[HeaderTimestamp] == "" {
		t.Error("Build must assign a timestamp header")
	}

	var decoded payload
	if err := msg.DecodeValue(&decoded); err != nil {
		t.Fatalf("DecodeValue() error = %v", err)
	}
	if decoded.ID != "abc" {
		t.Errorf("decoded ID = %q, want abc", decoded.ID)
	}
}

func TestRetryCount(t *testing.T) {
	msg := NewMessage().WithKey("k").WithValue("v").Build()

	if msg.GetRetryCount() != 0 {
		t.Errorf("initial retry count = %d, want 0", msg.GetRetryCount())
	}

	for i := 1; i <= 12; i++ {
		msg.IncrementRetryCount()
		if msg.GetRetryCount() != i {
			t.Fatalf("retry count after %d increments = %d", i, msg.GetRetryCount())
		}
	}
}

func TestGetRetryCountIgnoresGarbageHeader(t *testing.T) {
	msg := NewMessage().WithKey("k").WithValue("v").Build()
	msg.Headers[HeaderRetryCount] = "not-a-number"

	if msg.GetRetryCount() != 0 {
		t.Errorf("retry count = %d, want 0 for a malformed header", msg.GetRetryCount())
	}
}
