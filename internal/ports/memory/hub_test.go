package memory

import (
	"context"
	"encoding/json"
	"testing"
)

func TestHubExcludesSenderAndOtherRooms(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	type delivery struct {
		event   string
		payload string
	}
	var a, b, other []delivery
	record := func(log *[]delivery) func(string, json.RawMessage) {
		return func(event string, payload json.RawMessage) {
			*log = append(*log, delivery{event: event, payload: string(payload)})
		}
	}

	subA, err := hub.Subscribe(ctx, "ROOM01", record(&a))
	if err != nil {
		t.Fatalf("subscribe a: %v", err)
	}
	if _, err := hub.Subscribe(ctx, "ROOM01", record(&b)); err != nil {
		t.Fatalf("subscribe b: %v", err)
	}
	if _, err := hub.Subscribe(ctx, "ROOM02", record(&other)); err != nil {
		t.Fatalf("subscribe other: %v", err)
	}

	if err := subA.Send(ctx, "state_update", map[string]int{"n": 1}); err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(a) != 0 {
		t.Errorf("sender received own event: %v", a)
	}
	if len(b) != 1 || b[0].event != "state_update" {
		t.Errorf("room peer deliveries = %v, want one state_update", b)
	}
	if len(other) != 0 {
		t.Errorf("other room received event: %v", other)
	}
}

func TestHubClosedSubscriptionStopsDelivering(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	got := 0
	subA, _ := hub.Subscribe(ctx, "ROOM01", nil)
	subB, _ := hub.Subscribe(ctx, "ROOM01", func(string, json.RawMessage) { got++ })

	if err := subB.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := subA.Send(ctx, "state_update", struct{}{}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got != 0 {
		t.Errorf("closed subscription received %d events", got)
	}

	if err := subB.Send(ctx, "state_update", struct{}{}); err == nil {
		t.Errorf("send on closed subscription did not fail")
	}
}
