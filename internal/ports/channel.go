package ports

import (
	"context"
	"encoding/json"
)

// EventHandler receives one event delivered to a room subscription. Handlers
// run one at a time per subscription; implementations must not invoke the
// handler concurrently.
type EventHandler func(event string, payload json.RawMessage)

// Channel is the abstract per-room pub/sub collaborator the replication core
// runs on. Delivery is at-most-once and unordered; a subscriber never
// receives its own sends. The core treats send failures as best effort and
// relies on the next full-snapshot broadcast to re-synchronize.
type Channel interface {
	// Subscribe joins the room and delivers inbound events to onEvent until
	// the subscription is closed.
	Subscribe(ctx context.Context, roomID string, onEvent EventHandler) (Subscription, error)
}

// Subscription is one participant's handle on a room.
type Subscription interface {
	// Send publishes an event to every other subscriber of the room.
	Send(ctx context.Context, event string, payload any) error

	// Close tears the subscription down. Safe to call more than once.
	Close() error
}
