// Package memory provides an in-process implementation of the room channel
// for tests and same-process sessions. Fan-out is synchronous and excludes
// the sender, mirroring the self-off broadcast semantics of the networked
// transports.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"lifestock/internal/ports"
)

// Hub routes events between subscriptions of the same room.
type Hub struct {
	mu    sync.Mutex
	rooms map[string][]*subscription
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string][]*subscription)}
}

// Subscribe implements ports.Channel.
func (h *Hub) Subscribe(ctx context.Context, roomID string, onEvent ports.EventHandler) (ports.Subscription, error) {
	if roomID == "" {
		return nil, fmt.Errorf("room id is required")
	}
	sub := &subscription{hub: h, roomID: roomID, onEvent: onEvent}
	h.mu.Lock()
	h.rooms[roomID] = append(h.rooms[roomID], sub)
	h.mu.Unlock()
	return sub, nil
}

// deliver fans an event out to every other subscriber of the room. The
// subscriber list is copied first so a handler may send again without
// re-entering the hub lock.
func (h *Hub) deliver(from *subscription, roomID, event string, payload json.RawMessage) {
	h.mu.Lock()
	targets := append([]*subscription(nil), h.rooms[roomID]...)
	h.mu.Unlock()

	for _, sub := range targets {
		if sub == from || sub.closed() {
			continue
		}
		sub.onEvent(event, payload)
	}
}

func (h *Hub) remove(target *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.rooms[target.roomID]
	for i, sub := range subs {
		if sub == target {
			h.rooms[target.roomID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(h.rooms[target.roomID]) == 0 {
		delete(h.rooms, target.roomID)
	}
}

type subscription struct {
	hub     *Hub
	roomID  string
	onEvent ports.EventHandler

	mu     sync.Mutex
	isDone bool
}

// Send implements ports.Subscription.
func (s *subscription) Send(ctx context.Context, event string, payload any) error {
	if s.closed() {
		return fmt.Errorf("subscription closed")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	s.hub.deliver(s, s.roomID, event, raw)
	return nil
}

// Close implements ports.Subscription.
func (s *subscription) Close() error {
	s.mu.Lock()
	done := s.isDone
	s.isDone = true
	s.mu.Unlock()
	if !done {
		s.hub.remove(s)
	}
	return nil
}

func (s *subscription) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isDone
}
