// Package relay implements the standalone websocket fan-out server and its
// client. The broker holds no game state at all: it forwards every message to
// the other members of the same room, and the hosting participant's store is
// the single authority over what those messages mean.
package relay

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"lifestock/internal/app"
)

// Envelope is the relay wire format: an event name and its JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Broker fans messages out to room members, excluding the sender.
type Broker struct {
	log      logrus.FieldLogger
	secret   string
	upgrader websocket.Upgrader

	mu    sync.Mutex
	rooms map[string]map[*member]bool
}

type member struct {
	roomID string
	conn   *websocket.Conn
	send   chan Envelope
}

// NewBroker builds a broker. A non-empty secret makes the broker require a
// valid room token on every connection.
func NewBroker(log logrus.FieldLogger, secret string) *Broker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Broker{
		log:    log,
		secret: secret,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		rooms: make(map[string]map[*member]bool),
	}
}

// ServeHTTP upgrades the connection and joins it to the requested room.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if !app.ValidRoomCode(roomID) {
		http.Error(w, "missing or malformed room code", http.StatusBadRequest)
		return
	}

	if b.secret != "" {
		_, tokenRoom, err := app.VerifyRoomToken(r.URL.Query().Get("token"), b.secret)
		if err != nil {
			http.Error(w, "invalid room token", http.StatusUnauthorized)
			return
		}
		if tokenRoom != roomID {
			http.Error(w, "token is for another room", http.StatusForbidden)
			return
		}
	}

	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	m := &member{roomID: roomID, conn: conn, send: make(chan Envelope, 64)}
	b.register(m)
	b.log.WithField("room", roomID).Debug("member joined")

	go m.writePump()
	go b.readPump(m)
}

func (b *Broker) register(m *member) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rooms[m.roomID] == nil {
		b.rooms[m.roomID] = make(map[*member]bool)
	}
	b.rooms[m.roomID][m] = true
}

func (b *Broker) unregister(m *member) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if members, ok := b.rooms[m.roomID]; ok {
		if members[m] {
			delete(members, m)
			close(m.send)
		}
		if len(members) == 0 {
			delete(b.rooms, m.roomID)
		}
	}
}

// forward delivers the envelope to every other member of the room. A member
// whose send buffer is full is dropped rather than allowed to stall the room.
func (b *Broker) forward(from *member, env Envelope) {
	b.mu.Lock()
	var stuck []*member
	for m := range b.rooms[from.roomID] {
		if m == from {
			continue
		}
		select {
		case m.send <- env:
		default:
			stuck = append(stuck, m)
		}
	}
	b.mu.Unlock()

	for _, m := range stuck {
		b.log.WithField("room", m.roomID).Warn("dropping slow member")
		b.unregister(m)
		m.conn.Close()
	}
}

func (b *Broker) readPump(m *member) {
	defer func() {
		b.unregister(m)
		m.conn.Close()
		b.log.WithField("room", m.roomID).Debug("member left")
	}()
	for {
		var env Envelope
		if err := m.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				b.log.WithError(err).Debug("read error")
			}
			return
		}
		if env.Event == "" {
			continue
		}
		b.forward(m, env)
	}
}

func (m *member) writePump() {
	defer m.conn.Close()
	for env := range m.send {
		if err := m.conn.WriteJSON(env); err != nil {
			return
		}
	}
}
