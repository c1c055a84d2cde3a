package relay

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"lifestock/internal/ports"
)

// Client connects a participant to a relay broker. It implements
// ports.Channel, so a store attaches to it exactly as it would to the
// in-memory hub.
type Client struct {
	baseURL string
	token   string
	log     logrus.FieldLogger
}

// NewClient builds a relay client for the given websocket URL, for example
// "ws://relay.example.com/ws". The token may be empty when the broker runs
// without a secret.
func NewClient(baseURL, token string, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{baseURL: baseURL, token: token, log: log}
}

// Subscribe dials the broker and starts delivering the room's events to
// onEvent until the subscription is closed or the connection drops.
func (c *Client) Subscribe(ctx context.Context, roomID string, onEvent ports.EventHandler) (ports.Subscription, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("room", roomID)
	if c.token != "" {
		q.Set("token", c.token)
	}
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	sub := &clientSub{conn: conn, log: c.log.WithField("room", roomID)}
	go sub.readLoop(onEvent)
	return sub, nil
}

type clientSub struct {
	conn *websocket.Conn
	log  logrus.FieldLogger

	writeMu sync.Mutex
	once    sync.Once
}

func (s *clientSub) readLoop(onEvent ports.EventHandler) {
	for {
		var env Envelope
		if err := s.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.WithError(err).Debug("relay read error")
			}
			return
		}
		if env.Event == "" {
			continue
		}
		onEvent(env.Event, env.Data)
	}
}

func (s *clientSub) Send(ctx context.Context, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(deadline)
	}
	return s.conn.WriteJSON(Envelope{Event: event, Data: data})
}

func (s *clientSub) Close() error {
	var err error
	s.once.Do(func() {
		s.writeMu.Lock()
		_ = s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}
