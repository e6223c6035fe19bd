package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// writeWait is how long a single frame write may take.
	writeWait = 10 * time.Second

	// pongWait is the heartbeat window: a connection that misses it is
	// treated as disconnected and torn down.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096

	sendBuffer = 64

	// resolveWait bounds the conversation lookup for a typing event.
	resolveWait = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checking belongs to the fronting proxy; the connection is
	// authenticated with a bearer token before the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one live connection of one user. A user may hold any
// number of clients at once (multi-device).
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
	log    *zap.Logger
}

// Serve upgrades the request and runs the connection's pumps. userID
// is the identity resolved from the bearer credential at connect time.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uint) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
		log:    h.log.With(zap.Uint("user_id", userID)),
	}
	h.register <- c
	go c.writePump()
	go c.readPump()
	return nil
}

// readPump consumes inbound frames. Only the ephemeral typing events
// are accepted from clients; everything else arrives over REST where
// it is validated.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("Unexpected close", zap.Error(err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.log.Debug("Dropping malformed frame", zap.Error(err))
			continue
		}
		switch env.Event {
		case EventTyping, EventStopTyping:
			var p TypingPayload
			if err := json.Unmarshal(env.Data, &p); err != nil || p.ChatID == 0 {
				continue
			}
			// Membership and peer are resolved here, on the
			// connection's own goroutine, so a slow lookup never
			// stalls the hub's fan-out loop.
			peer, ok := c.resolvePeer(p.ChatID)
			if !ok {
				continue
			}
			c.hub.typing <- typingEvent{
				key:  typingKey{chatID: p.ChatID, userID: c.userID},
				peer: peer,
				stop: env.Event == EventStopTyping,
			}
		default:
			c.log.Debug("Ignoring unknown inbound event", zap.String("event", env.Event))
		}
	}
}

// resolvePeer looks up the conversation and returns the other
// participant. Unknown conversations and non-members are dropped.
func (c *Client) resolvePeer(chatID uint) (uint, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), resolveWait)
	defer cancel()
	conv, err := c.hub.resolver.GetConversation(ctx, chatID)
	if err != nil || !conv.IsParticipant(c.userID) {
		return 0, false
	}
	return conv.Peer(c.userID), true
}

// writePump pushes queued frames and heartbeat pings to the peer.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
