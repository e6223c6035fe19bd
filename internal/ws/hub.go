// Package ws is the presence and delivery layer: one hub routes
// domain events to every live connection of a conversation's
// participants. The hub performs no business validation; everything it
// sends was already validated by the conversation service.
package ws

import (
	"context"
	"encoding/json"
	"time"

	"incubation-service/internal/model"
	"incubation-service/prometheus"

	"go.uber.org/zap"
)

// Event names for the ephemeral typing channel. Message events are
// defined next to their validation in the conversation service.
const (
	EventTyping     = "typing"
	EventStopTyping = "stopTyping"
)

// Envelope is the wire frame for every event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// TypingPayload carries typing state for one conversation. The user ID
// is always the one resolved at connect time, never client-supplied.
type TypingPayload struct {
	ChatID uint `json:"chatId"`
	UserID uint `json:"userId"`
}

// ConversationResolver looks up a conversation so a client's read pump
// can verify membership and find the peer before a typing event is
// queued. The run loop itself never touches the store.
type ConversationResolver interface {
	GetConversation(ctx context.Context, id uint) (*model.Conversation, error)
}

type typingKey struct {
	chatID uint
	userID uint
}

// typingEvent arrives pre-resolved from a read pump: peer is the other
// participant of the conversation.
type typingEvent struct {
	key  typingKey
	peer uint
	stop bool
}

// typingState tracks one live typing indicator and who hears its
// expiry.
type typingState struct {
	timer *time.Timer
	peer  uint
}

type outbound struct {
	userIDs []uint
	frame   []byte
}

// Hub tracks live connections per user (multi-device) and fans events
// out to them. All state is owned by the run loop; clients and timers
// talk to it over channels only.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	typing     chan typingEvent
	expired    chan typingKey

	clients map[uint]map[*Client]bool
	typers  map[typingKey]typingState

	resolver  ConversationResolver
	typingTTL time.Duration
	log       *zap.Logger
}

// NewHub creates a hub; typingTTL is how long a typing indicator lives
// without a refresh before the peer sees stopTyping.
func NewHub(resolver ConversationResolver, typingTTL time.Duration, log *zap.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, 256),
		typing:     make(chan typingEvent, 64),
		expired:    make(chan typingKey, 64),
		clients:    make(map[uint]map[*Client]bool),
		typers:     make(map[typingKey]typingState),
		resolver:   resolver,
		typingTTL:  typingTTL,
		log:        log,
	}
}

// Run owns all hub state. Call it once, in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			if h.clients[c.userID] == nil {
				h.clients[c.userID] = make(map[*Client]bool)
			}
			h.clients[c.userID][c] = true
			prometheus.WSConnectionsGauge.Inc()
			h.log.Info("Client connected", zap.Uint("user_id", c.userID))

		case c := <-h.unregister:
			if conns, ok := h.clients[c.userID]; ok && conns[c] {
				delete(conns, c)
				close(c.send)
				prometheus.WSConnectionsGauge.Dec()
				if len(conns) == 0 {
					delete(h.clients, c.userID)
					h.expireTypingFor(c.userID)
				}
				h.log.Info("Client disconnected", zap.Uint("user_id", c.userID))
			}

		case out := <-h.broadcast:
			for _, userID := range out.userIDs {
				for c := range h.clients[userID] {
					select {
					case c.send <- out.frame:
					default:
						// Slow consumer; drop the frame. The client
						// resyncs from the durable store on reconnect.
						h.log.Warn("Dropping frame for slow connection",
							zap.Uint("user_id", userID))
					}
				}
			}

		case ev := <-h.typing:
			h.handleTyping(ev)

		case key := <-h.expired:
			if st, ok := h.typers[key]; ok {
				delete(h.typers, key)
				h.sendTyping(key, st.peer, true)
			}
		}
	}
}

// Broadcast fans an event out to every live connection of the given
// users. It never blocks: if the hub queue is full the frame is
// dropped and recipients catch up from the durable store.
func (h *Hub) Broadcast(userIDs []uint, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("Failed to encode broadcast payload", zap.String("event", event), zap.Error(err))
		return
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.log.Error("Failed to encode envelope", zap.String("event", event), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- outbound{userIDs: userIDs, frame: frame}:
	default:
		h.log.Warn("Broadcast queue full, dropping event", zap.String("event", event))
	}
}

// handleTyping starts, refreshes or stops the expiry timer for one
// (conversation, user) pair and relays the state to the peer. Events
// arrive membership-checked and peer-resolved, so nothing here blocks.
func (h *Hub) handleTyping(ev typingEvent) {
	if ev.stop {
		if st, ok := h.typers[ev.key]; ok {
			st.timer.Stop()
			delete(h.typers, ev.key)
		}
		h.sendTyping(ev.key, ev.peer, true)
		return
	}

	if st, ok := h.typers[ev.key]; ok {
		st.timer.Reset(h.typingTTL)
	} else {
		key := ev.key
		timer := time.AfterFunc(h.typingTTL, func() {
			h.expired <- key
		})
		h.typers[key] = typingState{timer: timer, peer: ev.peer}
		h.sendTyping(key, ev.peer, false)
	}
}

// sendTyping fans the typing or stopTyping event out to the peer's
// connections.
func (h *Hub) sendTyping(key typingKey, peer uint, stop bool) {
	event := EventTyping
	if stop {
		event = EventStopTyping
	}
	h.Broadcast([]uint{peer}, event, TypingPayload{
		ChatID: key.chatID,
		UserID: key.userID,
	})
}

// expireTypingFor clears any typing state the user left behind when
// their last connection dropped.
func (h *Hub) expireTypingFor(userID uint) {
	for key, st := range h.typers {
		if key.userID == userID {
			st.timer.Stop()
			delete(h.typers, key)
			h.sendTyping(key, st.peer, true)
		}
	}
}
