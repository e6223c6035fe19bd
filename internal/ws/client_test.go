package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dial connects a real websocket client for userID against the hub.
func dial(t *testing.T, h *Hub, userID uint) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.Serve(w, r, userID)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendTypingFrame(t *testing.T, conn *websocket.Conn, event string, chatID uint) {
	t.Helper()
	data, err := json.Marshal(TypingPayload{ChatID: chatID})
	require.NoError(t, err)
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func TestServeRelaysTypingToPeer(t *testing.T) {
	h, _ := newTestHub(time.Minute)
	student := connect(h, 7)

	mentor := dial(t, h, 5)
	sendTypingFrame(t, mentor, EventTyping, 1)

	env := recvEnvelope(t, student)
	assert.Equal(t, EventTyping, env.Event)
	var p TypingPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, uint(1), p.ChatID)
	assert.Equal(t, uint(5), p.UserID, "the sender identity comes from the connection, never the frame")
}

func TestServeDropsTypingFromNonParticipant(t *testing.T) {
	h, _ := newTestHub(time.Minute)
	student := connect(h, 7)

	intruder := dial(t, h, 42)
	sendTypingFrame(t, intruder, EventTyping, 1)
	assertNoFrame(t, student)
}

func TestServeDropsTypingForUnknownConversation(t *testing.T) {
	h, _ := newTestHub(time.Minute)
	student := connect(h, 7)

	mentor := dial(t, h, 5)
	sendTypingFrame(t, mentor, EventTyping, 999)
	assertNoFrame(t, student)
}
