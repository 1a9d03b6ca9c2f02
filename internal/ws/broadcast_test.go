package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/boothsync/backend/internal/session"
	"github.com/gorilla/websocket"
)

func dialBroadcaster(t *testing.T, b *Broadcaster) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		b.AddClient(conn)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	return msg
}

func TestAddClientSendsSnapshot(t *testing.T) {
	store := session.NewStore()
	b := NewBroadcaster(store, time.Millisecond, 0)

	conn := dialBroadcaster(t, b)
	msg := readMessage(t, conn)
	if msg.Type != MsgSnapshot {
		t.Errorf("first message type = %q, want snapshot", msg.Type)
	}
}

func TestQueueStateCoalesces(t *testing.T) {
	store := session.NewStore()
	b := NewBroadcaster(store, 50*time.Millisecond, 0)

	conn := dialBroadcaster(t, b)
	readMessage(t, conn) // connect snapshot

	// Burst of changes inside one throttle window: one push, carrying the
	// final state.
	for i := 0; i < 10; i++ {
		store.Mutate(func(st *session.SessionState) {
			st.Status = session.InProgress
		})
		b.QueueState()
	}
	store.Mutate(func(st *session.SessionState) {
		st.Status = session.Completed
	})
	b.QueueState()

	msg := readMessage(t, conn)
	if msg.Type != MsgState {
		t.Fatalf("message type = %q, want state", msg.Type)
	}
	payload, err := json.Marshal(msg.Payload)
	if err != nil {
		t.Fatal(err)
	}
	var sp struct {
		State struct {
			Status string `json:"status"`
		} `json:"state"`
	}
	if err := json.Unmarshal(payload, &sp); err != nil {
		t.Fatal(err)
	}
	if sp.State.Status != "completed" {
		t.Errorf("pushed status = %q, want the latest state", sp.State.Status)
	}

	// No second push queued for the same burst.
	conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("burst produced more than one push")
	}
}

func TestSnapshotTicker(t *testing.T) {
	store := session.NewStore()
	b := NewBroadcaster(store, time.Millisecond, 20*time.Millisecond)

	conn := dialBroadcaster(t, b)
	readMessage(t, conn) // connect snapshot

	msg := readMessage(t, conn)
	if msg.Type != MsgSnapshot {
		t.Errorf("periodic message type = %q, want snapshot", msg.Type)
	}
}

func TestClientCount(t *testing.T) {
	store := session.NewStore()
	b := NewBroadcaster(store, time.Millisecond, 0)

	if got := b.ClientCount(); got != 0 {
		t.Errorf("ClientCount() = %d, want 0", got)
	}

	conn := dialBroadcaster(t, b)
	readMessage(t, conn)

	if got := b.ClientCount(); got != 1 {
		t.Errorf("ClientCount() = %d, want 1", got)
	}
}
