package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/boothsync/backend/internal/asset"
	"github.com/boothsync/backend/internal/session"
	"github.com/gorilla/websocket"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster pushes session state views to connected frontends so they
// learn of transitions without waiting for the next poll. Pushes are
// throttled: rapid event bursts collapse into one message carrying the
// latest view.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*client]bool
	store   *session.Store

	throttle       time.Duration
	snapshotTicker *time.Ticker
	flushTimer     *time.Timer
	flushMu        sync.Mutex
}

func NewBroadcaster(store *session.Store, throttle, snapshotInterval time.Duration) *Broadcaster {
	b := &Broadcaster{
		clients:  make(map[*client]bool),
		store:    store,
		throttle: throttle,
	}

	if snapshotInterval > 0 {
		b.snapshotTicker = time.NewTicker(snapshotInterval)
		go b.snapshotLoop()
	}

	return b
}

func (b *Broadcaster) AddClient(conn *websocket.Conn) *client {
	c := newClient(conn)

	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()

	data, _ := json.Marshal(b.snapshotMessage())
	select {
	case c.send <- data:
	default:
		// Client too slow, drop the snapshot
	}

	return c
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// QueueState schedules a state push. The view is built at flush time so the
// message always carries the newest snapshot, not the one at queue time.
func (b *Broadcaster) QueueState() {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()
	if b.flushTimer == nil {
		b.flushTimer = time.AfterFunc(b.throttle, b.flush)
	}
}

func (b *Broadcaster) flush() {
	b.flushMu.Lock()
	b.flushTimer = nil
	b.flushMu.Unlock()

	b.broadcast(WSMessage{
		Type:    MsgState,
		Payload: StatePayload{State: asset.BuildView(b.store.Snapshot())},
	})
}

func (b *Broadcaster) snapshotMessage() WSMessage {
	return WSMessage{
		Type:    MsgSnapshot,
		Payload: StatePayload{State: asset.BuildView(b.store.Snapshot())},
	}
}

func (b *Broadcaster) snapshotLoop() {
	for range b.snapshotTicker.C {
		b.broadcast(b.snapshotMessage())
	}
}

func (b *Broadcaster) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			// Client can't keep up, disconnect it
			log.Printf("ws client too slow, disconnecting")
			b.RemoveClient(c)
		}
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
