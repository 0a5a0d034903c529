package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"timberline/core/internal/sim"
)

const writeWait = 10 * time.Second

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub fans tick snapshots out to connected clients and funnels their
// commands into the loop. It never touches world state directly; the last
// broadcast snapshot is cached so new subscribers get an immediate state
// message without crossing into the sim goroutine.
type Hub struct {
	loop   *sim.Loop
	logger *log.Logger

	mu          sync.Mutex
	subscribers map[string]*subscriber
	lastState   []byte

	nextID atomic.Uint64
}

func NewHub(loop *sim.Loop, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		loop:        loop,
		logger:      logger,
		subscribers: make(map[string]*subscriber),
	}
}

// Subscribe registers a connection and returns its ID plus the most recent
// state message, if any tick has completed yet.
func (h *Hub) Subscribe(conn *websocket.Conn) (string, *subscriber, []byte) {
	id := fmt.Sprintf("client-%d", h.nextID.Add(1))
	sub := &subscriber{conn: conn}
	h.mu.Lock()
	h.subscribers[id] = sub
	initial := h.lastState
	h.mu.Unlock()
	return id, sub, initial
}

// Disconnect drops a subscriber and closes its connection.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()
	if ok {
		sub.conn.Close()
	}
}

// Subscribers reports the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// BroadcastSnapshot sends the tick snapshot to every subscriber. Writes
// carry a deadline; a failed write disconnects that client. Called from
// the loop's after-step hook, one broadcast at a time, so clients see
// snapshots in tick order and the cached state never regresses.
func (h *Hub) BroadcastSnapshot(snap sim.Snapshot) {
	data, err := json.Marshal(stateMessage{Ver: ProtocolVersion, Type: "state", Snapshot: snap})
	if err != nil {
		h.logger.Printf("failed to marshal state message: %v", err)
		return
	}

	h.mu.Lock()
	h.lastState = data
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		if err := sub.write(data); err != nil {
			h.logger.Printf("failed to send update to %s: %v", id, err)
			h.Disconnect(id)
		}
	}
}

// Enqueue stages a command for the next tick.
func (h *Hub) Enqueue(cmd sim.Command) (bool, string) {
	return h.loop.Enqueue(cmd)
}
