package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"timberline/core/internal/sim"
)

// idleCore is a minimal sim core; the gateway tests only care about wire
// behavior, not world semantics.
type idleCore struct {
	tick uint64
}

func (c *idleCore) Apply(tick uint64, cmds []sim.Command) {}
func (c *idleCore) Step(tick uint64, dt float64)          { c.tick = tick }
func (c *idleCore) Snapshot() sim.Snapshot {
	return sim.Snapshot{Tick: c.tick, Resources: map[string]int{"wood": 5}}
}

func newTestGateway(t *testing.T) (*Hub, *sim.Loop, string) {
	t.Helper()
	loop := sim.NewLoop(&idleCore{}, sim.LoopConfig{TickRate: 20, PerActorLimit: 4}, sim.LoopHooks{})
	hub := NewHub(loop, nil)
	handler := NewHandler(hub, nil)
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)
	return hub, loop, srv.URL
}

func dialGateway(t *testing.T, baseURL string) *websocket.Conn {
	t.Helper()
	parsed, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parse test server url: %v", err)
	}
	parsed.Scheme = "ws"
	conn, resp, err := websocket.DefaultDialer.Dial(parsed.String(), nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		if resp != nil {
			resp.Body.Close()
		}
	})
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) map[string]json.RawMessage {
	t.Helper()
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("decode %s: %v", payload, err)
	}
	return env
}

func envelopeType(t *testing.T, env map[string]json.RawMessage) string {
	t.Helper()
	var typ string
	if err := json.Unmarshal(env["type"], &typ); err != nil {
		t.Fatalf("decode type: %v", err)
	}
	return typ
}

func TestSubscribeReceivesCachedState(t *testing.T) {
	hub, loop, baseURL := newTestGateway(t)
	result := loop.Advance(0.05)
	hub.BroadcastSnapshot(result.Snapshot)

	conn := dialGateway(t, baseURL)
	env := readEnvelope(t, conn)
	if got := envelopeType(t, env); got != "state" {
		t.Fatalf("first message type=%q, want state", got)
	}
	var snap sim.Snapshot
	if err := json.Unmarshal(env["snapshot"], &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Tick != 1 || snap.Resources["wood"] != 5 {
		t.Fatalf("initial snapshot=%+v", snap)
	}
	if hub.Subscribers() != 1 {
		t.Fatalf("subscribers=%d, want 1", hub.Subscribers())
	}
}

func TestCommandAckAndEnqueue(t *testing.T) {
	_, loop, baseURL := newTestGateway(t)
	conn := dialGateway(t, baseURL)

	if err := conn.WriteJSON(map[string]any{"type": "moveTo", "x": 100.0, "y": 200.0, "seq": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	env := readEnvelope(t, conn)
	if got := envelopeType(t, env); got != "commandAck" {
		t.Fatalf("reply type=%q, want commandAck", got)
	}
	var seq uint64
	json.Unmarshal(env["seq"], &seq)
	if seq != 1 {
		t.Fatalf("ack seq=%d, want 1", seq)
	}

	result := loop.Advance(0.05)
	if len(result.Commands) != 1 || result.Commands[0].Type != sim.CommandMoveTo {
		t.Fatalf("staged commands=%v", result.Commands)
	}
}

func TestInvalidCommandRejected(t *testing.T) {
	_, loop, baseURL := newTestGateway(t)
	conn := dialGateway(t, baseURL)

	if err := conn.WriteJSON(map[string]any{"type": "teleport", "seq": 7}); err != nil {
		t.Fatalf("write: %v", err)
	}
	env := readEnvelope(t, conn)
	if got := envelopeType(t, env); got != "commandReject" {
		t.Fatalf("reply type=%q, want commandReject", got)
	}

	if result := loop.Advance(0.05); len(result.Commands) != 0 {
		t.Fatalf("rejected command reached the loop: %v", result.Commands)
	}
}

func TestMalformedJSONDiscarded(t *testing.T) {
	_, _, baseURL := newTestGateway(t)
	conn := dialGateway(t, baseURL)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	// The connection survives; the next valid command is acknowledged.
	if err := conn.WriteJSON(map[string]any{"type": "clearBuildings", "seq": 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	env := readEnvelope(t, conn)
	if got := envelopeType(t, env); got != "commandAck" {
		t.Fatalf("reply type=%q, want commandAck", got)
	}
}

func TestBroadcastDeliversInTickOrder(t *testing.T) {
	hub, loop, baseURL := newTestGateway(t)
	conn := dialGateway(t, baseURL)

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	// Broadcasts run one at a time from the tick hook; a client must see
	// tick N before N+1, and the cached state must be the latest tick.
	for i := 0; i < 3; i++ {
		result := loop.Advance(0.05)
		hub.BroadcastSnapshot(result.Snapshot)
	}
	for want := uint64(1); want <= 3; want++ {
		env := readEnvelope(t, conn)
		var snap sim.Snapshot
		if err := json.Unmarshal(env["snapshot"], &snap); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		if snap.Tick != want {
			t.Fatalf("snapshot tick=%d, want %d", snap.Tick, want)
		}
	}

	late := dialGateway(t, baseURL)
	env := readEnvelope(t, late)
	var snap sim.Snapshot
	if err := json.Unmarshal(env["snapshot"], &snap); err != nil {
		t.Fatalf("decode cached snapshot: %v", err)
	}
	if snap.Tick != 3 {
		t.Fatalf("cached tick=%d, want the latest (3)", snap.Tick)
	}
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	hub, loop, baseURL := newTestGateway(t)
	first := dialGateway(t, baseURL)
	second := dialGateway(t, baseURL)

	// Let both subscriptions register before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.Subscribers() != 2 {
		t.Fatalf("subscribers=%d, want 2", hub.Subscribers())
	}

	result := loop.Advance(0.05)
	hub.BroadcastSnapshot(result.Snapshot)

	for _, conn := range []*websocket.Conn{first, second} {
		env := readEnvelope(t, conn)
		if got := envelopeType(t, env); got != "state" {
			t.Fatalf("broadcast type=%q, want state", got)
		}
	}
}
