package gateway

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"timberline/core/internal/sim"
)

var errUnknownMessage = errors.New("unknown message type")

// Handler upgrades HTTP requests to websocket sessions against the hub.
type Handler struct {
	hub      *Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed: %v", err)
		return
	}

	id, sub, initial := h.hub.Subscribe(conn)
	if initial != nil {
		if err := sub.write(initial); err != nil {
			h.hub.Disconnect(id)
			return
		}
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.hub.Disconnect(id)
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", id, err)
			continue
		}

		seq := uint64(0)
		if msg.Seq != nil {
			seq = *msg.Seq
		}

		cmd, err := commandFromMessage(id, msg)
		if err != nil {
			h.reply(id, sub, commandRejectMessage{
				Ver: ProtocolVersion, Type: "commandReject", Seq: seq, Reason: err.Error(),
			})
			continue
		}

		if ok, reason := h.hub.Enqueue(cmd); !ok {
			h.reply(id, sub, commandRejectMessage{
				Ver: ProtocolVersion, Type: "commandReject", Seq: seq, Reason: reason, Retry: true,
			})
			continue
		}
		if seq > 0 {
			h.reply(id, sub, commandAckMessage{Ver: ProtocolVersion, Type: "commandAck", Seq: seq})
		}
	}
}

func (h *Handler) reply(id string, sub *subscriber, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Printf("failed to marshal reply for %s: %v", id, err)
		return
	}
	if err := sub.write(data); err != nil {
		h.hub.Disconnect(id)
	}
}

// commandFromMessage validates the envelope and builds the typed command.
func commandFromMessage(actorID string, msg clientMessage) (sim.Command, error) {
	cmd := sim.Command{ActorID: actorID, IssuedAt: time.Now()}
	switch msg.Type {
	case "moveTo":
		if msg.X == nil || msg.Y == nil {
			return cmd, errors.New("moveTo requires x and y")
		}
		cmd.Type = sim.CommandMoveTo
		cmd.MoveTo = &sim.MoveToCommand{X: *msg.X, Y: *msg.Y}
	case "chop":
		if msg.TreeID == "" {
			return cmd, errors.New("chop requires treeId")
		}
		cmd.Type = sim.CommandChop
		cmd.Chop = &sim.ChopCommand{TreeID: msg.TreeID}
	case "placeBuilding":
		if msg.BuildingType == "" || msg.X == nil || msg.Y == nil {
			return cmd, errors.New("placeBuilding requires buildingType, x, and y")
		}
		cmd.Type = sim.CommandPlaceBuilding
		cmd.PlaceBuilding = &sim.PlaceBuildingCommand{Type: msg.BuildingType, X: *msg.X, Y: *msg.Y}
	case "clearBuildings":
		cmd.Type = sim.CommandClearBuildings
	case "spawnWorker":
		if msg.WorkerType == "" {
			return cmd, errors.New("spawnWorker requires workerType")
		}
		cmd.Type = sim.CommandSpawnWorker
		cmd.SpawnWorker = &sim.SpawnWorkerCommand{Type: msg.WorkerType, X: msg.X, Y: msg.Y}
	case "removeWorker":
		if msg.WorkerID == "" {
			return cmd, errors.New("removeWorker requires workerId")
		}
		cmd.Type = sim.CommandRemoveWorker
		cmd.RemoveWorker = &sim.RemoveWorkerCommand{WorkerID: msg.WorkerID}
	default:
		return cmd, errUnknownMessage
	}
	return cmd, nil
}
