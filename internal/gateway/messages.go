package gateway

import "timberline/core/internal/sim"

// ProtocolVersion is stamped on every outbound message.
const ProtocolVersion = 1

// clientMessage is the inbound envelope. Type selects which fields matter;
// unknown types are rejected, malformed JSON is discarded.
type clientMessage struct {
	Ver          int      `json:"ver,omitempty"`
	Type         string   `json:"type"`
	X            *float64 `json:"x,omitempty"`
	Y            *float64 `json:"y,omitempty"`
	TreeID       string   `json:"treeId,omitempty"`
	BuildingType string   `json:"buildingType,omitempty"`
	WorkerType   string   `json:"workerType,omitempty"`
	WorkerID     string   `json:"workerId,omitempty"`
	Seq          *uint64  `json:"seq,omitempty"`
}

type stateMessage struct {
	Ver      int          `json:"ver"`
	Type     string       `json:"type"`
	Snapshot sim.Snapshot `json:"snapshot"`
}

type commandAckMessage struct {
	Ver  int    `json:"ver"`
	Type string `json:"type"`
	Seq  uint64 `json:"seq"`
}

type commandRejectMessage struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Seq    uint64 `json:"seq"`
	Reason string `json:"reason"`
	Retry  bool   `json:"retry,omitempty"`
}
