package world

import "timberline/core/internal/state"

// BuildingRecord is the persisted shape of one placed building.
type BuildingRecord struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// WorkerRecord is the persisted shape of one worker. State and inventory are
// restored as hints; a restored worker always re-enters the behavior loop
// from idle so it never resumes against stale targets.
type WorkerRecord struct {
	Type         string         `json:"type"`
	Position     state.Vec2     `json:"position"`
	State        string         `json:"state"`
	Inventory    map[string]int `json:"inventory,omitempty"`
	DepositPoint *state.Vec2    `json:"depositPoint,omitempty"`
	Stats        WorkerStats    `json:"stats"`
}

// WorkerStats accumulates lifetime counters for one worker.
type WorkerStats struct {
	TreesFelled  int `json:"treesFelled"`
	Harvested    int `json:"harvested"`
	Deposited    int `json:"deposited"`
	StuckResets  int `json:"stuckResets"`
	PathFailures int `json:"pathFailures"`
}
