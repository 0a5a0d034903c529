package sim

import "time"

// CommandType enumerates the supported simulation commands.
type CommandType string

const (
	CommandMoveTo         CommandType = "MoveTo"
	CommandChop           CommandType = "Chop"
	CommandPlaceBuilding  CommandType = "PlaceBuilding"
	CommandClearBuildings CommandType = "ClearBuildings"
	CommandSpawnWorker    CommandType = "SpawnWorker"
	CommandRemoveWorker   CommandType = "RemoveWorker"
)

// MoveToCommand targets a world position for the player agent.
type MoveToCommand struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ChopCommand targets a harvestable by ID for a player chop.
type ChopCommand struct {
	TreeID string `json:"treeId"`
}

// PlaceBuildingCommand confirms a placement at world coordinates.
type PlaceBuildingCommand struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// SpawnWorkerCommand requests a worker, optionally at a position hint.
type SpawnWorkerCommand struct {
	Type string   `json:"type"`
	X    *float64 `json:"x,omitempty"`
	Y    *float64 `json:"y,omitempty"`
}

// RemoveWorkerCommand deletes a worker by ID.
type RemoveWorkerCommand struct {
	WorkerID string `json:"workerId"`
}

// Command represents an intent captured for processing on the next tick.
type Command struct {
	OriginTick    uint64                `json:"originTick"`
	ActorID       string                `json:"actorId"`
	Type          CommandType           `json:"type"`
	IssuedAt      time.Time             `json:"issuedAt"`
	MoveTo        *MoveToCommand        `json:"moveTo,omitempty"`
	Chop          *ChopCommand          `json:"chop,omitempty"`
	PlaceBuilding *PlaceBuildingCommand `json:"placeBuilding,omitempty"`
	SpawnWorker   *SpawnWorkerCommand   `json:"spawnWorker,omitempty"`
	RemoveWorker  *RemoveWorkerCommand  `json:"removeWorker,omitempty"`
}
