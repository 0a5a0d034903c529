package session

import (
	"time"

	"timberline/core/internal/world"
)

// DocumentVersion is bumped when the persisted layout changes shape.
const DocumentVersion = 1

// Document is the persisted session state: everything needed to replay the
// world's placed buildings, workers, and resource pool at boot. Tree state
// is intentionally absent; trees respawn from the map.
type Document struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"savedAt"`
	Tick    uint64    `json:"tick"`

	Buildings []world.BuildingRecord `json:"buildings"`
	Workers   []world.WorkerRecord   `json:"workers"`
	Resources map[string]int         `json:"resources,omitempty"`
}
