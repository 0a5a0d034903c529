package world

import (
	"timberline/core/internal/grid"
	"timberline/core/internal/state"
)

// Harvestable is the capability a worker needs from any entity it can chop.
// Trees implement it today; dispatch stays interface-based so other entity
// kinds can opt in later.
type Harvestable interface {
	ID() string
	Position() state.Vec2
	Tile() grid.Tile
	ResourceType() ResourceType

	// IsAvailableForHarvest reports whether requester could claim or already
	// holds the reservation.
	IsAvailableForHarvest(requester string) bool
	// SetHarvester atomically claims the reservation. It fails if another
	// holder has it; re-claiming by the current holder succeeds.
	SetHarvester(requester string) bool
	// ReleaseHarvester clears the reservation unconditionally.
	ReleaseHarvester()
	// Harvester returns the current reservation holder, if any.
	Harvester() string

	// WorkerHarvest applies one hit at the given tick. yield is non-zero
	// only when the hit destroyed the entity.
	WorkerHarvest(tick uint64) (yield int, destroyed bool)
	// Interrupt cancels the hit sequence and releases the reservation, as
	// when the harvester walks away mid-chop.
	Interrupt(tick uint64)
}
