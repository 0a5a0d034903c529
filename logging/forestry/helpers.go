package forestry

import (
	"context"

	"timberline/core/logging"
)

const (
	// EventTreeDestroyed is emitted when a tree's health reaches zero.
	EventTreeDestroyed logging.EventType = "forestry.tree_destroyed"
	// EventTreeRespawned is emitted when a destroyed tree regrows.
	EventTreeRespawned logging.EventType = "forestry.tree_respawned"
	// EventTreeHealed is emitted when an interrupted tree heals back to full.
	EventTreeHealed logging.EventType = "forestry.tree_healed"
	// EventHarvestInterrupted is emitted when a hit sequence is cancelled
	// before destruction and the reservation is released.
	EventHarvestInterrupted logging.EventType = "forestry.harvest_interrupted"
)

// TreeDestroyedPayload records the destruction of a harvestable tree.
type TreeDestroyedPayload struct {
	Yield     int    `json:"yield"`
	Harvester string `json:"harvester,omitempty"`
}

// TreeRespawnedPayload records a regrown tree.
type TreeRespawnedPayload struct {
	Health int `json:"health"`
}

// HarvestInterruptedPayload records an abandoned hit sequence.
type HarvestInterruptedPayload struct {
	Harvester string `json:"harvester,omitempty"`
	Health    int    `json:"health"`
}

// TreeDestroyed publishes a destruction event.
func TreeDestroyed(ctx context.Context, pub logging.Publisher, tick uint64, tree logging.EntityRef, payload TreeDestroyedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTreeDestroyed,
		Tick:     tick,
		Actor:    tree,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryForestry,
		Payload:  payload,
	})
}

// TreeRespawned publishes a regrowth event.
func TreeRespawned(ctx context.Context, pub logging.Publisher, tick uint64, tree logging.EntityRef, payload TreeRespawnedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTreeRespawned,
		Tick:     tick,
		Actor:    tree,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryForestry,
		Payload:  payload,
	})
}

// TreeHealed publishes a heal-to-full event.
func TreeHealed(ctx context.Context, pub logging.Publisher, tick uint64, tree logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTreeHealed,
		Tick:     tick,
		Actor:    tree,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryForestry,
	})
}

// HarvestInterrupted publishes an interruption event.
func HarvestInterrupted(ctx context.Context, pub logging.Publisher, tick uint64, tree logging.EntityRef, payload HarvestInterruptedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventHarvestInterrupted,
		Tick:     tick,
		Actor:    tree,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryForestry,
		Payload:  payload,
	})
}
