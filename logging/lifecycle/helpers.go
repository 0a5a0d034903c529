package lifecycle

import (
	"context"

	"timberline/core/logging"
)

const (
	// EventBuildingPlaced is emitted when a building lands on the grid.
	EventBuildingPlaced logging.EventType = "lifecycle.building_placed"
	// EventBuildingRemoved is emitted when a building is torn down.
	EventBuildingRemoved logging.EventType = "lifecycle.building_removed"
	// EventBuildingsCleared is emitted when the whole building set is wiped.
	EventBuildingsCleared logging.EventType = "lifecycle.buildings_cleared"
	// EventPlacementRejected is emitted when a placement request cannot be honored.
	EventPlacementRejected logging.EventType = "lifecycle.placement_rejected"
	// EventWorkerCreated is emitted when a worker joins the scene.
	EventWorkerCreated logging.EventType = "lifecycle.worker_created"
	// EventWorkerRemoved is emitted when a worker leaves the scene.
	EventWorkerRemoved logging.EventType = "lifecycle.worker_removed"
	// EventStateFiltered is emitted when persisted entries are dropped during restore.
	EventStateFiltered logging.EventType = "lifecycle.state_filtered"
)

// BuildingPayload identifies a placed or removed building.
type BuildingPayload struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// PlacementRejectedPayload carries the user-facing rejection reason.
type PlacementRejectedPayload struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// WorkerPayload identifies a created or removed worker.
type WorkerPayload struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// StateFilteredPayload counts discarded persisted entries.
type StateFilteredPayload struct {
	Document  string `json:"document"`
	Discarded int    `json:"discarded"`
	Kept      int    `json:"kept"`
	Reason    string `json:"reason,omitempty"`
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	event.Category = logging.CategoryLifecycle
	pub.Publish(ctx, event)
}

// BuildingPlaced publishes a placement event.
func BuildingPlaced(ctx context.Context, pub logging.Publisher, tick uint64, building logging.EntityRef, payload BuildingPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventBuildingPlaced,
		Tick:     tick,
		Actor:    building,
		Severity: logging.SeverityInfo,
		Payload:  payload,
	})
}

// BuildingRemoved publishes a removal event.
func BuildingRemoved(ctx context.Context, pub logging.Publisher, tick uint64, building logging.EntityRef, payload BuildingPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventBuildingRemoved,
		Tick:     tick,
		Actor:    building,
		Severity: logging.SeverityInfo,
		Payload:  payload,
	})
}

// BuildingsCleared publishes a wipe event.
func BuildingsCleared(ctx context.Context, pub logging.Publisher, tick uint64, count int) {
	publish(ctx, pub, logging.Event{
		Type:     EventBuildingsCleared,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindScene},
		Severity: logging.SeverityInfo,
		Extra:    map[string]any{"count": count},
	})
}

// PlacementRejected publishes a rejected placement. The reason is surfaced to
// the UI as a transient message; no state changed.
func PlacementRejected(ctx context.Context, pub logging.Publisher, tick uint64, payload PlacementRejectedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventPlacementRejected,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindScene},
		Severity: logging.SeverityWarn,
		Payload:  payload,
	})
}

// WorkerCreated publishes a worker spawn event.
func WorkerCreated(ctx context.Context, pub logging.Publisher, tick uint64, worker logging.EntityRef, payload WorkerPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventWorkerCreated,
		Tick:     tick,
		Actor:    worker,
		Severity: logging.SeverityInfo,
		Payload:  payload,
	})
}

// WorkerRemoved publishes a worker removal event.
func WorkerRemoved(ctx context.Context, pub logging.Publisher, tick uint64, worker logging.EntityRef, payload WorkerPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventWorkerRemoved,
		Tick:     tick,
		Actor:    worker,
		Severity: logging.SeverityInfo,
		Payload:  payload,
	})
}

// StateFiltered publishes a restore-filtering event.
func StateFiltered(ctx context.Context, pub logging.Publisher, tick uint64, payload StateFilteredPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventStateFiltered,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindScene},
		Severity: logging.SeverityWarn,
		Payload:  payload,
	})
}
