package simulation

import (
	"context"

	"timberline/core/logging"
)

const (
	// EventWorkerStuckReset is emitted when the stuck checker forces a worker
	// back to idle.
	EventWorkerStuckReset logging.EventType = "simulation.worker_stuck_reset"
	// EventPathUnreachable is emitted when a path request comes back empty.
	EventPathUnreachable logging.EventType = "simulation.path_unreachable"
	// EventWorkerPanicked is emitted when a worker's behavior update panicked
	// and was reset by the manager.
	EventWorkerPanicked logging.EventType = "simulation.worker_panicked"
	// EventGridRebuilt is emitted after the walkability grid is recomposed.
	EventGridRebuilt logging.EventType = "simulation.grid_rebuilt"
)

// StuckResetPayload records the state a worker was forced out of.
type StuckResetPayload struct {
	Phase   string `json:"phase"`
	Samples int    `json:"samples"`
}

// PathUnreachablePayload records a failed path request.
type PathUnreachablePayload struct {
	GoalX int `json:"goalX"`
	GoalY int `json:"goalY"`
}

// GridRebuiltPayload records the trigger for a rebuild.
type GridRebuiltPayload struct {
	Cause   string `json:"cause"`
	Blocked int    `json:"blocked"`
}

// WorkerStuckReset publishes a forced-reset event.
func WorkerStuckReset(ctx context.Context, pub logging.Publisher, tick uint64, worker logging.EntityRef, payload StuckResetPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventWorkerStuckReset,
		Tick:     tick,
		Actor:    worker,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

// PathUnreachable publishes a no-path event.
func PathUnreachable(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PathUnreachablePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPathUnreachable,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

// WorkerPanicked publishes a recovered-panic event.
func WorkerPanicked(ctx context.Context, pub logging.Publisher, tick uint64, worker logging.EntityRef, reason string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventWorkerPanicked,
		Tick:     tick,
		Actor:    worker,
		Severity: logging.SeverityError,
		Category: logging.CategorySimulation,
		Extra:    map[string]any{"reason": reason},
	})
}

// GridRebuilt publishes a rebuild event.
func GridRebuilt(ctx context.Context, pub logging.Publisher, tick uint64, payload GridRebuiltPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventGridRebuilt,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindScene},
		Severity: logging.SeverityDebug,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}
