package world

import (
	"context"
	"fmt"
	"math/rand"

	"timberline/core/internal/grid"
	"timberline/core/internal/path"
	"timberline/core/internal/state"
	"timberline/core/logging"
	"timberline/core/logging/lifecycle"
	"timberline/core/logging/simulation"
)

// WorkerManagerDeps carries everything the worker behavior loop reaches
// into: the resource and building registries, the async path service, and
// the live grid snapshot.
type WorkerManagerDeps struct {
	Trees     *TreeManager
	Buildings *BuildingManager
	Paths     path.Requester
	Snapshot  func() *grid.Snapshot
	// FallbackDeposit is used when no building accepts a worker's load.
	FallbackDeposit *state.Vec2
	// Credit receives resources deposited at a fallback point; they bypass
	// building storage and go straight to the scene's pool.
	Credit    func(t ResourceType, amount int)
	Publisher logging.Publisher
	Params    WorkerParams
	Seed      int64
}

// WorkerManager owns the worker collection and drives each worker's
// movement, behavior, and stuck checks every tick. Everything runs on the
// simulation goroutine; the only concurrency is the path service, whose
// completions the scene drains before calling Update.
type WorkerManager struct {
	workers []*Worker
	byID    map[string]*Worker
	nextID  uint64

	trees       *TreeManager
	buildings   *BuildingManager
	paths       path.Requester
	snapshot    func() *grid.Snapshot
	fallbackPos *state.Vec2
	credit      func(t ResourceType, amount int)
	pub         logging.Publisher
	params      WorkerParams
	rng         *rand.Rand

	// tick mirrors the last Update tick so path callbacks, which fire
	// during the scene's drain phase, can stamp events correctly.
	tick uint64
}

func NewWorkerManager(deps WorkerManagerDeps) *WorkerManager {
	pub := deps.Publisher
	if pub == nil {
		pub = logging.NopPublisher()
	}
	if deps.Params.StuckEpsilon <= 0 {
		deps.Params.StuckEpsilon = TileSize / 4
	}
	return &WorkerManager{
		byID:        make(map[string]*Worker),
		trees:       deps.Trees,
		buildings:   deps.Buildings,
		paths:       deps.Paths,
		snapshot:    deps.Snapshot,
		fallbackPos: deps.FallbackDeposit,
		credit:      deps.Credit,
		pub:         pub,
		params:      deps.Params,
		rng:         rand.New(rand.NewSource(deps.Seed)),
	}
}

// CreateWorker spawns a worker at the given position. depositPoint, when
// set, overrides the manager-wide fallback for this worker.
func (m *WorkerManager) CreateWorker(tick uint64, typ string, pos state.Vec2, depositPoint *state.Vec2) *Worker {
	m.nextID++
	id := fmt.Sprintf("worker-%d", m.nextID)
	w := newWorker(id, typ, pos, m.params, depositPoint)
	m.workers = append(m.workers, w)
	m.byID[id] = w
	lifecycle.WorkerCreated(context.Background(), m.pub, tick, w.entityRef(),
		lifecycle.WorkerPayload{Type: typ, X: pos.X, Y: pos.Y})
	return w
}

// RemoveWorker deletes a worker and releases anything it held.
func (m *WorkerManager) RemoveWorker(tick uint64, id string) bool {
	w, ok := m.byID[id]
	if !ok {
		return false
	}
	w.cleanup()
	delete(m.byID, id)
	for i, other := range m.workers {
		if other == w {
			m.workers = append(m.workers[:i], m.workers[i+1:]...)
			break
		}
	}
	lifecycle.WorkerRemoved(context.Background(), m.pub, tick, w.entityRef(),
		lifecycle.WorkerPayload{Type: w.typ, X: w.Pos.X, Y: w.Pos.Y})
	return true
}

func (m *WorkerManager) Worker(id string) *Worker {
	return m.byID[id]
}

func (m *WorkerManager) Workers() []*Worker {
	return m.workers
}

// Update advances every worker one tick: movement first, then behavior,
// then the periodic stuck sample. A panicking worker is reset to a safe
// idle state instead of taking the whole simulation down.
func (m *WorkerManager) Update(tick uint64, dt float64) {
	m.tick = tick
	for _, w := range m.workers {
		m.updateWorker(w, tick, dt)
	}
}

func (m *WorkerManager) updateWorker(w *Worker, tick uint64, dt float64) {
	defer func() {
		if r := recover(); r != nil {
			simulation.WorkerPanicked(context.Background(), m.pub, tick, w.entityRef(), fmt.Sprint(r))
			w.cleanup()
		}
	}()
	w.Mobile.Update(dt)
	w.updateBehavior(m, tick)
	m.checkStuck(w, tick)
	w.memory.PurgeBlacklist(tick)
}

// checkStuck samples position at a fixed interval. Idle, harvesting, and
// depositing workers are exempt: those phases are stationary on purpose and
// advance on tick deadlines, so a positional sample can never distinguish
// them from a wedged worker. Anyone else static across enough consecutive
// samples is force-reset to idle.
func (m *WorkerManager) checkStuck(w *Worker, tick uint64) {
	if tick < w.memory.NextSampleTick {
		return
	}
	w.memory.NextSampleTick = tick + w.params.StuckSampleTicks

	stationaryPhase := w.phase == PhaseHarvesting || w.phase == PhaseDepositing || w.phase == PhaseIdle
	moved := w.Pos.DistanceTo(w.memory.LastSample) > w.params.StuckEpsilon
	w.memory.LastSample = w.Pos
	if stationaryPhase || moved {
		w.memory.StaticSamples = 0
		return
	}
	w.memory.StaticSamples++
	if int(w.memory.StaticSamples) < w.params.StuckSampleCount {
		return
	}
	w.stats.StuckResets++
	simulation.WorkerStuckReset(context.Background(), m.pub, tick, w.entityRef(),
		simulation.StuckResetPayload{Phase: w.phase.String(), Samples: int(w.memory.StaticSamples)})
	w.memory.StaticSamples = 0
	w.cleanup()
}

// fallbackDeposit resolves the deposit point for a worker with no storage
// building available: the worker's own point wins over the manager-wide one.
func (m *WorkerManager) fallbackDeposit(w *Worker) (state.Vec2, bool) {
	if w.depositPoint != nil {
		return *w.depositPoint, true
	}
	if m.fallbackPos != nil {
		return *m.fallbackPos, true
	}
	return state.Vec2{}, false
}

// Records snapshots every worker for persistence, in creation order.
func (m *WorkerManager) Records() []WorkerRecord {
	records := make([]WorkerRecord, 0, len(m.workers))
	for _, w := range m.workers {
		records = append(records, w.Record())
	}
	return records
}

// Restore recreates workers from persisted records. Invalid entries are
// dropped with a log rather than failing the load: a corrupt row should
// never brick a session. Restored workers re-enter the loop from idle;
// only position, inventory, deposit point, and stats survive.
func (m *WorkerManager) Restore(tick uint64, records []WorkerRecord) int {
	discarded := 0
	for _, rec := range records {
		if !rec.Position.Valid() {
			discarded++
			continue
		}
		if _, ok := ParseWorkerPhase(rec.State); !ok {
			discarded++
			continue
		}
		w := m.CreateWorker(tick, rec.Type, rec.Position, rec.DepositPoint)
		for name, amount := range rec.Inventory {
			if amount > 0 {
				w.inventory.Add(ResourceType(name), amount)
			}
		}
		w.stats = rec.Stats
	}
	if discarded > 0 {
		lifecycle.StateFiltered(context.Background(), m.pub, tick, lifecycle.StateFilteredPayload{
			Document:  "workers",
			Discarded: discarded,
			Kept:      len(m.workers),
		})
	}
	return discarded
}
