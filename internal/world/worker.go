package world

import (
	"context"
	"sort"

	"timberline/core/internal/grid"
	"timberline/core/internal/state"
	"timberline/core/logging"
	"timberline/core/logging/economy"
	"timberline/core/logging/forestry"
	"timberline/core/logging/simulation"
)

// WorkerPhase is the behavior state layered over the mobile base.
type WorkerPhase uint8

const (
	PhaseIdle WorkerPhase = iota
	PhaseMovingToResource
	PhaseHarvesting
	PhaseMovingToStorage
	PhaseDepositing
)

var workerPhaseNames = map[WorkerPhase]string{
	PhaseIdle:             "idle",
	PhaseMovingToResource: "moving_to_resource",
	PhaseHarvesting:       "harvesting",
	PhaseMovingToStorage:  "moving_to_storage",
	PhaseDepositing:       "depositing",
}

func (p WorkerPhase) String() string {
	if name, ok := workerPhaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// ParseWorkerPhase maps a persisted phase name back to the enum.
func ParseWorkerPhase(name string) (WorkerPhase, bool) {
	for phase, n := range workerPhaseNames {
		if n == name {
			return phase, true
		}
	}
	return PhaseIdle, false
}

// WorkerParams tunes one worker's behavior loop.
type WorkerParams struct {
	MoveSpeed         float64
	Capacity          int
	WorkRadius        float64
	HarvestCycleTicks uint64
	DepositDelayTicks uint64
	BlacklistTicks    uint64
	ClaimAttempts     int
	StuckSampleTicks  uint64
	StuckSampleCount  int
	StuckEpsilon      float64
}

// Worker is an autonomous agent: it discovers and reserves a harvestable,
// travels, chops until its inventory fills, hauls to storage, deposits, and
// repeats. All timings are tick deadlines; all path results arrive through
// generation-guarded callbacks so stale responses are discarded.
type Worker struct {
	Mobile
	typ       string
	params    WorkerParams
	inventory *Inventory

	phase         WorkerPhase
	target        Harvestable
	storageTarget *Building
	depositPoint  *state.Vec2
	memory        state.WorkerMemory
	stats         WorkerStats
}

func newWorker(id, typ string, pos state.Vec2, params WorkerParams, depositPoint *state.Vec2) *Worker {
	return &Worker{
		Mobile:       *NewMobile(id, pos, params.MoveSpeed),
		typ:          typ,
		params:       params,
		inventory:    NewInventory(params.Capacity),
		depositPoint: depositPoint,
	}
}

func (w *Worker) Type() string          { return w.typ }
func (w *Worker) Phase() WorkerPhase    { return w.phase }
func (w *Worker) Inventory() *Inventory { return w.inventory }
func (w *Worker) Stats() WorkerStats    { return w.stats }
func (w *Worker) Target() Harvestable   { return w.target }

func (w *Worker) entityRef() logging.EntityRef {
	return logging.EntityRef{ID: w.ID(), Kind: logging.EntityKindWorker}
}

// Record snapshots the worker for persistence.
func (w *Worker) Record() WorkerRecord {
	inv := make(map[string]int)
	for t, n := range w.inventory.Contents() {
		inv[string(t)] = n
	}
	return WorkerRecord{
		Type:         w.typ,
		Position:     w.Pos,
		State:        w.phase.String(),
		Inventory:    inv,
		DepositPoint: w.depositPoint,
		Stats:        w.stats,
	}
}

// updateBehavior runs one behavior step. Movement has already been advanced
// by the manager this tick.
func (w *Worker) updateBehavior(env *WorkerManager, tick uint64) {
	switch w.phase {
	case PhaseIdle:
		w.decideNext(env, tick)
	case PhaseMovingToResource:
		w.advanceToResource(env, tick)
	case PhaseHarvesting:
		w.harvest(env, tick)
	case PhaseMovingToStorage:
		w.advanceToStorage(env, tick)
	case PhaseDepositing:
		w.deposit(env, tick)
	}
}

func (w *Worker) decideNext(env *WorkerManager, tick uint64) {
	if w.inventory.Full() {
		if w.seekStorage(env, tick) {
			return
		}
		// Nothing accepts the load right now; wait and retry.
		return
	}
	if w.seekResource(env, tick) {
		return
	}
	if w.inventory.Total() > 0 {
		// Nothing left to harvest; haul what we carry.
		if w.seekStorage(env, tick) {
			return
		}
	}
	w.wander(env, tick)
}

// seekResource enumerates candidates inside the work radius (retrying once
// at radius x1.5), attempts to claim only the nearest few to limit
// contention, and requests a path to an approach tile of the winner.
func (w *Worker) seekResource(env *WorkerManager, tick uint64) bool {
	exclude := func(t grid.Tile) bool {
		return w.memory.Blacklisted(t.Key(), tick)
	}
	candidates := env.trees.FindAvailable(w.Pos, w.params.WorkRadius, w.ID(), exclude)
	if len(candidates) == 0 {
		candidates = env.trees.FindAvailable(w.Pos, w.params.WorkRadius*1.5, w.ID(), exclude)
	}
	if len(candidates) == 0 {
		return false
	}
	attempts := w.params.ClaimAttempts
	if attempts <= 0 || attempts > len(candidates) {
		attempts = len(candidates)
	}
	for _, candidate := range candidates[:attempts] {
		if !candidate.SetHarvester(w.ID()) {
			continue
		}
		if w.requestPathToResource(env, tick, candidate) {
			return true
		}
		candidate.ReleaseHarvester()
	}
	return false
}

func (w *Worker) requestPathToResource(env *WorkerManager, tick uint64, target Harvestable) bool {
	snap := env.snapshot()
	approach, ok := approachTile(snap, w.Pos, []grid.Tile{target.Tile()})
	if !ok {
		w.blacklist(tick, target.Tile())
		return false
	}
	w.memory.PathGeneration++
	gen := w.memory.PathGeneration
	accepted := env.paths.Request(snap, w.Tile(), approach, func(tiles []grid.Tile) {
		w.onResourcePath(env, gen, tiles)
	})
	if !accepted {
		return false
	}
	w.memory.PathPending = true
	w.target = target
	w.phase = PhaseMovingToResource
	return true
}

// onResourcePath runs on the sim goroutine via the service's completion
// drain. Guard against superseded requests before touching state.
func (w *Worker) onResourcePath(env *WorkerManager, gen uint64, tiles []grid.Tile) {
	if w.memory.PathGeneration != gen || w.phase != PhaseMovingToResource {
		return
	}
	w.memory.PathPending = false
	if tiles == nil {
		w.pathFailure(env, env.tick, w.target.Tile())
		return
	}
	w.SetPath(tiles)
}

func (w *Worker) pathFailure(env *WorkerManager, tick uint64, goal grid.Tile) {
	w.stats.PathFailures++
	w.blacklist(tick, goal)
	simulation.PathUnreachable(context.Background(), env.pub, tick, w.entityRef(),
		simulation.PathUnreachablePayload{GoalX: goal.X, GoalY: goal.Y})
	w.releaseTarget()
	w.storageTarget = nil
	w.Stop()
	w.phase = PhaseIdle
}

func (w *Worker) blacklist(tick uint64, t grid.Tile) {
	w.memory.BlacklistTile(t.Key(), tick+w.params.BlacklistTicks)
}

func (w *Worker) releaseTarget() {
	if w.target != nil {
		w.target.ReleaseHarvester()
		w.target = nil
	}
}

func (w *Worker) advanceToResource(env *WorkerManager, tick uint64) {
	target := w.target
	if target == nil {
		w.phase = PhaseIdle
		return
	}
	if !target.IsAvailableForHarvest(w.ID()) {
		// Destroyed or stolen while we were en route.
		w.releaseTarget()
		w.Stop()
		w.phase = PhaseIdle
		return
	}
	if w.memory.PathPending || w.Following() {
		return
	}
	if chebyshev(w.Tile(), target.Tile()) <= 1 {
		w.Stop()
		w.FaceToward(target.Position())
		w.Animation = state.AnimHarvest
		w.phase = PhaseHarvesting
		w.memory.NextActionTick = tick + w.params.HarvestCycleTicks
		return
	}
	// Path exhausted short of the target; treat like a failed route.
	w.pathFailure(env, tick, target.Tile())
}

// harvest applies one hit per action cycle while the target survives and
// the inventory has room. When the target is destroyed the yield is
// credited (clamped by capacity) and the worker either reselects a resource
// directly or hauls its load, skipping a full idle cycle.
func (w *Worker) harvest(env *WorkerManager, tick uint64) {
	target := w.target
	if target == nil {
		w.phase = PhaseIdle
		return
	}
	if !target.IsAvailableForHarvest(w.ID()) {
		w.releaseTarget()
		w.Animation = state.AnimIdle
		w.phase = PhaseIdle
		return
	}
	if tick < w.memory.NextActionTick {
		return
	}

	yield, destroyed := target.WorkerHarvest(tick)
	if !destroyed {
		if w.inventory.Full() {
			// Stop mid-sequence to haul; the tree heals after the grace
			// period since we released the reservation.
			target.Interrupt(tick)
			forestry.HarvestInterrupted(context.Background(), env.pub, tick,
				logging.EntityRef{ID: target.ID(), Kind: logging.EntityKindTree},
				forestry.HarvestInterruptedPayload{Harvester: w.ID()})
			w.target = nil
			w.Animation = state.AnimIdle
			if !w.seekStorage(env, tick) {
				w.phase = PhaseIdle
			}
			return
		}
		w.memory.NextActionTick = tick + w.params.HarvestCycleTicks
		return
	}

	credited := w.inventory.Add(target.ResourceType(), yield)
	w.stats.TreesFelled++
	w.stats.Harvested += credited
	forestry.TreeDestroyed(context.Background(), env.pub, tick,
		logging.EntityRef{ID: target.ID(), Kind: logging.EntityKindTree},
		forestry.TreeDestroyedPayload{Yield: yield, Harvester: w.ID()})
	economy.ResourceYield(context.Background(), env.pub, tick, w.entityRef(),
		economy.ResourceYieldPayload{ResourceType: string(target.ResourceType()), Amount: yield, Credited: credited})
	w.target = nil
	w.Animation = state.AnimIdle

	if w.inventory.Full() {
		if !w.seekStorage(env, tick) {
			w.phase = PhaseIdle
		}
		return
	}
	// Continue-harvest bypass: go straight back to target selection.
	if !w.seekResource(env, tick) {
		w.phase = PhaseIdle
	}
}

// seekStorage routes to the nearest accepting building, or to the fallback
// deposit point when no building can take the load or every accepting
// building is on the blacklist after a failed route.
func (w *Worker) seekStorage(env *WorkerManager, tick uint64) bool {
	carried := w.carriedTypes()
	if len(carried) == 0 {
		return false
	}
	snap := env.snapshot()

	exclude := func(t grid.Tile) bool {
		return w.memory.Blacklisted(t.Key(), tick)
	}
	building := env.buildings.NearestStorage(w.Pos, carried[0], exclude)
	if building != nil {
		approach, ok := approachTile(snap, w.Pos, building.Footprint())
		if !ok {
			w.blacklist(tick, building.Origin())
			building = nil
		} else {
			w.memory.PathGeneration++
			gen := w.memory.PathGeneration
			accepted := env.paths.Request(snap, w.Tile(), approach, func(tiles []grid.Tile) {
				w.onStoragePath(env, gen, building.Origin(), tiles)
			})
			if !accepted {
				return false
			}
			w.memory.PathPending = true
			w.storageTarget = building
			w.phase = PhaseMovingToStorage
			return true
		}
	}

	point, ok := env.fallbackDeposit(w)
	if !ok {
		return false
	}
	goal := TileAt(point)
	if !snap.Walkable(goal) {
		return false
	}
	w.memory.PathGeneration++
	gen := w.memory.PathGeneration
	accepted := env.paths.Request(snap, w.Tile(), goal, func(tiles []grid.Tile) {
		w.onStoragePath(env, gen, goal, tiles)
	})
	if !accepted {
		return false
	}
	w.memory.PathPending = true
	w.storageTarget = nil
	w.phase = PhaseMovingToStorage
	return true
}

func (w *Worker) onStoragePath(env *WorkerManager, gen uint64, goal grid.Tile, tiles []grid.Tile) {
	if w.memory.PathGeneration != gen || w.phase != PhaseMovingToStorage {
		return
	}
	w.memory.PathPending = false
	if tiles == nil {
		w.pathFailure(env, env.tick, goal)
		return
	}
	w.SetPath(tiles)
}

func (w *Worker) advanceToStorage(env *WorkerManager, tick uint64) {
	if w.storageTarget != nil && !env.buildings.Contains(w.storageTarget) {
		// Building removed while en route.
		w.storageTarget = nil
		w.Stop()
		w.phase = PhaseIdle
		return
	}
	if w.memory.PathPending || w.Following() {
		return
	}
	w.Stop()
	if w.storageTarget != nil {
		w.FaceToward(w.storageTarget.Position())
	}
	w.Animation = state.AnimDeposit
	w.phase = PhaseDepositing
	w.memory.NextActionTick = tick + w.params.DepositDelayTicks
}

// deposit transfers after the fixed delay. A building takes what fits and
// the worker keeps the rest; the fallback point absorbs everything as a
// global credit.
func (w *Worker) deposit(env *WorkerManager, tick uint64) {
	if tick < w.memory.NextActionTick {
		return
	}
	building := w.storageTarget
	for _, t := range w.carriedTypes() {
		offered := w.inventory.Amount(t)
		if building != nil {
			accepted := building.Storage().Deposit(t, offered)
			w.inventory.Remove(t, accepted)
			w.stats.Deposited += accepted
			ref := logging.EntityRef{ID: building.ID(), Kind: logging.EntityKindBuilding}
			if accepted > 0 {
				economy.ResourceDeposited(context.Background(), env.pub, tick, w.entityRef(), ref,
					economy.ResourceDepositedPayload{ResourceType: string(t), Offered: offered, Accepted: accepted})
			} else {
				economy.DepositRejected(context.Background(), env.pub, tick, w.entityRef(), ref,
					economy.DepositRejectedPayload{ResourceType: string(t), Reason: "full"})
			}
		} else {
			removed := w.inventory.Remove(t, offered)
			w.stats.Deposited += removed
			if env.credit != nil {
				env.credit(t, removed)
			}
			economy.ResourceAdded(context.Background(), env.pub, tick, w.entityRef(),
				economy.ResourceAddedPayload{ResourceType: string(t), Amount: removed})
		}
	}
	w.storageTarget = nil
	w.Animation = state.AnimIdle
	w.phase = PhaseIdle
}

// wander sends an idle worker a short random walk so it drifts toward new
// work instead of freezing in place.
func (w *Worker) wander(env *WorkerManager, tick uint64) {
	if tick < w.memory.NextActionTick || w.Following() || w.memory.PathPending {
		return
	}
	w.memory.NextActionTick = tick + w.params.HarvestCycleTicks*2
	snap := env.snapshot()
	origin := w.Tile()
	for attempt := 0; attempt < 6; attempt++ {
		goal := grid.Tile{
			X: origin.X + env.rng.Intn(11) - 5,
			Y: origin.Y + env.rng.Intn(11) - 5,
		}
		if goal == origin || !snap.Walkable(goal) {
			continue
		}
		w.memory.PathGeneration++
		gen := w.memory.PathGeneration
		accepted := env.paths.Request(snap, origin, goal, func(tiles []grid.Tile) {
			if w.memory.PathGeneration != gen || w.phase != PhaseIdle {
				return
			}
			w.memory.PathPending = false
			if tiles != nil {
				w.SetPath(tiles)
			}
		})
		if accepted {
			w.memory.PathPending = true
		}
		return
	}
}

// cleanup force-resets the worker to idle: reservation released, path and
// timers cleared, in-flight path results invalidated. Used by the stuck
// checker and the panic recovery path; never disabled.
func (w *Worker) cleanup() {
	w.releaseTarget()
	w.storageTarget = nil
	w.memory.PathGeneration++
	w.memory.PathPending = false
	w.memory.NextActionTick = 0
	w.Stop()
	w.phase = PhaseIdle
}

func (w *Worker) carriedTypes() []ResourceType {
	contents := w.inventory.Contents()
	types := make([]ResourceType, 0, len(contents))
	for t := range contents {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func chebyshev(a, b grid.Tile) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// approachTile picks the walkable 8-neighbor of any target tile closest to
// the agent. Targets themselves are blocked (trees and buildings occupy
// their tiles), so agents stop beside them.
func approachTile(snap *grid.Snapshot, from state.Vec2, targets []grid.Tile) (grid.Tile, bool) {
	occupied := make(map[grid.Tile]struct{}, len(targets))
	for _, t := range targets {
		occupied[t] = struct{}{}
	}
	var best grid.Tile
	bestDist := -1.0
	for _, t := range targets {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				n := grid.Tile{X: t.X + dx, Y: t.Y + dy}
				if _, ok := occupied[n]; ok {
					continue
				}
				if !snap.Walkable(n) {
					continue
				}
				dist := from.DistanceTo(TileCenter(n))
				if bestDist < 0 || dist < bestDist {
					bestDist = dist
					best = n
				}
			}
		}
	}
	return best, bestDist >= 0
}
