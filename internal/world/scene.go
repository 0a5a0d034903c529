package world

import (
	"context"
	"errors"
	"fmt"

	"timberline/core/internal/grid"
	"timberline/core/internal/path"
	"timberline/core/internal/state"
	"timberline/core/logging"
	"timberline/core/logging/economy"
	"timberline/core/logging/forestry"
	"timberline/core/logging/lifecycle"
	"timberline/core/logging/simulation"
)

// ErrInsufficientResources means the scene's pool cannot cover a placement
// cost. Surfaced to the user as a message; nothing is mutated.
var ErrInsufficientResources = errors.New("insufficient resources")

// PathService is what the scene needs from the pathfinding layer: the
// request side shared with agents, plus the per-tick completion drain.
// *path.Service implements it; tests use a synchronous stand-in.
type PathService interface {
	path.Requester
	Drain(max int) int
}

// SceneDeps wires a scene together. Base is the map's collision snapshot;
// Trees must already be spawned from the map's object layer.
type SceneDeps struct {
	Base      *grid.Snapshot
	Trees     *TreeManager
	Templates map[string]*BuildingTemplate
	Paths     PathService
	Publisher logging.Publisher

	Worker          WorkerParams
	PlayerSpeed     float64
	PlayerStart     state.Vec2
	FallbackDeposit *state.Vec2
	Seed            int64
}

// Scene owns the world: the walkability grid and its rebuild protocol, the
// entity managers, the player agent, and the global resource pool. All
// methods must be called from the simulation goroutine; the scene has no
// internal locking.
type Scene struct {
	model *grid.Model
	snap  *grid.Snapshot

	trees     *TreeManager
	buildings *BuildingManager
	workers   *WorkerManager
	paths     PathService
	pub       logging.Publisher

	player       *Mobile
	playerMemory state.WorkerMemory
	playerTarget Harvestable
	playerHit    uint64
	hitTicks     uint64

	resources map[ResourceType]int
	tick      uint64
}

// NewScene composes the initial grid from the base collision layer plus the
// spawned trees, then wires the managers against the live snapshot.
func NewScene(deps SceneDeps) *Scene {
	pub := deps.Publisher
	if pub == nil {
		pub = logging.NopPublisher()
	}
	s := &Scene{
		model:     grid.NewModel(deps.Base),
		trees:     deps.Trees,
		buildings: NewBuildingManager(deps.Templates, pub),
		paths:     deps.Paths,
		pub:       pub,
		player:    NewMobile("player", deps.PlayerStart, deps.PlayerSpeed),
		hitTicks:  deps.Worker.HarvestCycleTicks,
		resources: make(map[ResourceType]int),
	}
	s.workers = NewWorkerManager(WorkerManagerDeps{
		Trees:           deps.Trees,
		Buildings:       s.buildings,
		Paths:           deps.Paths,
		Snapshot:        s.Snapshot,
		FallbackDeposit: deps.FallbackDeposit,
		Credit:          s.AddResources,
		Publisher:       pub,
		Params:          deps.Worker,
		Seed:            deps.Seed,
	})
	s.rebuild("scene_load")
	return s
}

// Snapshot returns the current walkability snapshot. Immutable; safe to
// hand to the path service.
func (s *Scene) Snapshot() *grid.Snapshot { return s.snap }

func (s *Scene) Trees() *TreeManager          { return s.trees }
func (s *Scene) Buildings() *BuildingManager  { return s.buildings }
func (s *Scene) Workers() *WorkerManager      { return s.workers }
func (s *Scene) Player() *Mobile              { return s.player }
func (s *Scene) Tick() uint64                 { return s.tick }
func (s *Scene) Resources() map[ResourceType]int {
	out := make(map[ResourceType]int, len(s.resources))
	for t, n := range s.resources {
		out[t] = n
	}
	return out
}

// AddResources credits the global pool.
func (s *Scene) AddResources(t ResourceType, amount int) {
	if amount > 0 {
		s.resources[t] += amount
	}
}

// rebuild recomposes the grid from the base layer, building footprints, and
// tree tiles. Runs synchronously so the very next path request sees it.
func (s *Scene) rebuild(cause string) {
	s.snap = s.model.Rebuild(s.buildings.BlockedTiles(), s.trees.BlockedTiles())
	simulation.GridRebuilt(context.Background(), s.pub, s.tick,
		simulation.GridRebuiltPayload{Cause: cause, Blocked: s.snap.BlockedCount()})
}

// Update advances the world one tick. Path completions are drained first so
// callbacks observe last tick's settled state; then the fixed collection
// order: player, trees, buildings, workers.
func (s *Scene) Update(tick uint64, dt float64) {
	s.tick = tick
	s.paths.Drain(0)

	s.player.Update(dt)
	s.updatePlayerChop(tick)

	if s.trees.Update(tick) {
		s.rebuild("tree_respawn")
	}
	s.workers.Update(tick, dt)
}

// PlaceBuilding charges the template's cost against the pool and places the
// building at the tile under pos. Any failure leaves both untouched.
func (s *Scene) PlaceBuilding(typ string, pos state.Vec2) (*Building, error) {
	tpl, ok := s.buildings.Template(typ)
	if !ok {
		return nil, fmt.Errorf("place %q: %w", typ, ErrUnknownBuilding)
	}
	for t, cost := range tpl.Cost {
		if s.resources[t] < cost {
			lifecycle.PlacementRejected(context.Background(), s.pub, s.tick,
				lifecycle.PlacementRejectedPayload{Type: typ, Reason: "insufficient resources"})
			return nil, fmt.Errorf("place %q: %w", typ, ErrInsufficientResources)
		}
	}
	b, err := s.buildings.Place(s.tick, typ, TileAt(pos), s.snap)
	if err != nil {
		return nil, err
	}
	for t, cost := range tpl.Cost {
		s.resources[t] -= cost
	}
	s.rebuild("building_placed")
	return b, nil
}

// RemoveBuilding deletes a placed building and unblocks its footprint.
func (s *Scene) RemoveBuilding(id string) bool {
	if !s.buildings.Remove(s.tick, id) {
		return false
	}
	s.rebuild("building_removed")
	return true
}

// ClearBuildings removes every placed building.
func (s *Scene) ClearBuildings() int {
	n := s.buildings.Clear(s.tick)
	if n > 0 {
		s.rebuild("buildings_cleared")
	}
	return n
}

// SpawnWorker creates a worker at the hint position, or beside the player
// when no hint is given.
func (s *Scene) SpawnWorker(typ string, hint *state.Vec2) *Worker {
	pos := s.player.Pos
	if hint != nil && hint.Valid() {
		pos = *hint
	}
	return s.workers.CreateWorker(s.tick, typ, pos, nil)
}

// RemoveWorker deletes a worker and releases anything it held.
func (s *Scene) RemoveWorker(id string) bool {
	return s.workers.RemoveWorker(s.tick, id)
}

// MovePlayerTo pathfinds the player to the clicked position. A movement
// command cancels an in-progress player chop.
func (s *Scene) MovePlayerTo(pos state.Vec2) bool {
	if !pos.Valid() {
		return false
	}
	s.cancelPlayerChop()
	goal := TileAt(pos)
	if !s.snap.Walkable(goal) {
		return false
	}
	s.playerMemory.PathGeneration++
	gen := s.playerMemory.PathGeneration
	accepted := s.paths.Request(s.snap, s.player.Tile(), goal, func(tiles []grid.Tile) {
		if s.playerMemory.PathGeneration != gen {
			return
		}
		s.playerMemory.PathPending = false
		if tiles != nil {
			s.player.SetPath(tiles)
		}
	})
	if accepted {
		s.playerMemory.PathPending = true
	}
	return accepted
}

// PlayerChop sends the player to chop the given tree. The claim happens up
// front so workers cannot steal the target while the player walks over.
func (s *Scene) PlayerChop(treeID string) bool {
	tree := s.trees.Tree(treeID)
	if tree == nil || !tree.SetHarvester(s.player.ID()) {
		return false
	}
	s.cancelPlayerChop()
	s.playerTarget = tree

	if chebyshev(s.player.Tile(), tree.Tile()) <= 1 {
		// Invalidate any in-flight movement path so its late arrival
		// cannot walk the player away mid-chop.
		s.playerMemory.PathGeneration++
		s.playerMemory.PathPending = false
		s.player.Stop()
		s.player.FaceToward(tree.Position())
		s.player.Animation = state.AnimHarvest
		s.playerHit = s.tick + s.hitTicks
		return true
	}
	approach, ok := approachTile(s.snap, s.player.Pos, []grid.Tile{tree.Tile()})
	if !ok {
		s.cancelPlayerChop()
		return false
	}
	s.playerMemory.PathGeneration++
	gen := s.playerMemory.PathGeneration
	accepted := s.paths.Request(s.snap, s.player.Tile(), approach, func(tiles []grid.Tile) {
		if s.playerMemory.PathGeneration != gen || s.playerTarget == nil {
			return
		}
		s.playerMemory.PathPending = false
		if tiles == nil {
			s.cancelPlayerChop()
			return
		}
		s.player.SetPath(tiles)
	})
	if !accepted {
		s.cancelPlayerChop()
		return false
	}
	s.playerMemory.PathPending = true
	return true
}

func (s *Scene) cancelPlayerChop() {
	if s.playerTarget == nil {
		return
	}
	s.playerTarget.Interrupt(s.tick)
	forestry.HarvestInterrupted(context.Background(), s.pub, s.tick,
		logging.EntityRef{ID: s.playerTarget.ID(), Kind: logging.EntityKindTree},
		forestry.HarvestInterruptedPayload{Harvester: s.player.ID()})
	s.playerTarget = nil
	s.player.Animation = state.AnimIdle
}

// updatePlayerChop drives the player's chop loop: walk up, then one hit per
// action cycle. Yield from a player chop goes straight to the pool.
func (s *Scene) updatePlayerChop(tick uint64) {
	target := s.playerTarget
	if target == nil {
		return
	}
	if !target.IsAvailableForHarvest(s.player.ID()) {
		s.playerTarget = nil
		s.player.Animation = state.AnimIdle
		return
	}
	if s.playerMemory.PathPending || s.player.Following() {
		return
	}
	if chebyshev(s.player.Tile(), target.Tile()) > 1 {
		// Path exhausted short of the tree; give up the claim.
		s.cancelPlayerChop()
		return
	}
	if s.player.Animation != state.AnimHarvest {
		s.player.FaceToward(target.Position())
		s.player.Animation = state.AnimHarvest
		s.playerHit = tick + s.hitTicks
		return
	}
	if tick < s.playerHit {
		return
	}
	yield, destroyed := target.WorkerHarvest(tick)
	if !destroyed {
		s.playerHit = tick + s.hitTicks
		return
	}
	s.AddResources(target.ResourceType(), yield)
	forestry.TreeDestroyed(context.Background(), s.pub, tick,
		logging.EntityRef{ID: target.ID(), Kind: logging.EntityKindTree},
		forestry.TreeDestroyedPayload{Yield: yield, Harvester: s.player.ID()})
	economy.ResourceAdded(context.Background(), s.pub, tick,
		logging.EntityRef{ID: s.player.ID(), Kind: logging.EntityKindPlayer},
		economy.ResourceAddedPayload{ResourceType: string(target.ResourceType()), Amount: yield})
	s.playerTarget = nil
	s.player.Animation = state.AnimIdle
}

// RestoreBuildings replays persisted buildings, rebuilding the grid after
// each successful placement so later footprints validate against earlier
// ones.
func (s *Scene) RestoreBuildings(records []BuildingRecord) int {
	discarded := s.buildings.Restore(s.tick, records, s.Snapshot, func() {
		s.rebuild("building_restored")
	})
	return discarded
}

// RestoreWorkers replays persisted workers. They re-enter the behavior loop
// from idle on their next update.
func (s *Scene) RestoreWorkers(records []WorkerRecord) int {
	return s.workers.Restore(s.tick, records)
}

// SetResources replaces the pool, used when restoring a session.
func (s *Scene) SetResources(pool map[ResourceType]int) {
	s.resources = make(map[ResourceType]int, len(pool))
	for t, n := range pool {
		if n > 0 {
			s.resources[t] = n
		}
	}
}
