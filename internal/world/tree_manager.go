package world

import (
	"context"
	"fmt"
	"sort"

	"timberline/core/internal/grid"
	"timberline/core/internal/state"
	"timberline/core/logging"
	"timberline/core/logging/forestry"
)

// TreeManager owns the harvestable entities spawned from the map's object
// layer. Membership never changes after load; trees cycle through destroyed
// and respawned in place.
type TreeManager struct {
	trees []*Tree
	byID  map[string]*Tree
	pub   logging.Publisher
}

// NewTreeManager wraps an already-spawned tree set.
func NewTreeManager(trees []*Tree, pub logging.Publisher) *TreeManager {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	byID := make(map[string]*Tree, len(trees))
	for _, t := range trees {
		byID[t.ID()] = t
	}
	return &TreeManager{trees: trees, byID: byID, pub: pub}
}

// SpawnTrees builds trees from spawn entries, applying per-instance
// overrides over the configured defaults.
func SpawnTrees(spawns []TreeSpawnEntry, defaults TreeParams) []*Tree {
	trees := make([]*Tree, 0, len(spawns))
	for i, s := range spawns {
		params := defaults
		if s.RespawnTicks > 0 {
			params.RespawnTicks = s.RespawnTicks
		}
		if s.YieldAmount > 0 {
			params.YieldAmount = s.YieldAmount
		}
		trees = append(trees, NewTree(fmt.Sprintf("tree-%d", i+1), s.Pos, params))
	}
	return trees
}

// TreeSpawnEntry is one row for SpawnTrees: a world position plus optional
// per-instance overrides (zero means "use the default").
type TreeSpawnEntry struct {
	Pos          state.Vec2
	RespawnTicks uint64
	YieldAmount  int
}

// SpawnEntry constructs one spawn row for SpawnTrees.
func SpawnEntry(pos state.Vec2, respawnTicks uint64, yield int) TreeSpawnEntry {
	return TreeSpawnEntry{Pos: pos, RespawnTicks: respawnTicks, YieldAmount: yield}
}

// Tree looks up a tree by ID.
func (m *TreeManager) Tree(id string) *Tree {
	return m.byID[id]
}

// Trees returns the full collection.
func (m *TreeManager) Trees() []*Tree {
	return m.trees
}

// Update advances every tree's timers. Returns true when any tree respawned,
// which obliges the scene to rebuild the grid.
func (m *TreeManager) Update(tick uint64) bool {
	respawned := false
	for _, t := range m.trees {
		switch t.Update(tick) {
		case TreeEventRespawned:
			respawned = true
			forestry.TreeRespawned(context.Background(), m.pub, tick,
				logging.EntityRef{ID: t.ID(), Kind: logging.EntityKindTree},
				forestry.TreeRespawnedPayload{Health: t.Health()})
		case TreeEventHealed:
			forestry.TreeHealed(context.Background(), m.pub, tick,
				logging.EntityRef{ID: t.ID(), Kind: logging.EntityKindTree})
		}
	}
	return respawned
}

// BlockedTiles aggregates the blocking tile of every tree. Stumps block too.
func (m *TreeManager) BlockedTiles() []grid.Tile {
	tiles := make([]grid.Tile, 0, len(m.trees))
	for _, t := range m.trees {
		if t.BlocksPath() {
			tiles = append(tiles, t.Tile())
		}
	}
	return tiles
}

// FindAvailable returns harvestables within radius of center that the
// requester could claim, sorted by ascending distance. The exclude callback
// filters blacklisted tiles.
func (m *TreeManager) FindAvailable(center state.Vec2, radius float64, requester string, exclude func(grid.Tile) bool) []Harvestable {
	type candidate struct {
		tree *Tree
		dist float64
	}
	candidates := make([]candidate, 0)
	for _, t := range m.trees {
		if !t.IsAvailableForHarvest(requester) {
			continue
		}
		if exclude != nil && exclude(t.Tile()) {
			continue
		}
		dist := center.DistanceTo(t.Position())
		if dist > radius {
			continue
		}
		candidates = append(candidates, candidate{tree: t, dist: dist})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].tree.ID() < candidates[j].tree.ID()
	})
	result := make([]Harvestable, 0, len(candidates))
	for _, c := range candidates {
		result = append(result, c.tree)
	}
	return result
}

// ReleaseBy drops any reservation held by the given agent.
func (m *TreeManager) ReleaseBy(agentID string) {
	for _, t := range m.trees {
		if t.Harvester() == agentID {
			t.ReleaseHarvester()
		}
	}
}
