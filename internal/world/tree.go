package world

import (
	"timberline/core/internal/grid"
	"timberline/core/internal/state"
)

// TreeParams tunes one tree instance. Zero fields fall back to the scene's
// configured defaults before construction.
type TreeParams struct {
	MaxHealth    int
	DamagePerHit int
	YieldAmount  int
	RespawnTicks uint64
	HealTicks    uint64
	HitGateTicks uint64
}

// Tree is a depletable, regenerating harvest target. While destroyed it is
// non-interactive but its stump still blocks the tile, so destruction does
// not change walkability; respawn still triggers a grid rebuild so the
// scene re-derives any dependent state.
type Tree struct {
	id     string
	pos    state.Vec2
	tile   grid.Tile
	params TreeParams

	health       int
	destroyed    bool
	beingHit     bool
	harvester    string
	respawnAt    uint64
	healAt       uint64
	hitGateUntil uint64
}

// NewTree spawns a tree at the given world position.
func NewTree(id string, pos state.Vec2, params TreeParams) *Tree {
	return &Tree{
		id:     id,
		pos:    pos,
		tile:   TileAt(pos),
		params: params,
		health: params.MaxHealth,
	}
}

func (t *Tree) ID() string                 { return t.id }
func (t *Tree) Position() state.Vec2       { return t.pos }
func (t *Tree) Tile() grid.Tile            { return t.tile }
func (t *Tree) ResourceType() ResourceType { return ResourceWood }
func (t *Tree) Health() int                { return t.health }
func (t *Tree) MaxHealth() int             { return t.params.MaxHealth }
func (t *Tree) IsDestroyed() bool          { return t.destroyed }
func (t *Tree) IsBeingHit() bool           { return t.beingHit }
func (t *Tree) Yield() int                 { return t.params.YieldAmount }

func (t *Tree) Harvester() string { return t.harvester }

// BlocksPath is true for standing trees and stumps alike.
func (t *Tree) BlocksPath() bool { return true }

// IsAvailableForHarvest reports whether requester could claim the tree: not
// destroyed, not mid-hit by someone else, and unreserved or reserved by the
// requester itself.
func (t *Tree) IsAvailableForHarvest(requester string) bool {
	if t == nil || t.destroyed {
		return false
	}
	if t.beingHit && t.harvester != requester {
		return false
	}
	return t.harvester == "" || t.harvester == requester
}

// SetHarvester claims the reservation. At most one holder at a time; the
// current holder may re-claim.
func (t *Tree) SetHarvester(requester string) bool {
	if t == nil || t.destroyed || requester == "" {
		return false
	}
	if t.harvester != "" && t.harvester != requester {
		return false
	}
	t.harvester = requester
	return true
}

// ReleaseHarvester clears the reservation unconditionally.
func (t *Tree) ReleaseHarvester() {
	if t == nil {
		return
	}
	t.harvester = ""
	t.beingHit = false
}

// WorkerHarvest applies one gated hit. Hits are spaced by HitGateTicks (the
// action-cycle length); a gated call is a no-op. On destruction the yield is
// returned once and the reservation drops.
func (t *Tree) WorkerHarvest(tick uint64) (int, bool) {
	if t == nil || t.destroyed {
		return 0, false
	}
	if tick < t.hitGateUntil {
		return 0, false
	}
	t.hitGateUntil = tick + t.params.HitGateTicks
	t.beingHit = true
	t.healAt = tick + t.params.HealTicks

	t.health -= t.params.DamagePerHit
	if t.health > 0 {
		return 0, false
	}

	t.health = 0
	t.destroyed = true
	t.beingHit = false
	t.harvester = ""
	t.respawnAt = tick + t.params.RespawnTicks
	return t.params.YieldAmount, true
}

// Interrupt cancels an in-progress hit sequence without destroying the tree.
// The reservation is released and the healing grace period starts.
func (t *Tree) Interrupt(tick uint64) {
	if t == nil || t.destroyed {
		return
	}
	t.beingHit = false
	t.harvester = ""
	t.healAt = tick + t.params.HealTicks
}

// TreeEvent reports a lifecycle transition from Update.
type TreeEvent int

const (
	TreeEventNone TreeEvent = iota
	TreeEventRespawned
	TreeEventHealed
)

// Update processes timed transitions: respawn after destruction and
// heal-to-full after an interrupted hit sequence.
func (t *Tree) Update(tick uint64) TreeEvent {
	if t == nil {
		return TreeEventNone
	}
	if t.destroyed {
		if tick >= t.respawnAt {
			t.destroyed = false
			t.health = t.params.MaxHealth
			t.beingHit = false
			t.harvester = ""
			t.hitGateUntil = 0
			return TreeEventRespawned
		}
		return TreeEventNone
	}
	if !t.beingHit && t.health < t.params.MaxHealth && tick >= t.healAt {
		t.health = t.params.MaxHealth
		return TreeEventHealed
	}
	return TreeEventNone
}
