package world

import (
	"math"

	"timberline/core/internal/grid"
	"timberline/core/internal/state"
)

// arriveEpsilon is the world-space distance at which a waypoint counts as
// reached.
const arriveEpsilon = 2.0

// TileCenter returns the world-space center of a tile.
func TileCenter(t grid.Tile) state.Vec2 {
	return state.Vec2{
		X: (float64(t.X) + 0.5) * TileSize,
		Y: (float64(t.Y) + 0.5) * TileSize,
	}
}

// TileAt quantizes a world position to its containing tile.
func TileAt(pos state.Vec2) grid.Tile {
	return grid.Tile{
		X: int(math.Floor(pos.X / TileSize)),
		Y: int(math.Floor(pos.Y / TileSize)),
	}
}

// Mobile is the shared movement base for the player agent and workers: path
// following with arrival detection and idle/walk animation selection.
type Mobile struct {
	id string
	state.MobileState
}

// NewMobile spawns an agent at a world position.
func NewMobile(id string, pos state.Vec2, speed float64) *Mobile {
	return &Mobile{
		id: id,
		MobileState: state.MobileState{
			Pos:       pos,
			Speed:     speed,
			Animation: state.AnimIdle,
		},
	}
}

func (m *Mobile) ID() string {
	return m.id
}

// Position returns the continuous world position.
func (m *Mobile) Position() state.Vec2 {
	return m.Pos
}

// Tile returns the agent's current grid cell.
func (m *Mobile) Tile() grid.Tile {
	return TileAt(m.Pos)
}

// SetPath installs a path. The first waypoint is dropped when it equals the
// agent's current tile so the agent never takes a zero-length first step.
// An empty path leaves the agent idle.
func (m *Mobile) SetPath(tiles []grid.Tile) {
	if m == nil {
		return
	}
	if len(tiles) > 0 && tiles[0] == m.Tile() {
		tiles = tiles[1:]
	}
	if len(tiles) == 0 {
		m.ClearPath()
		m.Animation = state.AnimIdle
		return
	}
	m.Path = tiles
	m.PathIndex = 0
}

// Stop discards the active path and idles the agent.
func (m *Mobile) Stop() {
	if m == nil {
		return
	}
	m.ClearPath()
	m.Animation = state.AnimIdle
}

// Update advances the agent along its path for one frame and reports whether
// the path was exhausted this frame.
func (m *Mobile) Update(dt float64) bool {
	if m == nil || !m.Following() {
		if m != nil && m.Animation == state.AnimWalk {
			m.Animation = state.AnimIdle
		}
		return false
	}

	for m.PathIndex < len(m.Path) {
		target := TileCenter(m.Path[m.PathIndex])
		dx := target.X - m.Pos.X
		dy := target.Y - m.Pos.Y
		dist := math.Hypot(dx, dy)

		if dist < arriveEpsilon {
			m.PathIndex++
			continue
		}

		step := m.Speed * dt
		if step >= dist {
			m.Pos = target
			m.PathIndex++
			continue
		}

		m.Pos.X += dx / dist * step
		m.Pos.Y += dy / dist * step
		m.Animation = state.AnimWalk
		if dx != 0 {
			m.FlipX = dx < 0
		}
		return false
	}

	m.ClearPath()
	m.Animation = state.AnimIdle
	return true
}

// FaceToward flips the agent toward a world position without moving it.
func (m *Mobile) FaceToward(target state.Vec2) {
	if m == nil {
		return
	}
	if dx := target.X - m.Pos.X; dx != 0 {
		m.FlipX = dx < 0
	}
}
