package state

import "timberline/core/internal/grid"

// Animation keys shared by the player and workers. The rendering layer maps
// these to sprite playback; the core only selects them.
const (
	AnimIdle    = "idle"
	AnimWalk    = "walk"
	AnimHarvest = "harvest"
	AnimDeposit = "deposit"
)

// MobileState tracks position and path-following for a single agent. An
// agent is either idle (no path, zero velocity) or following (cursor < len).
type MobileState struct {
	Pos       Vec2
	Path      []grid.Tile
	PathIndex int
	Speed     float64
	FlipX     bool
	Animation string
}

// Following reports whether a non-exhausted path is installed.
func (m *MobileState) Following() bool {
	return m != nil && len(m.Path) > 0 && m.PathIndex < len(m.Path)
}

// ClearPath discards the active path and resets the cursor.
func (m *MobileState) ClearPath() {
	if m == nil {
		return
	}
	m.Path = nil
	m.PathIndex = 0
}
