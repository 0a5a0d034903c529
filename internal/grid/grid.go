// Package grid owns the walkability matrix shared by the pathfinder and the
// scene. The base collision layer comes from the tile map; buildings and
// blocking resource entities are overlaid on every rebuild.
package grid

import (
	"bytes"
	"fmt"
)

// Tile identifies a cell in grid coordinates.
type Tile struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Key returns the quantized form used for blacklist bookkeeping.
func (t Tile) Key() string {
	return fmt.Sprintf("%d,%d", t.X, t.Y)
}

// Snapshot is an immutable walkability matrix. Pathfinding requests capture
// the snapshot current at request time; a rebuild produces a fresh snapshot
// and never mutates one already handed out.
type Snapshot struct {
	cols  int
	rows  int
	cells []uint8
}

// NewSnapshot builds a snapshot from a blocked predicate.
func NewSnapshot(cols, rows int, blocked func(x, y int) bool) *Snapshot {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	s := &Snapshot{cols: cols, rows: rows, cells: make([]uint8, cols*rows)}
	if blocked == nil {
		return s
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if blocked(x, y) {
				s.cells[y*cols+x] = 1
			}
		}
	}
	return s
}

func (s *Snapshot) Cols() int { return s.cols }
func (s *Snapshot) Rows() int { return s.rows }

func (s *Snapshot) InBounds(t Tile) bool {
	return s != nil && t.X >= 0 && t.Y >= 0 && t.X < s.cols && t.Y < s.rows
}

func (s *Snapshot) index(t Tile) int {
	return t.Y*s.cols + t.X
}

// Blocked reports whether the tile is out of bounds or flagged.
func (s *Snapshot) Blocked(t Tile) bool {
	if !s.InBounds(t) {
		return true
	}
	return s.cells[s.index(t)] != 0
}

// Walkable is the inverse of Blocked for in-bounds tiles.
func (s *Snapshot) Walkable(t Tile) bool {
	return s.InBounds(t) && s.cells[s.index(t)] == 0
}

// BlockedCount returns the number of flagged cells.
func (s *Snapshot) BlockedCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, c := range s.cells {
		if c != 0 {
			n++
		}
	}
	return n
}

// Equal compares two snapshots cell by cell.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.cols == other.cols && s.rows == other.rows && bytes.Equal(s.cells, other.cells)
}

func (s *Snapshot) clone() *Snapshot {
	cells := make([]uint8, len(s.cells))
	copy(cells, s.cells)
	return &Snapshot{cols: s.cols, rows: s.rows, cells: cells}
}

// Model owns the base collision snapshot and composes the working snapshot
// from overlay tiles on demand. Rebuild is deterministic and idempotent: the
// same base and overlays always yield an identical matrix.
type Model struct {
	base    *Snapshot
	current *Snapshot
}

// NewModel wraps the immutable base collision snapshot.
func NewModel(base *Snapshot) *Model {
	if base == nil {
		base = NewSnapshot(1, 1, nil)
	}
	return &Model{base: base, current: base.clone()}
}

// Rebuild recomputes the working snapshot: base grid plus every overlay tile
// flagged blocked. Out-of-bounds overlay tiles are ignored.
func (m *Model) Rebuild(overlays ...[]Tile) *Snapshot {
	if m == nil {
		return nil
	}
	next := m.base.clone()
	for _, tiles := range overlays {
		for _, t := range tiles {
			if !next.InBounds(t) {
				continue
			}
			next.cells[next.index(t)] = 1
		}
	}
	m.current = next
	return next
}

// Current returns the most recently rebuilt snapshot.
func (m *Model) Current() *Snapshot {
	if m == nil {
		return nil
	}
	return m.current
}

// Base returns the immutable map-derived collision snapshot.
func (m *Model) Base() *Snapshot {
	if m == nil {
		return nil
	}
	return m.base
}
