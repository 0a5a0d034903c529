package path

import (
	"testing"

	"timberline/core/internal/grid"
)

func openGrid(cols, rows int) *grid.Snapshot {
	return grid.NewSnapshot(cols, rows, nil)
}

func wallGrid(cols, rows int, walls map[grid.Tile]bool) *grid.Snapshot {
	return grid.NewSnapshot(cols, rows, func(x, y int) bool {
		return walls[grid.Tile{X: x, Y: y}]
	})
}

// assertValidPath checks the contract every returned path must honor: no
// blocked tile, every consecutive step 8-adjacent, goal last.
func assertValidPath(t *testing.T, snap *grid.Snapshot, start, goal grid.Tile, tiles []grid.Tile) {
	t.Helper()
	if len(tiles) == 0 {
		t.Fatalf("empty path from %v to %v", start, goal)
	}
	if tiles[len(tiles)-1] != goal {
		t.Fatalf("path ends at %v, want goal %v", tiles[len(tiles)-1], goal)
	}
	prev := start
	for i, tile := range tiles {
		if !snap.Walkable(tile) {
			t.Fatalf("step %d crosses blocked tile %v", i, tile)
		}
		dx := tile.X - prev.X
		dy := tile.Y - prev.Y
		if dx < -1 || dx > 1 || dy < -1 || dy > 1 || (dx == 0 && dy == 0) {
			t.Fatalf("step %d from %v to %v is not 8-adjacent", i, prev, tile)
		}
		prev = tile
	}
}

func TestFindPathStraightLine(t *testing.T) {
	snap := openGrid(10, 10)
	start := grid.Tile{X: 1, Y: 1}
	goal := grid.Tile{X: 6, Y: 1}
	tiles, ok := FindPath(snap, start, goal, 0)
	if !ok {
		t.Fatalf("expected path")
	}
	assertValidPath(t, snap, start, goal, tiles)
	if len(tiles) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(tiles))
	}
	if tiles[0] == start {
		t.Fatalf("path must exclude the start tile")
	}
}

func TestFindPathAroundWall(t *testing.T) {
	walls := map[grid.Tile]bool{}
	for y := 0; y < 4; y++ {
		walls[grid.Tile{X: 3, Y: y}] = true
	}
	snap := wallGrid(8, 5, walls)
	start := grid.Tile{X: 1, Y: 1}
	goal := grid.Tile{X: 6, Y: 1}
	tiles, ok := FindPath(snap, start, goal, 0)
	if !ok {
		t.Fatalf("expected path around wall")
	}
	assertValidPath(t, snap, start, goal, tiles)
}

func TestFindPathStartEqualsGoal(t *testing.T) {
	snap := openGrid(4, 4)
	tile := grid.Tile{X: 2, Y: 2}
	tiles, ok := FindPath(snap, tile, tile, 0)
	if !ok {
		t.Fatalf("expected immediate success")
	}
	if tiles == nil {
		t.Fatalf("expected empty non-nil path")
	}
	if len(tiles) != 0 {
		t.Fatalf("expected zero steps, got %d", len(tiles))
	}
}

func TestFindPathUnreachable(t *testing.T) {
	walls := map[grid.Tile]bool{}
	for y := 0; y < 5; y++ {
		walls[grid.Tile{X: 2, Y: y}] = true
	}
	snap := wallGrid(5, 5, walls)
	tiles, ok := FindPath(snap, grid.Tile{X: 0, Y: 0}, grid.Tile{X: 4, Y: 4}, 0)
	if ok || tiles != nil {
		t.Fatalf("expected (nil,false) for unreachable goal, got (%v,%v)", tiles, ok)
	}
}

func TestFindPathBlockedEndpoints(t *testing.T) {
	walls := map[grid.Tile]bool{{X: 1, Y: 1}: true}
	snap := wallGrid(4, 4, walls)
	if _, ok := FindPath(snap, grid.Tile{X: 0, Y: 0}, grid.Tile{X: 1, Y: 1}, 0); ok {
		t.Fatalf("expected failure for blocked goal")
	}
	if _, ok := FindPath(snap, grid.Tile{X: 1, Y: 1}, grid.Tile{X: 0, Y: 0}, 0); ok {
		t.Fatalf("expected failure for blocked start")
	}
}

func TestFindPathNoCornerCutting(t *testing.T) {
	// The diagonal from (0,0) to (1,1) would cut the corner between the two
	// blocked orthogonal neighbors; the path must go around instead.
	walls := map[grid.Tile]bool{{X: 1, Y: 0}: true, {X: 0, Y: 1}: true}
	snap := wallGrid(4, 4, walls)
	start := grid.Tile{X: 0, Y: 0}
	goal := grid.Tile{X: 2, Y: 2}
	tiles, ok := FindPath(snap, start, goal, 0)
	if ok {
		prev := start
		for _, tile := range tiles {
			dx := tile.X - prev.X
			dy := tile.Y - prev.Y
			if dx != 0 && dy != 0 {
				horiz := grid.Tile{X: prev.X + dx, Y: prev.Y}
				vert := grid.Tile{X: prev.X, Y: prev.Y + dy}
				if !snap.Walkable(horiz) || !snap.Walkable(vert) {
					t.Fatalf("diagonal %v -> %v cuts a blocked corner", prev, tile)
				}
			}
			prev = tile
		}
		return
	}
	// Fully sealed start is also acceptable only if no legal route exists,
	// which is not the case on this grid.
	t.Fatalf("expected a path that avoids the corner")
}

func TestFindPathIterationBudget(t *testing.T) {
	// A tiny budget on a large open grid must give up rather than stall.
	snap := openGrid(64, 64)
	if _, ok := FindPath(snap, grid.Tile{X: 0, Y: 0}, grid.Tile{X: 63, Y: 63}, 4); ok {
		t.Fatalf("expected budget exhaustion")
	}
}
