package grid

import "testing"

func TestSnapshotBounds(t *testing.T) {
	snap := NewSnapshot(4, 3, func(x, y int) bool { return x == 1 && y == 1 })
	cases := []struct {
		tile     Tile
		walkable bool
	}{
		{Tile{X: 0, Y: 0}, true},
		{Tile{X: 1, Y: 1}, false},
		{Tile{X: 3, Y: 2}, true},
		{Tile{X: 4, Y: 0}, false},
		{Tile{X: -1, Y: 0}, false},
		{Tile{X: 0, Y: 3}, false},
	}
	for _, tc := range cases {
		if got := snap.Walkable(tc.tile); got != tc.walkable {
			t.Fatalf("Walkable(%v) = %v, want %v", tc.tile, got, tc.walkable)
		}
	}
}

func TestRebuildOverlaysBase(t *testing.T) {
	base := NewSnapshot(5, 5, func(x, y int) bool { return x == 0 })
	model := NewModel(base)
	snap := model.Rebuild([]Tile{{X: 2, Y: 2}}, []Tile{{X: 3, Y: 3}})

	if snap.Walkable(Tile{X: 0, Y: 1}) {
		t.Fatalf("base collision lost after rebuild")
	}
	if snap.Walkable(Tile{X: 2, Y: 2}) || snap.Walkable(Tile{X: 3, Y: 3}) {
		t.Fatalf("overlay tiles not blocked")
	}
	if !snap.Walkable(Tile{X: 2, Y: 3}) {
		t.Fatalf("unrelated tile blocked")
	}
}

func TestRebuildIdempotent(t *testing.T) {
	base := NewSnapshot(8, 8, func(x, y int) bool { return y == 7 })
	model := NewModel(base)
	overlay := []Tile{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 6, Y: 0}}

	first := model.Rebuild(overlay)
	second := model.Rebuild(overlay)
	if !first.Equal(second) {
		t.Fatalf("identical inputs produced different snapshots")
	}
}

func TestRebuildDoesNotMutateEarlierSnapshots(t *testing.T) {
	base := NewSnapshot(4, 4, nil)
	model := NewModel(base)

	before := model.Rebuild(nil)
	after := model.Rebuild([]Tile{{X: 1, Y: 1}})

	if !before.Walkable(Tile{X: 1, Y: 1}) {
		t.Fatalf("earlier snapshot mutated by later rebuild")
	}
	if after.Walkable(Tile{X: 1, Y: 1}) {
		t.Fatalf("later rebuild missing overlay")
	}
}

func TestRebuildRemovingOverlayUnblocks(t *testing.T) {
	base := NewSnapshot(4, 4, nil)
	model := NewModel(base)

	blocked := model.Rebuild([]Tile{{X: 2, Y: 1}})
	if blocked.Walkable(Tile{X: 2, Y: 1}) {
		t.Fatalf("overlay tile not blocked")
	}
	cleared := model.Rebuild(nil)
	if !cleared.Walkable(Tile{X: 2, Y: 1}) {
		t.Fatalf("tile still blocked after overlay removed")
	}
}

func TestTileKey(t *testing.T) {
	if got := (Tile{X: -3, Y: 12}).Key(); got != "-3,12" {
		t.Fatalf("Key() = %q", got)
	}
}
