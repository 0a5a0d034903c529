package world

import (
	"errors"
	"math"
	"testing"

	"timberline/core/internal/grid"
)

func testTemplates() map[string]*BuildingTemplate {
	return map[string]*BuildingTemplate{
		"storage": {
			Type:       "storage",
			Footprint:  []grid.Tile{{X: 0, Y: 0}, {X: 1, Y: 0}},
			Capacities: map[ResourceType]int{ResourceWood: 20},
		},
		"marker": {
			Type:      "marker",
			Footprint: []grid.Tile{{X: 0, Y: 0}},
		},
	}
}

func TestPlaceAndRemove(t *testing.T) {
	m := NewBuildingManager(testTemplates(), nil)
	snap := grid.NewSnapshot(20, 20, nil)

	b, err := m.Place(1, "storage", grid.Tile{X: 5, Y: 5}, snap)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if b.Storage() == nil {
		t.Fatalf("storage building has no stock")
	}
	if got := m.BlockedTiles(); len(got) != 2 {
		t.Fatalf("blocked tiles=%v, want the 2-tile footprint", got)
	}
	if !m.Contains(b) {
		t.Fatalf("Contains false for a placed building")
	}

	if !m.Remove(2, b.ID()) {
		t.Fatalf("remove failed")
	}
	if m.Contains(b) {
		t.Fatalf("Contains true after removal")
	}
	if m.Remove(2, b.ID()) {
		t.Fatalf("second remove of the same id succeeded")
	}
}

func TestPlaceUnknownType(t *testing.T) {
	m := NewBuildingManager(testTemplates(), nil)
	snap := grid.NewSnapshot(20, 20, nil)

	_, err := m.Place(1, "fortress", grid.Tile{X: 5, Y: 5}, snap)
	if !errors.Is(err, ErrUnknownBuilding) {
		t.Fatalf("err=%v, want ErrUnknownBuilding", err)
	}
}

func TestPlaceBlockedFootprint(t *testing.T) {
	m := NewBuildingManager(testTemplates(), nil)
	// The second footprint tile lands on a blocked cell.
	snap := grid.NewSnapshot(20, 20, func(x, y int) bool { return x == 6 && y == 5 })

	_, err := m.Place(1, "storage", grid.Tile{X: 5, Y: 5}, snap)
	if !errors.Is(err, ErrPlacementBlocked) {
		t.Fatalf("err=%v, want ErrPlacementBlocked", err)
	}
	if len(m.Buildings()) != 0 {
		t.Fatalf("rejected placement left a building behind")
	}
}

func TestPlaceOutOfBounds(t *testing.T) {
	m := NewBuildingManager(testTemplates(), nil)
	snap := grid.NewSnapshot(20, 20, nil)

	if _, err := m.Place(1, "storage", grid.Tile{X: 19, Y: 5}, snap); !errors.Is(err, ErrPlacementBlocked) {
		t.Fatalf("err=%v for footprint past the edge, want ErrPlacementBlocked", err)
	}
}

func TestNearestStorage(t *testing.T) {
	m := NewBuildingManager(testTemplates(), nil)
	snap := grid.NewSnapshot(30, 30, nil)
	far, _ := m.Place(1, "storage", grid.Tile{X: 20, Y: 20}, snap)
	near, _ := m.Place(1, "storage", grid.Tile{X: 6, Y: 6}, snap)
	m.Place(1, "marker", grid.Tile{X: 2, Y: 2}, snap)

	got := m.NearestStorage(TileCenter(grid.Tile{X: 4, Y: 4}), ResourceWood, nil)
	if got != near {
		t.Fatalf("nearest=%v, want the closer storage", got)
	}

	// No building accepts an unconfigured type; markers have no storage.
	if got := m.NearestStorage(TileCenter(grid.Tile{X: 4, Y: 4}), ResourceType("stone"), nil); got != nil {
		t.Fatalf("found storage for an unaccepted type: %v", got)
	}

	// An exclude predicate over the origin tile skips the nearest candidate
	// and yields the next one instead of nothing.
	skipNear := func(t grid.Tile) bool { return t == near.Origin() }
	if got := m.NearestStorage(TileCenter(grid.Tile{X: 4, Y: 4}), ResourceWood, skipNear); got != far {
		t.Fatalf("nearest with exclusion=%v, want the farther storage", got)
	}
}

func TestClear(t *testing.T) {
	m := NewBuildingManager(testTemplates(), nil)
	snap := grid.NewSnapshot(20, 20, nil)
	m.Place(1, "storage", grid.Tile{X: 5, Y: 5}, snap)
	m.Place(1, "marker", grid.Tile{X: 10, Y: 10}, snap)

	if got := m.Clear(2); got != 2 {
		t.Fatalf("cleared %d, want 2", got)
	}
	if len(m.Buildings()) != 0 {
		t.Fatalf("buildings remain after Clear")
	}
	if got := m.Clear(3); got != 0 {
		t.Fatalf("second Clear removed %d", got)
	}
}

func TestBuildingRestoreFiltersInvalid(t *testing.T) {
	m := NewBuildingManager(testTemplates(), nil)
	model := grid.NewModel(grid.NewSnapshot(20, 20, nil))
	rebuilds := 0
	placed := func() {
		model.Rebuild(m.BlockedTiles())
		rebuilds++
	}

	pos := TileCenter(grid.Tile{X: 5, Y: 5})
	overlap := TileCenter(grid.Tile{X: 6, Y: 5})
	records := []BuildingRecord{
		{Type: "storage", X: pos.X, Y: pos.Y},
		{Type: "fortress", X: pos.X, Y: pos.Y},
		{Type: "storage", X: math.Inf(-1), Y: 0},
		// Overlaps the first building's footprint once it is restored.
		{Type: "storage", X: overlap.X, Y: overlap.Y},
	}
	discarded := m.Restore(1, records, model.Current, placed)

	if discarded != 3 {
		t.Fatalf("discarded=%d, want 3", discarded)
	}
	if len(m.Buildings()) != 1 {
		t.Fatalf("restored %d buildings, want 1", len(m.Buildings()))
	}
	if rebuilds != 1 {
		t.Fatalf("placed callback ran %d times, want 1", rebuilds)
	}
}
