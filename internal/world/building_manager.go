package world

import (
	"context"
	"errors"
	"fmt"
	"math"

	"timberline/core/internal/grid"
	"timberline/core/internal/state"
	"timberline/core/logging"
	"timberline/core/logging/lifecycle"
)

var (
	// ErrUnknownBuilding means no template exists for the requested type.
	// Treated as fatal for the instantiation: a structure without a template
	// would be silently uncollidable.
	ErrUnknownBuilding = errors.New("unknown building type")
	// ErrPlacementBlocked means the footprint overlaps an occupied tile.
	ErrPlacementBlocked = errors.New("placement blocked")
)

// BuildingManager owns the placed-building collection. Templates are an
// injected read-only table; membership changes are reported to the scene so
// it can rebuild the grid.
type BuildingManager struct {
	templates map[string]*BuildingTemplate
	buildings []*Building
	nextID    uint64
	pub       logging.Publisher
}

// NewBuildingManager constructs a manager over the given template table.
func NewBuildingManager(templates map[string]*BuildingTemplate, pub logging.Publisher) *BuildingManager {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	copied := make(map[string]*BuildingTemplate, len(templates))
	for name, tpl := range templates {
		copied[name] = tpl
	}
	return &BuildingManager{templates: copied, pub: pub}
}

// Template returns the registered template for a type.
func (m *BuildingManager) Template(typ string) (*BuildingTemplate, bool) {
	tpl, ok := m.templates[typ]
	return tpl, ok
}

// Place instantiates a building with its origin at the given tile. The
// footprint must lie inside the grid and touch no blocked tile of the
// supplied snapshot.
func (m *BuildingManager) Place(tick uint64, typ string, origin grid.Tile, snap *grid.Snapshot) (*Building, error) {
	tpl, ok := m.templates[typ]
	if !ok {
		lifecycle.PlacementRejected(context.Background(), m.pub, tick, lifecycle.PlacementRejectedPayload{Type: typ, Reason: "unknown type"})
		return nil, fmt.Errorf("place %q: %w", typ, ErrUnknownBuilding)
	}
	for _, rel := range tpl.Footprint {
		abs := grid.Tile{X: origin.X + rel.X, Y: origin.Y + rel.Y}
		if snap.Blocked(abs) {
			lifecycle.PlacementRejected(context.Background(), m.pub, tick, lifecycle.PlacementRejectedPayload{Type: typ, Reason: "blocked"})
			return nil, fmt.Errorf("place %q at %s: %w", typ, abs.Key(), ErrPlacementBlocked)
		}
	}

	m.nextID++
	b := newBuilding(fmt.Sprintf("building-%d", m.nextID), tpl, origin)
	m.buildings = append(m.buildings, b)

	pos := b.Position()
	lifecycle.BuildingPlaced(context.Background(), m.pub, tick,
		logging.EntityRef{ID: b.ID(), Kind: logging.EntityKindBuilding},
		lifecycle.BuildingPayload{Type: typ, X: pos.X, Y: pos.Y})
	return b, nil
}

// Remove deletes one building by ID and reports whether it existed.
func (m *BuildingManager) Remove(tick uint64, id string) bool {
	for i, b := range m.buildings {
		if b.ID() != id {
			continue
		}
		m.buildings = append(m.buildings[:i], m.buildings[i+1:]...)
		pos := b.Position()
		lifecycle.BuildingRemoved(context.Background(), m.pub, tick,
			logging.EntityRef{ID: id, Kind: logging.EntityKindBuilding},
			lifecycle.BuildingPayload{Type: b.Type(), X: pos.X, Y: pos.Y})
		return true
	}
	return false
}

// Clear removes every building.
func (m *BuildingManager) Clear(tick uint64) int {
	count := len(m.buildings)
	m.buildings = nil
	if count > 0 {
		lifecycle.BuildingsCleared(context.Background(), m.pub, tick, count)
	}
	return count
}

// Buildings returns the collection in placement order.
func (m *BuildingManager) Buildings() []*Building {
	return m.buildings
}

// Contains reports whether the building is still registered. Workers use it
// to detect a deposit target removed while they were en route.
func (m *BuildingManager) Contains(b *Building) bool {
	if b == nil {
		return false
	}
	for _, other := range m.buildings {
		if other == b {
			return true
		}
	}
	return false
}

// BlockedTiles aggregates every footprint tile for grid composition.
func (m *BuildingManager) BlockedTiles() []grid.Tile {
	tiles := make([]grid.Tile, 0)
	for _, b := range m.buildings {
		tiles = append(tiles, b.Footprint()...)
	}
	return tiles
}

// NearestStorage finds the closest building that accepts the resource type,
// by Euclidean distance to the building position. Buildings whose origin
// tile matches the exclude predicate are skipped, so a worker that failed to
// route to one falls through to the next candidate (or the fallback point).
func (m *BuildingManager) NearestStorage(pos state.Vec2, t ResourceType, exclude func(grid.Tile) bool) *Building {
	var best *Building
	bestDist := math.MaxFloat64
	for _, b := range m.buildings {
		storage := b.Storage()
		if storage == nil || !storage.Accepts(t) {
			continue
		}
		if exclude != nil && exclude(b.Origin()) {
			continue
		}
		dist := pos.DistanceTo(b.Position())
		if dist < bestDist {
			bestDist = dist
			best = b
		}
	}
	return best
}

// Records snapshots the collection for persistence.
func (m *BuildingManager) Records() []BuildingRecord {
	records := make([]BuildingRecord, 0, len(m.buildings))
	for _, b := range m.buildings {
		pos := b.Position()
		records = append(records, BuildingRecord{Type: b.Type(), X: pos.X, Y: pos.Y})
	}
	return records
}

// Restore replays persisted records through Place. Entries with unknown
// types or non-finite coordinates are filtered, not fatal; the count of
// discarded entries is reported.
func (m *BuildingManager) Restore(tick uint64, records []BuildingRecord, snap func() *grid.Snapshot, placed func()) int {
	discarded := 0
	for _, rec := range records {
		pos := state.Vec2{X: rec.X, Y: rec.Y}
		if !pos.Valid() {
			discarded++
			continue
		}
		if _, ok := m.templates[rec.Type]; !ok {
			discarded++
			continue
		}
		if _, err := m.Place(tick, rec.Type, TileAt(pos), snap()); err != nil {
			discarded++
			continue
		}
		if placed != nil {
			placed()
		}
	}
	if discarded > 0 {
		lifecycle.StateFiltered(context.Background(), m.pub, tick, lifecycle.StateFilteredPayload{
			Document:  "buildings",
			Discarded: discarded,
			Kept:      len(m.buildings),
		})
	}
	return discarded
}
