package world

import (
	"timberline/core/internal/grid"
	"timberline/core/internal/state"
)

// BuildingTemplate is the injected configuration for one placeable type:
// footprint tiles relative to the placement origin (derived from the
// template map's colliding tiles) and storage capacities, if any.
type BuildingTemplate struct {
	Type       string
	Footprint  []grid.Tile
	Capacities map[ResourceType]int
	// Cost is charged against the scene's resource pool at placement.
	Cost map[ResourceType]int
}

// Building is a placed structure. Its footprint tiles are blocked in the
// walkability grid; buildings with capacities also act as deposit targets.
type Building struct {
	id       string
	typ      string
	origin   grid.Tile
	tiles    []grid.Tile
	storage  *Storage
	template *BuildingTemplate
}

func newBuilding(id string, template *BuildingTemplate, origin grid.Tile) *Building {
	tiles := make([]grid.Tile, 0, len(template.Footprint))
	for _, t := range template.Footprint {
		tiles = append(tiles, grid.Tile{X: origin.X + t.X, Y: origin.Y + t.Y})
	}
	var storage *Storage
	if len(template.Capacities) > 0 {
		storage = NewStorage(template.Capacities)
	}
	return &Building{
		id:       id,
		typ:      template.Type,
		origin:   origin,
		tiles:    tiles,
		storage:  storage,
		template: template,
	}
}

func (b *Building) ID() string        { return b.id }
func (b *Building) Type() string      { return b.typ }
func (b *Building) Origin() grid.Tile { return b.origin }

// Position returns the world-space center of the origin tile.
func (b *Building) Position() state.Vec2 {
	return TileCenter(b.origin)
}

// Footprint returns the world-grid tiles this building blocks.
func (b *Building) Footprint() []grid.Tile {
	return b.tiles
}

// Storage returns the building's stock, or nil for non-storage types.
func (b *Building) Storage() *Storage {
	return b.storage
}
