// Package tilemap parses Tiled-style JSON maps: the scene map with its
// collision layers and tree object layer, and building templates, which are
// standalone maps whose colliding tiles become the building footprint.
package tilemap

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"timberline/core/internal/grid"
)

//go:embed schema/tilemap.schema.json
var schemaFS embed.FS

var mapSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	raw, err := schemaFS.ReadFile("schema/tilemap.schema.json")
	if err != nil {
		panic(fmt.Sprintf("tilemap: embedded schema missing: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("tilemap.schema.json", bytes.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("tilemap: schema resource: %v", err))
	}
	schema, err := compiler.Compile("tilemap.schema.json")
	if err != nil {
		panic(fmt.Sprintf("tilemap: schema compile: %v", err))
	}
	return schema
}

// Layer property names carried by authored maps.
const (
	PropHasCollision  = "hasCollision"
	PropIsAbovePlayer = "isAbovePlayer"
	PropDepth         = "depth"
	PropDynamicDepth  = "dynamicDepth"
	PropCollides      = "collides"
)

// Tree object property overrides.
const (
	PropRespawnSeconds = "respawnTime"
	PropYieldAmount    = "yieldAmount"
	PropScale          = "scale"
)

type Property struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value any    `json:"value"`
}

type Object struct {
	ID         int        `json:"id"`
	Name       string     `json:"name,omitempty"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Properties []Property `json:"properties,omitempty"`
}

type Layer struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Data       []int      `json:"data,omitempty"`
	Objects    []Object   `json:"objects,omitempty"`
	Properties []Property `json:"properties,omitempty"`
}

type TilesetTile struct {
	ID         int        `json:"id"`
	Properties []Property `json:"properties,omitempty"`
}

type Tileset struct {
	FirstGID int           `json:"firstgid"`
	Tiles    []TilesetTile `json:"tiles,omitempty"`
}

type Map struct {
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	TileWidth  int       `json:"tilewidth"`
	TileHeight int       `json:"tileheight"`
	Layers     []Layer   `json:"layers"`
	Tilesets   []Tileset `json:"tilesets,omitempty"`
}

// TreeSpawn is one entry from the tree object layer, with per-instance
// overrides already resolved (zero values mean "use configured default").
type TreeSpawn struct {
	X              float64
	Y              float64
	RespawnSeconds float64
	YieldAmount    int
	Scale          float64
}

// Parse validates the raw JSON against the embedded schema and unmarshals
// it. A schema violation is a fatal asset error for the caller.
func Parse(data []byte) (*Map, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("tilemap: decode: %w", err)
	}
	if err := mapSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("tilemap: schema: %w", err)
	}
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("tilemap: decode: %w", err)
	}
	for _, layer := range m.Layers {
		if layer.Type == "tilelayer" && len(layer.Data) != m.Width*m.Height {
			return nil, fmt.Errorf("tilemap: layer %q has %d cells, want %d", layer.Name, len(layer.Data), m.Width*m.Height)
		}
	}
	return &m, nil
}

func boolProp(props []Property, name string) bool {
	for _, p := range props {
		if p.Name != name {
			continue
		}
		if v, ok := p.Value.(bool); ok {
			return v
		}
	}
	return false
}

func floatProp(props []Property, name string) (float64, bool) {
	for _, p := range props {
		if p.Name != name {
			continue
		}
		switch v := p.Value.(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		}
	}
	return 0, false
}

// tileCollides resolves a gid against the tilesets and reports whether the
// source tile carries a collides property.
func (m *Map) tileCollides(gid int) bool {
	if gid <= 0 {
		return false
	}
	for i := len(m.Tilesets) - 1; i >= 0; i-- {
		ts := m.Tilesets[i]
		if gid < ts.FirstGID {
			continue
		}
		local := gid - ts.FirstGID
		for _, tile := range ts.Tiles {
			if tile.ID == local {
				return boolProp(tile.Properties, PropCollides)
			}
		}
		return false
	}
	return false
}

// CollisionSnapshot computes the base walkability grid: any tile occupied in
// a hasCollision layer, or whose tileset tile collides, is blocked.
func (m *Map) CollisionSnapshot() *grid.Snapshot {
	return grid.NewSnapshot(m.Width, m.Height, func(x, y int) bool {
		idx := y*m.Width + x
		for _, layer := range m.Layers {
			if layer.Type != "tilelayer" || idx >= len(layer.Data) {
				continue
			}
			gid := layer.Data[idx]
			if gid == 0 {
				continue
			}
			if boolProp(layer.Properties, PropHasCollision) {
				return true
			}
			if m.tileCollides(gid) {
				return true
			}
		}
		return false
	})
}

// FootprintTiles returns the map-relative tiles a building template blocks.
// Used when a template map is composed into the world grid at placement.
func (m *Map) FootprintTiles() []grid.Tile {
	tiles := make([]grid.Tile, 0)
	snap := m.CollisionSnapshot()
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if snap.Blocked(grid.Tile{X: x, Y: y}) {
				tiles = append(tiles, grid.Tile{X: x, Y: y})
			}
		}
	}
	return tiles
}

// TreeSpawns reads the tree object layer. Missing layer means no trees, not
// an error.
func (m *Map) TreeSpawns() []TreeSpawn {
	spawns := make([]TreeSpawn, 0)
	for _, layer := range m.Layers {
		if layer.Type != "objectgroup" || !strings.EqualFold(layer.Name, "trees") {
			continue
		}
		for _, obj := range layer.Objects {
			spawn := TreeSpawn{X: obj.X, Y: obj.Y}
			if v, ok := floatProp(obj.Properties, PropRespawnSeconds); ok {
				spawn.RespawnSeconds = v
			}
			if v, ok := floatProp(obj.Properties, PropYieldAmount); ok {
				spawn.YieldAmount = int(v)
			}
			if v, ok := floatProp(obj.Properties, PropScale); ok {
				spawn.Scale = v
			}
			spawns = append(spawns, spawn)
		}
	}
	return spawns
}
