package sim

import (
	"timberline/core/internal/state"
	"timberline/core/internal/world"
)

// Core is the simulation the loop drives: commands applied at the tick
// boundary, then one fixed step.
type Core interface {
	Apply(tick uint64, cmds []Command)
	Step(tick uint64, dt float64)
	Snapshot() Snapshot
}

// Snapshot is the wire-facing view of the world broadcast after each tick.
type Snapshot struct {
	Tick      uint64         `json:"tick"`
	Player    AgentView      `json:"player"`
	Workers   []WorkerView   `json:"workers"`
	Trees     []TreeView     `json:"trees"`
	Buildings []BuildingView `json:"buildings"`
	Resources map[string]int `json:"resources"`
}

// AgentView is the shared mobile-agent projection.
type AgentView struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Animation string  `json:"animation"`
	FlipX     bool    `json:"flipX"`
}

// WorkerView extends the agent projection with behavior state.
type WorkerView struct {
	AgentView
	Type      string         `json:"type"`
	Phase     string         `json:"phase"`
	Inventory map[string]int `json:"inventory"`
}

// TreeView projects a harvestable's visible state.
type TreeView struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Health    int     `json:"health"`
	MaxHealth int     `json:"maxHealth"`
	Destroyed bool    `json:"destroyed"`
}

// BuildingView projects a placed building and its stock.
type BuildingView struct {
	ID     string                 `json:"id"`
	Type   string                 `json:"type"`
	X      int                    `json:"x"`
	Y      int                    `json:"y"`
	Stocks map[string]world.Stock `json:"stocks,omitempty"`
}

// SceneCore adapts a world.Scene to the loop's Core contract. Commands map
// one-to-one onto scene operations; failures are already logged inside the
// scene and never abort the tick.
type SceneCore struct {
	scene *world.Scene
}

func NewSceneCore(scene *world.Scene) *SceneCore {
	return &SceneCore{scene: scene}
}

func (c *SceneCore) Scene() *world.Scene { return c.scene }

func (c *SceneCore) Apply(tick uint64, cmds []Command) {
	for _, cmd := range cmds {
		switch cmd.Type {
		case CommandMoveTo:
			if cmd.MoveTo != nil {
				c.scene.MovePlayerTo(state.Vec2{X: cmd.MoveTo.X, Y: cmd.MoveTo.Y})
			}
		case CommandChop:
			if cmd.Chop != nil {
				c.scene.PlayerChop(cmd.Chop.TreeID)
			}
		case CommandPlaceBuilding:
			if cmd.PlaceBuilding != nil {
				_, _ = c.scene.PlaceBuilding(cmd.PlaceBuilding.Type,
					state.Vec2{X: cmd.PlaceBuilding.X, Y: cmd.PlaceBuilding.Y})
			}
		case CommandClearBuildings:
			c.scene.ClearBuildings()
		case CommandSpawnWorker:
			if cmd.SpawnWorker != nil {
				var hint *state.Vec2
				if cmd.SpawnWorker.X != nil && cmd.SpawnWorker.Y != nil {
					hint = &state.Vec2{X: *cmd.SpawnWorker.X, Y: *cmd.SpawnWorker.Y}
				}
				c.scene.SpawnWorker(cmd.SpawnWorker.Type, hint)
			}
		case CommandRemoveWorker:
			if cmd.RemoveWorker != nil {
				c.scene.RemoveWorker(cmd.RemoveWorker.WorkerID)
			}
		}
	}
}

func (c *SceneCore) Step(tick uint64, dt float64) {
	c.scene.Update(tick, dt)
}

func (c *SceneCore) Snapshot() Snapshot {
	scene := c.scene
	player := scene.Player()
	snap := Snapshot{
		Tick: scene.Tick(),
		Player: AgentView{
			ID:        player.ID(),
			X:         player.Pos.X,
			Y:         player.Pos.Y,
			Animation: player.Animation,
			FlipX:     player.FlipX,
		},
		Resources: make(map[string]int),
	}
	for t, n := range scene.Resources() {
		snap.Resources[string(t)] = n
	}
	for _, w := range scene.Workers().Workers() {
		inv := make(map[string]int)
		for t, n := range w.Inventory().Contents() {
			inv[string(t)] = n
		}
		snap.Workers = append(snap.Workers, WorkerView{
			AgentView: AgentView{
				ID:        w.ID(),
				X:         w.Pos.X,
				Y:         w.Pos.Y,
				Animation: w.Animation,
				FlipX:     w.FlipX,
			},
			Type:      w.Type(),
			Phase:     w.Phase().String(),
			Inventory: inv,
		})
	}
	for _, t := range scene.Trees().Trees() {
		pos := t.Position()
		snap.Trees = append(snap.Trees, TreeView{
			ID:        t.ID(),
			X:         pos.X,
			Y:         pos.Y,
			Health:    t.Health(),
			MaxHealth: t.MaxHealth(),
			Destroyed: t.IsDestroyed(),
		})
	}
	for _, b := range scene.Buildings().Buildings() {
		view := BuildingView{
			ID:   b.ID(),
			Type: b.Type(),
			X:    b.Origin().X,
			Y:    b.Origin().Y,
		}
		if storage := b.Storage(); storage != nil {
			view.Stocks = make(map[string]world.Stock)
			for t, stock := range storage.Stocks() {
				view.Stocks[string(t)] = stock
			}
		}
		snap.Buildings = append(snap.Buildings, view)
	}
	return snap
}
