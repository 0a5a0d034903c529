// Package config loads the tuning file. Timings are expressed in ticks so
// the simulation stays deterministic under test; Load applies defaults for
// anything the file omits and validates the result.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	TickRate int    `yaml:"tick_rate"`
	MapPath  string `yaml:"map_path"`

	Player    PlayerConfig              `yaml:"player"`
	Worker    WorkerConfig              `yaml:"worker"`
	Tree      TreeConfig                `yaml:"tree"`
	Paths     PathConfig                `yaml:"paths"`
	Buildings map[string]BuildingConfig `yaml:"buildings"`
	Gateway   GatewayConfig             `yaml:"gateway"`
	Session   SessionConfig             `yaml:"session"`
	Logging   LoggingConfig             `yaml:"logging"`
}

// BuildingConfig declares one placeable type. Template points at a Tiled
// map whose colliding tiles form the footprint; without one the footprint
// is the single origin tile.
type BuildingConfig struct {
	Template   string         `yaml:"template,omitempty"`
	Cost       map[string]int `yaml:"cost,omitempty"`
	Capacities map[string]int `yaml:"capacities,omitempty"`
}

type PlayerConfig struct {
	MoveSpeed float64 `yaml:"move_speed"`
}

type WorkerConfig struct {
	MoveSpeed         float64 `yaml:"move_speed"`
	Capacity          int     `yaml:"capacity"`
	WorkRadius        float64 `yaml:"work_radius"`
	HarvestCycleTicks uint64  `yaml:"harvest_cycle_ticks"`
	DepositDelayTicks uint64  `yaml:"deposit_delay_ticks"`
	StuckSampleTicks  uint64  `yaml:"stuck_sample_ticks"`
	StuckSampleCount  int     `yaml:"stuck_sample_count"`
	BlacklistTicks    uint64  `yaml:"blacklist_ticks"`
	ClaimAttempts     int     `yaml:"claim_attempts"`
}

type TreeConfig struct {
	MaxHealth    int    `yaml:"max_health"`
	DamagePerHit int    `yaml:"damage_per_hit"`
	YieldAmount  int    `yaml:"yield_amount"`
	RespawnTicks uint64 `yaml:"respawn_ticks"`
	HealTicks    uint64 `yaml:"heal_ticks"`
	HitGateTicks uint64 `yaml:"hit_gate_ticks"`
}

type PathConfig struct {
	Workers    int `yaml:"workers"`
	QueueDepth int `yaml:"queue_depth"`
}

type GatewayConfig struct {
	Addr string `yaml:"addr"`
}

type SessionConfig struct {
	DBPath        string `yaml:"db_path"`
	SaveEveryTick uint64 `yaml:"save_every_ticks"`
}

type LoggingConfig struct {
	Sinks       []string `yaml:"sinks"`
	MinSeverity string   `yaml:"min_severity"`
	JSONPath    string   `yaml:"json_path"`
}

// Load reads the YAML file at path. An empty path returns defaults.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.TickRate <= 0 {
		c.TickRate = 15
	}
	if c.Player.MoveSpeed <= 0 {
		c.Player.MoveSpeed = 160
	}
	if c.Worker.MoveSpeed <= 0 {
		c.Worker.MoveSpeed = 120
	}
	if c.Worker.Capacity <= 0 {
		c.Worker.Capacity = 10
	}
	if c.Worker.WorkRadius <= 0 {
		c.Worker.WorkRadius = 320
	}
	if c.Worker.HarvestCycleTicks == 0 {
		c.Worker.HarvestCycleTicks = 12
	}
	if c.Worker.DepositDelayTicks == 0 {
		c.Worker.DepositDelayTicks = 15
	}
	if c.Worker.StuckSampleTicks == 0 {
		c.Worker.StuckSampleTicks = 75
	}
	if c.Worker.StuckSampleCount <= 0 {
		c.Worker.StuckSampleCount = 3
	}
	if c.Worker.BlacklistTicks == 0 {
		c.Worker.BlacklistTicks = 450
	}
	if c.Worker.ClaimAttempts <= 0 {
		c.Worker.ClaimAttempts = 3
	}
	if c.Tree.MaxHealth <= 0 {
		c.Tree.MaxHealth = 100
	}
	if c.Tree.DamagePerHit <= 0 {
		c.Tree.DamagePerHit = 25
	}
	if c.Tree.YieldAmount <= 0 {
		c.Tree.YieldAmount = 3
	}
	if c.Tree.RespawnTicks == 0 {
		c.Tree.RespawnTicks = 900
	}
	if c.Tree.HealTicks == 0 {
		c.Tree.HealTicks = 150
	}
	if c.Tree.HitGateTicks == 0 {
		c.Tree.HitGateTicks = 10
	}
	if c.Paths.Workers <= 0 {
		c.Paths.Workers = 2
	}
	if c.Paths.QueueDepth <= 0 {
		c.Paths.QueueDepth = 64
	}
	if len(c.Buildings) == 0 {
		c.Buildings = map[string]BuildingConfig{
			"storage": {Capacities: map[string]int{"wood": 20}},
		}
	}
	if c.Gateway.Addr == "" {
		c.Gateway.Addr = ":8080"
	}
	if c.Session.SaveEveryTick == 0 {
		c.Session.SaveEveryTick = 150
	}
	if len(c.Logging.Sinks) == 0 {
		c.Logging.Sinks = []string{"console"}
	}
	if c.Logging.MinSeverity == "" {
		c.Logging.MinSeverity = "info"
	}
}

// Validate rejects configurations the simulation cannot honor.
func (c *Config) Validate() error {
	if c.TickRate < 1 || c.TickRate > 120 {
		return fmt.Errorf("tick_rate %d out of range [1,120]", c.TickRate)
	}
	if c.Tree.DamagePerHit > c.Tree.MaxHealth {
		return fmt.Errorf("tree damage_per_hit %d exceeds max_health %d", c.Tree.DamagePerHit, c.Tree.MaxHealth)
	}
	if c.Worker.StuckSampleCount < 2 {
		return fmt.Errorf("worker stuck_sample_count %d must be at least 2", c.Worker.StuckSampleCount)
	}
	for name, b := range c.Buildings {
		for res, n := range b.Capacities {
			if n < 0 {
				return fmt.Errorf("building %q capacity for %q is negative", name, res)
			}
		}
		for res, n := range b.Cost {
			if n < 0 {
				return fmt.Errorf("building %q cost for %q is negative", name, res)
			}
		}
	}
	for _, sink := range c.Logging.Sinks {
		switch sink {
		case "console", "json", "memory":
		default:
			return fmt.Errorf("unknown logging sink %q", sink)
		}
	}
	switch c.Logging.MinSeverity {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging severity %q", c.Logging.MinSeverity)
	}
	return nil
}
