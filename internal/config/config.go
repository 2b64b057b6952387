package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPath overrides the config file path given on the command line.
const EnvPath = "SIMCORE_CONFIG"

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	World      WorldConfig      `toml:"world"`
	Simulation SimulationConfig `toml:"simulation"`
	Data       DataConfig       `toml:"data"`
	Logging    LoggingConfig    `toml:"logging"`
}

// WorldConfig sizes the spatial hash grid. Bounds are on the XZ plane.
type WorldConfig struct {
	MinX float64 `toml:"min_x"`
	MinZ float64 `toml:"min_z"`
	MaxX float64 `toml:"max_x"`
	MaxZ float64 `toml:"max_z"`
	Cols int     `toml:"cols"`
	Rows int     `toml:"rows"`
}

type SimulationConfig struct {
	TickRate          time.Duration `toml:"tick_rate"`
	MaxTicks          int           `toml:"max_ticks"` // 0 = run until signalled
	MaxBroadcastDepth int           `toml:"max_broadcast_depth"`
	LevelUpLifetime   time.Duration `toml:"level_up_lifetime"`
	StatsEvery        int           `toml:"stats_every"` // ticks between stats lines, 0 = off
}

type DataConfig struct {
	Prefabs    string `toml:"prefabs"`
	ScriptsDir string `toml:"scripts_dir"`
	HotReload  bool   `toml:"hot_reload"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads path over the defaults. An empty path (after the SIMCORE_CONFIG
// override) yields the defaults alone.
func Load(path string) (*Config, error) {
	if env := os.Getenv(EnvPath); env != "" {
		path = env
	}
	cfg := defaults()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the simulation cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.World.Cols <= 0 || c.World.Rows <= 0:
		return fmt.Errorf("%w: grid dimensions %dx%d", ErrInvalid, c.World.Cols, c.World.Rows)
	case c.World.MaxX <= c.World.MinX || c.World.MaxZ <= c.World.MinZ:
		return fmt.Errorf("%w: empty world bounds", ErrInvalid)
	case c.Simulation.TickRate <= 0:
		return fmt.Errorf("%w: tick_rate %s", ErrInvalid, c.Simulation.TickRate)
	case c.Simulation.MaxTicks < 0:
		return fmt.Errorf("%w: max_ticks %d", ErrInvalid, c.Simulation.MaxTicks)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		World: WorldConfig{
			MinX: -1000,
			MinZ: -1000,
			MaxX: 1000,
			MaxZ: 1000,
			Cols: 100,
			Rows: 100,
		},
		Simulation: SimulationConfig{
			TickRate:          50 * time.Millisecond,
			MaxBroadcastDepth: 64,
			LevelUpLifetime:   2 * time.Second,
			StatsEvery:        100,
		},
		Data: DataConfig{
			Prefabs:    "data/yaml/prefab_list.yaml",
			ScriptsDir: "scripts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
