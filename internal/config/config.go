package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	World   WorldConfig   `toml:"world"`
	Grid    GridConfig    `toml:"grid"`
	Pool    PoolConfig    `toml:"pool"`
	Run     RunConfig     `toml:"run"`
	Logging LoggingConfig `toml:"logging"`
}

type WorldConfig struct {
	Capacity int `toml:"capacity"`
}

type GridConfig struct {
	// Extent is the half-size of the cubic region centered on the origin.
	Extent       float32 `toml:"extent"`
	CellSize     float32 `toml:"cell_size"`
	CellCapacity int     `toml:"cell_capacity"`
}

type PoolConfig struct {
	Capacity int `toml:"capacity"`
}

type RunConfig struct {
	Ticks   int    `toml:"ticks"`
	TickMs  int    `toml:"tick_ms"`  // simulated frame time handed to systems
	Profile string `toml:"profile"`  // "", "cpu" or "mem"
	Report  int    `toml:"report"`   // log a progress line every N ticks, 0 = off
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Defaults returns the configuration used when no file is given.
func Defaults() *Config {
	return defaults()
}

func defaults() *Config {
	return &Config{
		World: WorldConfig{
			Capacity: 65536,
		},
		Grid: GridConfig{
			Extent:       512,
			CellSize:     16,
			CellCapacity: 32,
		},
		Pool: PoolConfig{
			Capacity: 8192,
		},
		Run: RunConfig{
			Ticks:  1000,
			TickMs: 16,
			Report: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
