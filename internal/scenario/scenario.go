// Package scenario loads bench workload definitions from YAML. A scenario is
// a list of spawn waves the driver feeds through the world, pool, and grid.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Wave spawns a batch of agents at a given tick.
type Wave struct {
	Name          string   `yaml:"name"`
	StartTick     int      `yaml:"start_tick"`
	Count         int      `yaml:"count"`
	LifetimeTicks int      `yaml:"lifetime_ticks"` // 0 = immortal
	Components    []string `yaml:"components"`     // subset of "velocity", "lifetime"
	Spread        float32  `yaml:"spread"`         // spawn cube half-size around origin
	Speed         float32  `yaml:"speed"`          // units per second along a per-agent heading
}

// Has reports whether the wave carries the named component.
func (w Wave) Has(name string) bool {
	for _, c := range w.Components {
		if c == name {
			return true
		}
	}
	return false
}

// Scenario is a named workload.
type Scenario struct {
	Name  string
	Waves []Wave
}

type scenarioFile struct {
	Name  string `yaml:"name"`
	Waves []Wave `yaml:"waves"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	var f scenarioFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	s := &Scenario{Name: f.Name, Waves: f.Waves}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

// Default returns the workload used when no scenario file is given.
func Default() *Scenario {
	return &Scenario{
		Name: "default",
		Waves: []Wave{
			{
				Name:          "movers",
				StartTick:     0,
				Count:         4096,
				LifetimeTicks: 600,
				Components:    []string{"velocity", "lifetime"},
				Spread:        256,
				Speed:         8,
			},
			{
				Name:      "statics",
				StartTick: 0,
				Count:     2048,
				Spread:    384,
			},
		},
	}
}

func (s *Scenario) validate() error {
	if len(s.Waves) == 0 {
		return fmt.Errorf("no waves defined")
	}
	for i, w := range s.Waves {
		if w.Count <= 0 {
			return fmt.Errorf("wave %d (%s): count must be positive", i, w.Name)
		}
		if w.StartTick < 0 {
			return fmt.Errorf("wave %d (%s): start_tick must not be negative", i, w.Name)
		}
		if w.LifetimeTicks < 0 {
			return fmt.Errorf("wave %d (%s): lifetime_ticks must not be negative", i, w.Name)
		}
		if w.Spread < 0 {
			return fmt.Errorf("wave %d (%s): spread must not be negative", i, w.Name)
		}
		for _, c := range w.Components {
			if c != "velocity" && c != "lifetime" {
				return fmt.Errorf("wave %d (%s): unknown component %q", i, w.Name, c)
			}
		}
	}
	return nil
}
