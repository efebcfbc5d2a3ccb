package config

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/experiment"
	"github.com/san-kum/rigidsim/internal/partition"
	"github.com/san-kum/rigidsim/internal/scene"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = scene.DefaultTimeStep
	DefaultDuration = 10.0
	DefaultScenario = "drop"
)

type Config struct {
	Scenario    string          `yaml:"scenario"`
	Dt          float64         `yaml:"dt"`
	Duration    float64         `yaml:"duration"`
	Seed        int64           `yaml:"seed"`
	Gravity     mgl64.Vec3      `yaml:"gravity,flow"`
	GlobalForce mgl64.Vec3      `yaml:"global_force,flow"`
	Partition   PartitionConfig `yaml:"partition"`
	Params      ParamsConfig    `yaml:"params"`
}

type PartitionConfig struct {
	Enabled      bool       `yaml:"enabled"`
	Origin       mgl64.Vec3 `yaml:"origin,flow"`
	HalfExtents  mgl64.Vec3 `yaml:"half_extents,flow"`
	MinCell      mgl64.Vec3 `yaml:"min_cell,flow"`
	VolumeColors bool       `yaml:"volume_colors"`
	Show         bool       `yaml:"show"`
}

type ParamsConfig struct {
	Count       int     `yaml:"count"`
	Spacing     float64 `yaml:"spacing"`
	Radius      float64 `yaml:"radius"`
	Mass        float64 `yaml:"mass"`
	Restitution float64 `yaml:"restitution"`
	Height      float64 `yaml:"height"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario: DefaultScenario,
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Gravity:  scene.DefaultGravity,
		Partition: PartitionConfig{
			HalfExtents: partition.DefaultHalfExtents,
			MinCell:     partition.DefaultMinCell,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Options converts the run configuration into scene options.
func (c *Config) Options() scene.Options {
	return scene.Options{
		TimeStep:       c.Dt,
		Gravity:        c.Gravity,
		GlobalForce:    c.GlobalForce,
		Partitioned:    c.Partition.Enabled,
		Origin:         c.Partition.Origin,
		HalfExtents:    c.Partition.HalfExtents,
		MinCell:        c.Partition.MinCell,
		VolumeColors:   c.Partition.VolumeColors,
		ShowPartitions: c.Partition.Show,
	}
}

func (c *Config) ScenarioParams() experiment.Params {
	return experiment.Params{
		Count:       c.Params.Count,
		Spacing:     c.Params.Spacing,
		Radius:      c.Params.Radius,
		Mass:        c.Params.Mass,
		Restitution: c.Params.Restitution,
		Height:      c.Params.Height,
	}
}

func (c *Config) Experiment() experiment.Config {
	return experiment.Config{
		Scenario: c.Scenario,
		Options:  c.Options(),
		Params:   c.ScenarioParams(),
		Duration: c.Duration,
		Seed:     c.Seed,
	}
}
