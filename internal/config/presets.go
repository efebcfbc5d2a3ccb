package config

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/partition"
	"github.com/san-kum/rigidsim/internal/scene"
)

var (
	earth    = scene.DefaultGravity
	floating = mgl64.Vec3{}
	volume   = PartitionConfig{HalfExtents: partition.DefaultHalfExtents, MinCell: partition.DefaultMinCell}
	octree   = PartitionConfig{Enabled: true, HalfExtents: partition.DefaultHalfExtents, MinCell: partition.DefaultMinCell}
)

var Presets = map[string]map[string]*Config{
	"drop": {
		"bouncy": {
			Scenario: "drop", Dt: 0.01, Duration: 10.0, Gravity: earth, Partition: volume,
			Params: ParamsConfig{Height: 10, Restitution: 0.9},
		},
		"dead": {
			Scenario: "drop", Dt: 0.01, Duration: 5.0, Gravity: earth, Partition: volume,
			Params: ParamsConfig{Height: 10, Restitution: 0.05},
		},
		"high": {
			Scenario: "drop", Dt: 0.005, Duration: 15.0, Gravity: earth, Partition: octree,
			Params: ParamsConfig{Height: 45},
		},
	},
	"sphere_grid": {
		"small": {
			Scenario: "sphere_grid", Dt: 0.01, Duration: 10.0, Gravity: earth, Partition: octree,
			Params: ParamsConfig{Count: 3},
		},
		"dense": {
			Scenario: "sphere_grid", Dt: 0.01, Duration: 15.0, Gravity: earth, Partition: octree,
			Params: ParamsConfig{Count: 6, Spacing: 2.5},
		},
	},
	"newtons_cradle": {
		"classic": {
			Scenario: "newtons_cradle", Dt: 0.005, Duration: 20.0, Gravity: earth, Partition: volume,
			Params: ParamsConfig{Count: 5, Restitution: 1},
		},
		"weightless": {
			Scenario: "newtons_cradle", Dt: 0.005, Duration: 20.0, Gravity: floating, Partition: volume,
			Params: ParamsConfig{Count: 5, Restitution: 1},
		},
	},
	"spring_chain": {
		"hanging": {
			Scenario: "spring_chain", Dt: 0.01, Duration: 20.0, Gravity: earth, Partition: volume,
			Params: ParamsConfig{Count: 6},
		},
		"long": {
			Scenario: "spring_chain", Dt: 0.005, Duration: 30.0, Gravity: earth, Partition: volume,
			Params: ParamsConfig{Count: 10, Spacing: 3},
		},
	},
	"box_stack": {
		"tower": {
			Scenario: "box_stack", Dt: 0.01, Duration: 10.0, Gravity: earth, Partition: volume,
			Params: ParamsConfig{Count: 6},
		},
		"pushed": {
			Scenario: "box_stack", Dt: 0.01, Duration: 10.0, Gravity: earth, GlobalForce: mgl64.Vec3{1.5, 0, 0}, Partition: octree,
			Params: ParamsConfig{Count: 4},
		},
	},
	"mixed_pile": {
		"heap": {
			Scenario: "mixed_pile", Dt: 0.01, Duration: 15.0, Gravity: earth, Partition: octree,
			Params: ParamsConfig{Count: 30},
		},
		"colored": {
			Scenario: "mixed_pile", Dt: 0.01, Duration: 15.0, Gravity: earth,
			Partition: PartitionConfig{Enabled: true, HalfExtents: partition.DefaultHalfExtents, MinCell: partition.DefaultMinCell, VolumeColors: true, Show: true},
			Params:    ParamsConfig{Count: 30},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(scenario, preset string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
