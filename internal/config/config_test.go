package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/experiment"
	"github.com/san-kum/rigidsim/internal/scene"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scenario != "drop" {
		t.Errorf("expected scenario drop, got %s", cfg.Scenario)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if _, err := scene.New(cfg.Options()); err != nil {
		t.Errorf("default options rejected: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("drop", "bouncy")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Params.Restitution != 0.9 {
		t.Errorf("expected restitution 0.9, got %f", cfg.Params.Restitution)
	}

	cfg.Duration = 99
	if GetPreset("drop", "bouncy").Duration == 99 {
		t.Error("GetPreset should return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	cfg := GetPreset("drop", "nonexistent")
	if cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}

	cfg = GetPreset("nonexistent", "bouncy")
	if cfg != nil {
		t.Error("expected nil for nonexistent scenario")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("drop")
	if len(presets) != 3 || presets[0] != "bouncy" {
		t.Errorf("expected sorted drop presets, got %v", presets)
	}

	presets = ListPresets("nonexistent")
	if presets != nil {
		t.Error("expected nil for nonexistent scenario")
	}
}

func TestPresetsBuild(t *testing.T) {
	reg := experiment.NewRegistry()
	for scenario, presets := range Presets {
		for name, cfg := range presets {
			if cfg.Scenario != scenario {
				t.Errorf("%s/%s: scenario field is %s", scenario, name, cfg.Scenario)
			}
			if _, err := reg.Build(cfg.Scenario, cfg.Options(), cfg.ScenarioParams(), cfg.Seed); err != nil {
				t.Errorf("%s/%s: %v", scenario, name, err)
			}
		}
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := DefaultConfig()
	cfg.Scenario = "box_stack"
	cfg.GlobalForce = mgl64.Vec3{1, 2, 3}
	cfg.Partition.Enabled = true
	cfg.Params.Count = 7

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Scenario != "box_stack" || loaded.Params.Count != 7 || !loaded.Partition.Enabled {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
	if loaded.GlobalForce != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("global force = %v", loaded.GlobalForce)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("scenario: sphere_grid\nduration: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dt != DefaultDt || cfg.Gravity != scene.DefaultGravity {
		t.Errorf("missing keys should keep defaults, got dt=%f gravity=%v", cfg.Dt, cfg.Gravity)
	}
	if cfg.Duration != 3 {
		t.Errorf("expected duration 3, got %f", cfg.Duration)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("gravity: [1, 2]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected an error for a two-element vector")
	}
}

func TestExperimentConfig(t *testing.T) {
	cfg := GetPreset("newtons_cradle", "classic")
	exp := cfg.Experiment()
	if exp.Scenario != "newtons_cradle" || exp.Params.Count != 5 || exp.Options.TimeStep != 0.005 {
		t.Errorf("unexpected experiment config: %+v", exp)
	}
}
