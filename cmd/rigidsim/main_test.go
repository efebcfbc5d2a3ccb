package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/spf13/cobra"
)

func simCmd(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addSimFlags(cmd)
	for name, value := range flags {
		if err := cmd.Flags().Set(name, value); err != nil {
			t.Fatalf("set --%s: %v", name, err)
		}
	}
	return cmd
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg, err := resolveConfig(simCmd(t, nil), nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scenario != "drop" || cfg.Dt != config.DefaultDt {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestResolveConfigFlagsOverridePreset(t *testing.T) {
	cmd := simCmd(t, map[string]string{
		"preset": "bouncy",
		"time":   "2",
		"force":  "1,2,3",
	})
	cfg, err := resolveConfig(cmd, []string{"drop"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Params.Restitution != 0.9 {
		t.Errorf("preset restitution lost, got %f", cfg.Params.Restitution)
	}
	if cfg.Duration != 2 {
		t.Errorf("expected duration 2, got %f", cfg.Duration)
	}
	if cfg.GlobalForce != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("global force = %v", cfg.GlobalForce)
	}
}

func TestResolveConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("scenario: box_stack\nduration: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := resolveConfig(simCmd(t, map[string]string{"config": path}), []string{"sphere_grid"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scenario != "sphere_grid" || cfg.Duration != 3 {
		t.Errorf("expected the argument to override the file scenario, got %+v", cfg)
	}
}

func TestResolveConfigErrors(t *testing.T) {
	if _, err := resolveConfig(simCmd(t, map[string]string{"preset": "nope"}), []string{"drop"}); err == nil {
		t.Error("expected an error for an unknown preset")
	}
	if _, err := resolveConfig(simCmd(t, map[string]string{"force": "1,2"}), nil); err == nil {
		t.Error("expected an error for a two-component force")
	}
}

func TestAxisIndex(t *testing.T) {
	for name, want := range map[string]int{"x": 0, "y": 1, "z": 2, "speed": 3} {
		got, err := axisIndex(name)
		if err != nil || got != want {
			t.Errorf("axisIndex(%q) = %d, %v", name, got, err)
		}
	}
	if _, err := axisIndex("w"); err == nil {
		t.Error("expected an error for an unknown axis")
	}
}
