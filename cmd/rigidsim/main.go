package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/experiment"
	"github.com/san-kum/rigidsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool

	dt          float64
	duration    float64
	seed        int64
	partitioned bool
	force       []float64

	count       int
	spacing     float64
	radius      float64
	mass        float64
	restitution float64
	height      float64

	sampleEvery int
	runs        int
	workers     int
	sceneFile   string
	theme       string
	addr        string
	interval    time.Duration
	bodyID      uint64
	axis        string
	outFile     string
	snapshotOut string
	ascii       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "rigidsim",
		Short:        "rigid-body physics sandbox",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rigidsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log scene events to stderr")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario headless and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&sampleEvery, "every", 10, "record body states every N steps")
	runCmd.Flags().StringVar(&sceneFile, "save-scene", "", "write the final scene to this file")
	runCmd.Flags().IntVar(&runs, "runs", 1, "run an ensemble over this many consecutive seeds")
	runCmd.Flags().IntVar(&workers, "workers", 0, "max concurrent ensemble runs (0 = unlimited)")

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run a scenario in the terminal viewer",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().StringVar(&sceneFile, "scene", "", "load the scene from a file instead of a scenario")
	liveCmd.Flags().StringVar(&theme, "theme", "cyberpunk", fmt.Sprintf("color theme %v", viz.ThemeNames()))

	serveCmd := &cobra.Command{
		Use:   "serve [scenario]",
		Short: "stream a scenario's frames over websocket",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runServe,
	}
	addSimFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().DurationVar(&interval, "interval", 50*time.Millisecond, "frame interval")
	serveCmd.Flags().StringVar(&sceneFile, "scene", "", "load the scene from a file instead of a scenario")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a body's trajectory from a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().Uint64Var(&bodyID, "body", 0, "body id (default: every moving body)")
	plotCmd.Flags().StringVar(&axis, "axis", "y", "x, y, z or speed")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON, or a trajectory as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&outFile, "svg", "", "write the trajectory of --body to this SVG file")
	exportCmd.Flags().Uint64Var(&bodyID, "body", 0, "body id for --svg")
	exportCmd.Flags().StringVar(&axis, "axis", "y", "x, y, z or speed")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [scenario]",
		Short: "render a scenario after --time seconds to SVG or the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSnapshot,
	}
	addSimFlags(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "snapshot.svg", "output SVG file")
	snapshotCmd.Flags().BoolVar(&ascii, "ascii", false, "print a braille rendering instead of writing SVG")
	snapshotCmd.Flags().StringVar(&sceneFile, "scene", "", "load the scene from a file instead of a scenario")

	saveCmd := &cobra.Command{
		Use:   "save [scenario] [file]",
		Short: "build a scenario, optionally simulate --time seconds, and save the scene",
		Args:  cobra.ExactArgs(2),
		RunE:  saveScene,
	}
	addSimFlags(saveCmd)

	loadCmd := &cobra.Command{
		Use:   "load [file]",
		Short: "load a saved scene, simulate --time seconds and print its bodies",
		Args:  cobra.ExactArgs(1),
		RunE:  loadScene,
	}
	loadCmd.Flags().Float64Var(&duration, "time", 0, "seconds to simulate after loading")
	loadCmd.Flags().StringVarP(&outFile, "out", "o", "", "save the simulated scene to this file")

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for scenario: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list built-in scenarios",
		RunE:  listScenarios,
	}

	rootCmd.AddCommand(runCmd, liveCmd, serveCmd, listCmd, plotCmd, exportCmd, snapshotCmd, saveCmd, loadCmd, presetsCmd, scenariosCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addSimFlags registers the flags that shape a scenario run.
func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "fixed timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().BoolVar(&partitioned, "partition", false, "use the octree broad phase")
	cmd.Flags().Float64SliceVar(&force, "force", nil, "global force x,y,z applied every frame")
	cmd.Flags().IntVar(&count, "count", 0, "scenario body count")
	cmd.Flags().Float64Var(&spacing, "spacing", 0, "scenario spacing")
	cmd.Flags().Float64Var(&radius, "radius", 0, "scenario body radius")
	cmd.Flags().Float64Var(&mass, "mass", 0, "scenario body mass")
	cmd.Flags().Float64Var(&restitution, "restitution", 0, "scenario restitution")
	cmd.Flags().Float64Var(&height, "height", 0, "scenario drop height")
}

// resolveConfig layers defaults, a preset, a config file and finally the
// flags the user actually set.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Scenario = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Scenario, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Scenario))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 {
			loaded.Scenario = args[0]
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("partition") {
		cfg.Partition.Enabled = partitioned
	}
	if flags.Changed("force") {
		if len(force) != 3 {
			return nil, fmt.Errorf("--force needs 3 components, got %d", len(force))
		}
		cfg.GlobalForce = mgl64.Vec3{force[0], force[1], force[2]}
	}
	if flags.Changed("count") {
		cfg.Params.Count = count
	}
	if flags.Changed("spacing") {
		cfg.Params.Spacing = spacing
	}
	if flags.Changed("radius") {
		cfg.Params.Radius = radius
	}
	if flags.Changed("mass") {
		cfg.Params.Mass = mass
	}
	if flags.Changed("restitution") {
		cfg.Params.Restitution = restitution
	}
	if flags.Changed("height") {
		cfg.Params.Height = height
	}
	return cfg, nil
}

func logger() *log.Logger {
	if !verbose {
		return nil
	}
	return log.New(os.Stderr, "", log.LstdFlags)
}

func options(cfg *config.Config) experiment.Config {
	exp := cfg.Experiment()
	exp.Options.Logger = logger()
	return exp
}
