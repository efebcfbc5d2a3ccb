package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/draw"
	"github.com/san-kum/rigidsim/internal/experiment"
	"github.com/san-kum/rigidsim/internal/export"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/scenefile"
	"github.com/san-kum/rigidsim/internal/storage"
	"github.com/san-kum/rigidsim/internal/stream"
	"github.com/san-kum/rigidsim/internal/viz"
	"github.com/spf13/cobra"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if runs > 1 {
		return runEnsemble(options(cfg), cfg.Seed)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	exp := experiment.New(options(cfg))
	if err := exp.Setup(registry, registry.DefaultMetrics()); err != nil {
		return err
	}
	rec := storage.NewRecorder(sampleEvery)
	rec.Capture(exp.Scene())
	exp.Scene().AddObserver(rec)

	fmt.Printf("running %s simulation...\n", cfg.Scenario)
	start := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	result, err := exp.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(storage.RunMetadata{
		Scenario:    cfg.Scenario,
		Seed:        cfg.Seed,
		Dt:          cfg.Dt,
		Duration:    result.Time,
		Partitioned: cfg.Partition.Enabled,
		Bodies:      result.Bodies,
		Removed:     result.Removed,
		Collisions:  result.Collisions,
		Metrics:     result.Metrics,
	}, rec.Samples())
	if err != nil {
		return err
	}

	if sceneFile != "" {
		if err := scenefile.SaveFile(sceneFile, exp.Scene()); err != nil {
			return err
		}
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Println(viz.MetricLabel.Render("run id") + viz.MetricValue.Render(runID))
	fmt.Println(viz.MetricLabel.Render("steps") + viz.MetricValue.Render(fmt.Sprint(result.Steps)))
	fmt.Println(viz.MetricLabel.Render("bodies") + viz.MetricValue.Render(fmt.Sprintf("%d (%d removed)", result.Bodies, result.Removed)))
	fmt.Println(viz.MetricLabel.Render("collisions") + viz.MetricValue.Render(fmt.Sprint(result.Collisions)))
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}

	return nil
}

func runEnsemble(cfg experiment.Config, seedStart int64) error {
	ens := experiment.NewEnsemble(experiment.NewRegistry(), cfg, runs, seedStart)
	ens.SetWorkers(workers)

	fmt.Printf("running %d %s simulations (seeds %d..%d)...\n", runs, cfg.Scenario, seedStart, seedStart+int64(runs)-1)
	start := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	results, err := ens.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSTEPS\tBODIES\tREMOVED\tCOLLISIONS")
	for i, res := range results {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\n", seedStart+int64(i), res.Steps, res.Bodies, res.Removed, res.Collisions)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println("\nmetrics:")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tMEAN\tMIN\tMAX")
	for _, s := range experiment.Summarize(results) {
		fmt.Fprintf(w, "  %s\t%.6f\t%.6f\t%.6f\n", s.Name, s.Mean, s.Min, s.Max)
	}
	return w.Flush()
}

// sceneBuilder returns a function that builds the scene named by the flags:
// a saved scene file if --scene is set, the configured scenario otherwise.
func sceneBuilder(cmd *cobra.Command, args []string) (string, viz.Builder, error) {
	if sceneFile != "" {
		return sceneFile, func() (*scene.Scene, error) {
			return scenefile.LoadFile(sceneFile, logger())
		}, nil
	}

	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return "", nil, err
	}
	exp := options(cfg)
	registry := experiment.NewRegistry()
	return cfg.Scenario, func() (*scene.Scene, error) {
		return registry.Build(exp.Scenario, exp.Options, exp.Params, exp.Seed)
	}, nil
}

func runLive(cmd *cobra.Command, args []string) error {
	name, build, err := sceneBuilder(cmd, args)
	if err != nil {
		return err
	}

	m, err := viz.NewModel(name, build)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m.WithTheme(theme), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("live view: %w", err)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	name, build, err := sceneBuilder(cmd, args)
	if err != nil {
		return err
	}
	sc, err := build()
	if err != nil {
		return err
	}

	srv := stream.NewServer(log.New(os.Stderr, "", log.LstdFlags))
	mux := http.NewServeMux()
	mux.Handle("/ws", srv)
	httpSrv := &http.Server{Addr: addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		if err := stream.Run(ctx, sc, srv, interval); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[Stream] simulation stopped: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		srv.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("streaming %s on ws://%s/ws\n", name, addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tBODIES\tREMOVED\tOCTREE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%d\t%v\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Bodies,
			run.Removed,
			run.Partitioned,
		)
	}

	return w.Flush()
}

func axisIndex(name string) (int, error) {
	switch name {
	case "x":
		return 0, nil
	case "y":
		return 1, nil
	case "z":
		return 2, nil
	case "speed":
		return 3, nil
	}
	return 0, fmt.Errorf("unknown axis %q (want x, y, z or speed)", name)
}

// plotIDs picks the bodies to plot: the one asked for, or every body whose
// position changed during the run.
func plotIDs(samples []storage.Sample) []body.ID {
	if bodyID != 0 {
		return []body.ID{body.ID(bodyID)}
	}
	first := make(map[body.ID]mgl64.Vec3)
	moved := make(map[body.ID]bool)
	for _, sm := range samples {
		p, ok := first[sm.ID]
		if !ok {
			first[sm.ID] = sm.Position
			continue
		}
		if p != sm.Position {
			moved[sm.ID] = true
		}
	}
	var ids []body.ID
	for _, id := range storage.IDs(samples) {
		if moved[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	ax, err := axisIndex(axis)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(samples))

	ids := plotIDs(samples)
	const maxPlots = 6
	if len(ids) > maxPlots {
		ids = ids[:maxPlots]
	}
	for _, id := range ids {
		_, data := storage.Series(samples, id, ax)
		if len(data) == 0 {
			return fmt.Errorf("no samples for body %d", id)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("body %d %s vs time", id, axis)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	if outFile == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}

	ax, err := axisIndex(axis)
	if err != nil {
		return err
	}
	samples, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	ids := plotIDs(samples)
	if len(ids) == 0 {
		return fmt.Errorf("no moving body to export")
	}
	times, values := storage.Series(samples, ids[0], ax)
	points := make([]mgl64.Vec2, len(times))
	for i := range times {
		points[i] = mgl64.Vec2{times[i], values[i]}
	}
	svg := export.TrajectoryToSVG(points, 800, 400, "#00ccff")
	if svg == "" {
		return fmt.Errorf("body %d has fewer than two samples", ids[0])
	}
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (body %d)\n", outFile, ids[0])
	return nil
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	_, build, err := sceneBuilder(cmd, args)
	if err != nil {
		return err
	}
	sc, err := build()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("time") {
		simulate(sc, duration)
	}

	rec := draw.NewRecorder()
	sc.Draw(rec)
	frame := rec.Frame(sc.Steps(), sc.Time())

	cam := viz.NewCamera()
	cam.Frame(sc.Volume())

	if ascii {
		r := viz.NewRenderer(viz.NewCanvas(80, 24), cam)
		r.Render(frame)
		fmt.Print(r.Canvas.String())
		return nil
	}

	if err := os.WriteFile(snapshotOut, []byte(export.FrameToSVG(frame, cam, 800, 600)), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d primitives, t=%.2fs)\n", snapshotOut, len(frame.Primitives), sc.Time())
	return nil
}

// simulate advances sc by seconds the way a frame loop would: the global
// force once per step, then the step.
func simulate(sc *scene.Scene, seconds float64) {
	steps := int(seconds / sc.TimeStep())
	for i := 0; i < steps; i++ {
		sc.ApplyGlobalForce()
		sc.Step()
	}
}

func saveScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[:1])
	if err != nil {
		return err
	}
	exp := options(cfg)
	sc, err := experiment.NewRegistry().Build(exp.Scenario, exp.Options, exp.Params, exp.Seed)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("time") {
		simulate(sc, cfg.Duration)
	}
	if err := scenefile.SaveFile(args[1], sc); err != nil {
		return err
	}
	fmt.Printf("saved %s: %d bodies, %d constraints\n", args[1], sc.Len(), len(sc.Constraints()))
	return nil
}

func loadScene(cmd *cobra.Command, args []string) error {
	sc, err := scenefile.LoadFile(args[0], logger())
	if err != nil {
		return err
	}
	if duration > 0 {
		simulate(sc, duration)
	}

	fmt.Printf("%s: %d bodies, %d constraints, t=%.2fs\n\n", args[0], sc.Len(), len(sc.Constraints()), sc.Time())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSHAPE\tDYNAMIC\tPOSITION\tVELOCITY")
	for _, b := range sc.Bodies() {
		r := b.Rigid()
		fmt.Fprintf(w, "%d\t%s\t%v\t%s\t%s\n", b.ID(), b.Kind(), r.Dynamic, vec(r.Position), vec(r.Velocity))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if outFile != "" {
		return scenefile.SaveFile(outFile, sc)
	}
	return nil
}

func vec(v mgl64.Vec3) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v[0], v[1], v[2])
}

func listScenarios(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tDESCRIPTION")
	for _, name := range registry.ListScenarios() {
		fmt.Fprintf(w, "%s\t%s\n", name, registry.Describe(name))
	}
	return w.Flush()
}
