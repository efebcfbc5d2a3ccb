package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/scene"
)

var ErrNotSetup = errors.New("experiment: not set up")

type Config struct {
	Scenario string
	Options  scene.Options
	Params   Params
	Duration float64
	Seed     int64
}

type Result struct {
	Scenario   string
	Steps      int
	Time       float64
	Bodies     int
	Removed    int
	Collisions int
	Metrics    map[string]float64
}

type Experiment struct {
	cfg        Config
	scene      *scene.Scene
	metrics    metrics.Set
	randSource *rand.Rand
}

func New(cfg Config) *Experiment {
	return &Experiment{
		cfg:        cfg,
		randSource: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Setup builds the scene for the configured scenario and attaches ms.
func (e *Experiment) Setup(reg *Registry, ms metrics.Set) error {
	build, err := reg.GetScenario(e.cfg.Scenario)
	if err != nil {
		return err
	}
	s, err := scene.New(e.cfg.Options)
	if err != nil {
		return err
	}
	if err := build(s, e.cfg.Params, e.randSource); err != nil {
		return fmt.Errorf("experiment: build %s: %w", e.cfg.Scenario, err)
	}
	s.AddObserver(ms)
	e.scene = s
	e.metrics = ms
	return nil
}

// Run advances the scene for the configured duration. The global force is
// applied once per step, the way an interactive frame loop would.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.scene == nil {
		return nil, ErrNotSetup
	}
	if !(e.cfg.Duration > 0) {
		return nil, fmt.Errorf("experiment: duration must be positive, got %f", e.cfg.Duration)
	}

	startBodies := e.scene.Len()
	steps := int(math.Round(e.cfg.Duration / e.scene.TimeStep()))
	collisions := 0

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return e.result(startBodies, collisions), ctx.Err()
		default:
		}
		e.scene.ApplyGlobalForce()
		e.scene.Step()
		collisions += e.scene.LastCollisionCount()
	}

	return e.result(startBodies, collisions), nil
}

func (e *Experiment) result(startBodies, collisions int) *Result {
	return &Result{
		Scenario:   e.cfg.Scenario,
		Steps:      e.scene.Steps(),
		Time:       e.scene.Time(),
		Bodies:     e.scene.Len(),
		Removed:    startBodies - e.scene.Len(),
		Collisions: collisions,
		Metrics:    e.metrics.Values(),
	}
}

// Scene returns the underlying scene for adding observers.
func (e *Experiment) Scene() *scene.Scene {
	return e.scene
}
