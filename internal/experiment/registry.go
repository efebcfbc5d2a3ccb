package experiment

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/scene"
)

var ErrUnknownScenario = errors.New("experiment: unknown scenario")

// Builder populates an empty scene.
type Builder func(s *scene.Scene, p Params, rng *rand.Rand) error

type scenario struct {
	build       Builder
	description string
}

type Registry struct {
	scenarios map[string]scenario
}

func NewRegistry() *Registry {
	r := &Registry{scenarios: make(map[string]scenario)}

	r.Register("drop", "single sphere dropped onto the floor", buildDrop)
	r.Register("sphere_grid", "cube of spheres falling onto the floor", buildSphereGrid)
	r.Register("newtons_cradle", "spheres hung from springs, first one swung in", buildCradle)
	r.Register("spring_chain", "spheres linked by springs hanging from an anchor", buildSpringChain)
	r.Register("box_stack", "dynamic boxes stacked on the floor", buildBoxStack)
	r.Register("mixed_pile", "random spheres and boxes dropped in a heap", buildMixedPile)

	return r
}

func (r *Registry) Register(name, description string, build Builder) {
	r.scenarios[name] = scenario{build: build, description: description}
}

func (r *Registry) GetScenario(name string) (Builder, error) {
	sc, ok := r.scenarios[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}
	return sc.build, nil
}

func (r *Registry) Describe(name string) string {
	return r.scenarios[name].description
}

func (r *Registry) ListScenarios() []string {
	names := make([]string, 0, len(r.scenarios))
	for name := range r.scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build is a shortcut for creating a scene and running a scenario builder
// on it.
func (r *Registry) Build(name string, opts scene.Options, p Params, seed int64) (*scene.Scene, error) {
	build, err := r.GetScenario(name)
	if err != nil {
		return nil, err
	}
	s, err := scene.New(opts)
	if err != nil {
		return nil, err
	}
	if err := build(s, p, rand.New(rand.NewSource(seed))); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Registry) DefaultMetrics() metrics.Set {
	return metrics.Default()
}
