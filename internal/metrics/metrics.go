// Package metrics holds scene observers that fold every step into a single
// number: energy, contact load, penetration depth and numerical stability.
package metrics

import (
	"sort"

	"github.com/san-kum/rigidsim/internal/scene"
)

// Metric is a scene observer with a scalar summary.
type Metric interface {
	scene.Observer
	Name() string
	Value() float64
	Reset()
}

// Set fans a step out to several metrics.
type Set []Metric

func (s Set) OnStep(sc *scene.Scene, info scene.StepInfo) {
	for _, m := range s {
		m.OnStep(sc, info)
	}
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}

func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for _, m := range s {
		names = append(names, m.Name())
	}
	sort.Strings(names)
	return names
}

// Default returns the metrics recorded for every run.
func Default() Set {
	return Set{
		NewEnergy(),
		NewEnergyDrift(),
		NewContacts(),
		NewMaxPenetration(),
		NewStability(DefaultSpeedLimit),
	}
}
