package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/scene"
)

// KineticEnergy sums ½mv² over the dynamic bodies.
func KineticEnergy(bodies []body.Body) float64 {
	total := 0.0
	for _, b := range bodies {
		r := b.Rigid()
		if !r.Dynamic {
			continue
		}
		total += 0.5 * r.Mass * r.Velocity.Dot(r.Velocity)
	}
	return total
}

// PotentialEnergy is −m·g·p summed over the dynamic bodies, zero at the
// origin.
func PotentialEnergy(bodies []body.Body, gravity mgl64.Vec3) float64 {
	total := 0.0
	for _, b := range bodies {
		r := b.Rigid()
		if !r.Dynamic {
			continue
		}
		total -= r.Mass * gravity.Dot(r.Position)
	}
	return total
}

// Energy is the mean kinetic energy over all observed steps.
type Energy struct {
	name    string
	total   float64
	last    float64
	samples int
}

func NewEnergy() *Energy {
	return &Energy{name: "kinetic_energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) OnStep(s *scene.Scene, _ scene.StepInfo) {
	e.last = KineticEnergy(s.Bodies())
	e.total += e.last
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Last() float64 { return e.last }

func (e *Energy) Reset() {
	e.total = 0
	e.last = 0
	e.samples = 0
}

// EnergyDrift tracks the largest relative change of mechanical energy from
// the first observed step. Damping and inelastic contacts make it grow.
type EnergyDrift struct {
	name     string
	initial  float64
	current  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) OnStep(s *scene.Scene, _ scene.StepInfo) {
	bodies := s.Bodies()
	energy := KineticEnergy(bodies) + PotentialEnergy(bodies, s.Gravity())

	if e.samples == 0 {
		e.initial = energy
	}
	e.current = energy
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.current = 0
	e.maxDrift = 0
	e.samples = 0
}
