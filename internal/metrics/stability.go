package metrics

import (
	"math"

	"github.com/san-kum/rigidsim/internal/scene"
)

// DefaultSpeedLimit is the speed above which a body is considered to have
// blown up.
const DefaultSpeedLimit = 1e3

// Stability is the fraction of steps where every body had a finite position
// and a speed under the threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
	maxSpeed   float64
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) OnStep(sc *scene.Scene, _ scene.StepInfo) {
	s.samples++
	for _, b := range sc.Bodies() {
		r := b.Rigid()
		speed := r.Velocity.Len()
		s.maxSpeed = math.Max(s.maxSpeed, speed)
		if speed > s.threshold || !finite(r.Position[0], r.Position[1], r.Position[2]) {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

// MaxSpeed is the highest body speed observed.
func (s *Stability) MaxSpeed() float64 { return s.maxSpeed }

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
	s.maxSpeed = 0
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
