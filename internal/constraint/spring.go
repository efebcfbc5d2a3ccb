package constraint

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
)

// Spring is a damped Hookean spring between two bodies.
type Spring struct {
	Link
	Stiffness  float64
	RestLength float64
	Damping    float64
}

func NewSpring(actor, other body.ID) *Spring {
	return &Spring{
		Link:       Link{ActorID: actor, OtherID: other, Tint: DefaultColor},
		Stiffness:  DefaultStiffness,
		RestLength: DefaultRestLength,
		Damping:    DefaultDamping,
	}
}

func (s *Spring) Kind() Kind { return KindSpring }

// Constrain applies -force to the actor and +force to the other, skipping
// static endpoints. A missing endpoint makes it a no-op.
func (s *Spring) Constrain(bodies Bodies) {
	actor, other, ok := s.resolve(bodies)
	if !ok {
		return
	}
	a, b := actor.Rigid(), other.Rigid()

	springVec := b.Position.Sub(a.Position)
	displacement := s.RestLength - springVec.Len()

	var relVel mgl64.Vec3
	if b.Dynamic {
		relVel = relVel.Add(b.Velocity)
	}
	if a.Dynamic {
		relVel = relVel.Sub(a.Velocity)
	}

	force := springVec.Mul(s.Stiffness * displacement).Sub(relVel.Mul(s.Damping))

	if a.Dynamic {
		actor.ApplyForce(force.Mul(-1))
	}
	if b.Dynamic {
		other.ApplyForce(force)
	}
}
