package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/collision"
)

// Resolve separates the pair along the collision normal and applies the
// restitution impulse. Static bodies are treated as having infinite mass and
// are never moved. A zero normal is skipped entirely, and a pair that is
// already separating is only pushed apart.
func Resolve(c collision.Collision) {
	if !c.Resolvable() {
		return
	}
	actor, other := c.Actor, c.Other
	a, b := actor.Rigid(), other.Rigid()
	n := c.Normal

	switch {
	case a.Dynamic && b.Dynamic:
		half := n.Mul(c.Overlap / 2)
		displace(actor, half.Mul(-1))
		displace(other, half)
	case a.Dynamic:
		displace(actor, n.Mul(-c.Overlap))
	case b.Dynamic:
		displace(other, n.Mul(c.Overlap))
	default:
		return
	}

	rel := velocity(b).Sub(velocity(a))
	if rel.Dot(n) > 0 {
		return
	}

	if a.Dynamic && b.Dynamic {
		e := (a.Restitution + b.Restitution) / 2
		j := rel.Mul(-(1 + e)).Dot(n) / n.Dot(n.Mul(1/a.Mass+1/b.Mass))
		actor.ApplyImpulseForce(n.Mul(-j))
		other.ApplyImpulseForce(n.Mul(j))
		return
	}

	dyn, rb := actor, a
	if b.Dynamic {
		dyn, rb = other, b
	}
	j := rb.Velocity.Mul(-(1 + rb.Restitution)).Dot(n) / (1 / rb.Mass)
	dyn.ApplyImpulseForce(n.Mul(j))
}

func velocity(r *body.Rigidbody) mgl64.Vec3 {
	if !r.Dynamic {
		return mgl64.Vec3{}
	}
	return r.Velocity
}

// displace moves a body by delta. Planes only move along their normal.
func displace(b body.Body, delta mgl64.Vec3) {
	if p, ok := b.(*body.Plane); ok {
		p.SetDistance(p.Distance() + delta.Dot(p.Normal()))
		return
	}
	r := b.Rigid()
	r.Position = r.Position.Add(delta)
}
