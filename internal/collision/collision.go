// Package collision holds the narrow phase: exact overlap tests for every
// pair of body shapes and the record describing a detected overlap.
//
// Every test reports its normal pointing from the record's Actor toward its
// Other. Mirror pairs (sphere-plane, sphere-box, box-plane) swap the record
// before calling the canonical test, so the returned record is in canonical
// order and the convention still holds for it.
package collision

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
)

// Collision is a transient overlap between two bodies, valid for one step.
type Collision struct {
	Actor   body.Body
	Other   body.Body
	Normal  mgl64.Vec3
	Overlap float64
}

func (c *Collision) Swap() {
	c.Actor, c.Other = c.Other, c.Actor
}

// Resolvable reports whether the normal is usable for resolution.
func (c Collision) Resolvable() bool {
	return c.Normal.Len() > 0
}

// ShapeError is the invariant violation raised when a test meets a shape
// pair it cannot handle.
type ShapeError struct {
	Actor, Other body.Kind
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("collision: no test for %s-%s", e.Actor, e.Other)
}

// Detect runs the narrow-phase test for the pair and returns the collision
// record when the shapes overlap.
func Detect(actor, other body.Body) (Collision, bool) {
	c := Collision{Actor: actor, Other: other}
	ok := dispatch(&c)
	return c, ok
}

func dispatch(c *Collision) bool {
	switch c.Actor.(type) {
	case *body.Sphere:
		switch c.Other.(type) {
		case *body.Sphere:
			return SphereSphere(c)
		case *body.Plane, *body.Box:
			c.Swap()
			return dispatch(c)
		}
	case *body.Plane:
		switch c.Other.(type) {
		case *body.Sphere:
			return PlaneSphere(c)
		case *body.Box:
			return PlaneBox(c)
		case *body.Plane:
			return false
		}
	case *body.Box:
		switch c.Other.(type) {
		case *body.Sphere:
			return BoxSphere(c)
		case *body.Box:
			return BoxBox(c)
		case *body.Plane:
			c.Swap()
			return PlaneBox(c)
		}
	}
	panic(&ShapeError{Actor: c.Actor.Kind(), Other: c.Other.Kind()})
}

func mustSphere(b body.Body) *body.Sphere {
	if s, ok := b.(*body.Sphere); ok {
		return s
	}
	panic(&ShapeError{Actor: b.Kind(), Other: body.KindSphere})
}

func mustPlane(b body.Body) *body.Plane {
	if p, ok := b.(*body.Plane); ok {
		return p
	}
	panic(&ShapeError{Actor: b.Kind(), Other: body.KindPlane})
}

func mustBox(b body.Body) *body.Box {
	if x, ok := b.(*body.Box); ok {
		return x
	}
	panic(&ShapeError{Actor: b.Kind(), Other: body.KindBox})
}
