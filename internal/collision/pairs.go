package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SphereSphere: overlap iff the centers are closer than the radii sum.
func SphereSphere(c *Collision) bool {
	a, b := mustSphere(c.Actor), mustSphere(c.Other)

	delta := b.Position.Sub(a.Position)
	dist := delta.Len()
	radii := a.Radius + b.Radius
	if dist >= radii {
		return false
	}

	c.Normal = safeNormalize(delta)
	c.Overlap = radii - dist
	return true
}

// PlaneSphere measures the sphere center against the plane, flipping the
// normal so the sphere lies on its positive side.
func PlaneSphere(c *Collision) bool {
	p, s := mustPlane(c.Actor), mustSphere(c.Other)

	normal := p.Normal()
	d := p.SignedDistance(s.Position)
	if d < 0 {
		normal, d = normal.Mul(-1), -d
	}
	if d >= s.Radius {
		return false
	}

	c.Normal = normal
	c.Overlap = s.Radius - d
	return true
}

// PlaneBox finds the box corner deepest behind the plane, using the side of
// the plane the box center is on.
func PlaneBox(c *Collision) bool {
	p, b := mustPlane(c.Actor), mustBox(c.Other)

	normal := p.Normal()
	if p.SignedDistance(b.Position) < 0 {
		normal = normal.Mul(-1)
	}

	minDist := math.Inf(1)
	for _, corner := range b.Corners() {
		d := corner.Sub(p.Position).Dot(normal)
		if d < minDist {
			minDist = d
		}
	}
	if minDist > 0 {
		return false
	}

	c.Normal = normal
	c.Overlap = math.Abs(minDist)
	return true
}

// BoxSphere clamps the sphere center into the box to find the closest point.
// A center inside the box is pushed out through the nearest face.
func BoxSphere(c *Collision) bool {
	b, s := mustBox(c.Actor), mustSphere(c.Other)

	lo, hi := b.Min(), b.Max()
	closest := mgl64.Vec3{
		clamp(s.Position.X(), lo.X(), hi.X()),
		clamp(s.Position.Y(), lo.Y(), hi.Y()),
		clamp(s.Position.Z(), lo.Z(), hi.Z()),
	}

	delta := s.Position.Sub(closest)
	dist := delta.Len()
	if dist >= s.Radius {
		return false
	}
	if dist > 0 {
		c.Normal = delta.Mul(1 / dist)
		c.Overlap = s.Radius - dist
		return true
	}

	axis, sign, depth := nearestFace(s.Position, lo, hi)
	var n mgl64.Vec3
	n[axis] = sign
	c.Normal = n
	c.Overlap = s.Radius + depth
	return true
}

// BoxBox pushes along the single axis of least penetration.
func BoxBox(c *Collision) bool {
	a, b := mustBox(c.Actor), mustBox(c.Other)

	delta := b.Position.Sub(a.Position)
	reach := a.HalfExtents().Add(b.HalfExtents())

	axis := -1
	smallest := math.Inf(1)
	for i := 0; i < 3; i++ {
		pen := reach[i] - math.Abs(delta[i])
		if pen <= 0 {
			return false
		}
		if pen < smallest {
			axis, smallest = i, pen
		}
	}

	var n mgl64.Vec3
	n[axis] = 1
	if delta[axis] < 0 {
		n[axis] = -1
	}
	c.Normal = n
	c.Overlap = smallest
	return true
}

// nearestFace returns the axis and outward sign of the box face closest to
// an interior point, and that face's distance.
func nearestFace(p, lo, hi mgl64.Vec3) (int, float64, float64) {
	axis, sign, depth := 0, 1.0, math.Inf(1)
	for i := 0; i < 3; i++ {
		if d := hi[i] - p[i]; d < depth {
			axis, sign, depth = i, 1, d
		}
		if d := p[i] - lo[i]; d < depth {
			axis, sign, depth = i, -1, d
		}
	}
	return axis, sign, depth
}

func safeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
