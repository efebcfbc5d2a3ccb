package body

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/draw"
)

type Sphere struct {
	Rigidbody
	Radius float64
	Detail [2]int // rows, cols; render only
}

// NewSphere returns a dynamic sphere unless overridden by opts.
func NewSphere(radius float64, pos mgl64.Vec3, opts ...Option) *Sphere {
	s := &Sphere{Rigidbody: newRigidbody(pos, true), Radius: radius, Detail: DefaultDetail}
	s.apply(opts)
	return s
}

func (s *Sphere) Kind() Kind { return KindSphere }
func (s *Sphere) shape()     {}

func (s *Sphere) Draw(d draw.Drawer) {
	d.Sphere(s.Position, s.Radius, s.Detail[0], s.Detail[1], s.Color)
}

func (s *Sphere) Validate() error {
	if !(s.Radius > 0) {
		return fmt.Errorf("%w: sphere radius %g", ErrInvalidShape, s.Radius)
	}
	return s.validate()
}

// Plane is an infinite plane. Its Position is always normal × distance.
type Plane struct {
	Rigidbody
	normal   mgl64.Vec3
	distance float64
}

// NewPlane returns a static plane unless overridden by opts.
func NewPlane(normal mgl64.Vec3, distance float64, opts ...Option) *Plane {
	p := &Plane{Rigidbody: newRigidbody(mgl64.Vec3{}, false)}
	p.apply(opts)
	p.distance = distance
	p.SetNormal(normal)
	return p
}

func (p *Plane) Kind() Kind { return KindPlane }
func (p *Plane) shape()     {}

func (p *Plane) Normal() mgl64.Vec3 { return p.normal }
func (p *Plane) Distance() float64  { return p.distance }

// SetNormal normalizes n unless it has zero length, which is kept as-is.
func (p *Plane) SetNormal(n mgl64.Vec3) {
	if n.Len() != 0 {
		n = n.Normalize()
	}
	p.normal = n
	p.Position = p.normal.Mul(p.distance)
}

func (p *Plane) SetDistance(d float64) {
	p.distance = d
	p.Position = p.normal.Mul(p.distance)
}

// SignedDistance is positive on the side the normal points to.
func (p *Plane) SignedDistance(point mgl64.Vec3) float64 {
	return point.Dot(p.normal) - p.distance
}

// Update moves the plane along its own normal only.
func (p *Plane) Update(dt float64) {
	if !p.Dynamic {
		p.Acceleration = mgl64.Vec3{}
		return
	}
	p.integrateVelocity(dt)
	p.SetDistance(p.distance + p.Velocity.Dot(p.normal)*dt)
	p.Acceleration = mgl64.Vec3{}
}

// planeDrawExtent is how far the debug cross of a plane reaches.
const planeDrawExtent = 50.0

func (p *Plane) Draw(d draw.Drawer) {
	if p.normal.Len() == 0 {
		return
	}
	u, v := p.tangents()
	u, v = u.Mul(planeDrawExtent), v.Mul(planeDrawExtent)
	d.Line(p.Position.Sub(u), p.Position.Add(u), p.Color)
	d.Line(p.Position.Sub(v), p.Position.Add(v), p.Color)
}

func (p *Plane) tangents() (mgl64.Vec3, mgl64.Vec3) {
	ref := mgl64.Vec3{1, 0, 0}
	if math.Abs(p.normal.X()) > 0.9 {
		ref = mgl64.Vec3{0, 0, 1}
	}
	u := p.normal.Cross(ref).Normalize()
	return u, p.normal.Cross(u)
}

func (p *Plane) Validate() error {
	if p.normal.Len() == 0 {
		return fmt.Errorf("%w: plane normal has zero length", ErrInvalidShape)
	}
	return p.validate()
}

// Box is axis-aligned; Extents is the full size along each axis.
type Box struct {
	Rigidbody
	Extents mgl64.Vec3
}

// NewBox returns a static box unless overridden by opts.
func NewBox(extents, pos mgl64.Vec3, opts ...Option) *Box {
	b := &Box{Rigidbody: newRigidbody(pos, false), Extents: extents}
	b.apply(opts)
	return b
}

func (b *Box) Kind() Kind { return KindBox }
func (b *Box) shape()     {}

func (b *Box) HalfExtents() mgl64.Vec3 { return b.Extents.Mul(0.5) }
func (b *Box) Min() mgl64.Vec3         { return b.Position.Sub(b.HalfExtents()) }
func (b *Box) Max() mgl64.Vec3         { return b.Position.Add(b.HalfExtents()) }

// Corners returns the eight corners; bit 0 selects max X, bit 1 max Y,
// bit 2 max Z.
func (b *Box) Corners() [8]mgl64.Vec3 {
	lo, hi := b.Min(), b.Max()
	var out [8]mgl64.Vec3
	for i := range out {
		c := lo
		if i&1 != 0 {
			c[0] = hi[0]
		}
		if i&2 != 0 {
			c[1] = hi[1]
		}
		if i&4 != 0 {
			c[2] = hi[2]
		}
		out[i] = c
	}
	return out
}

func (b *Box) Draw(d draw.Drawer) {
	d.Box(b.Position, b.HalfExtents(), b.Color)
}

func (b *Box) Validate() error {
	if !(b.Extents.X() > 0 && b.Extents.Y() > 0 && b.Extents.Z() > 0) {
		return fmt.Errorf("%w: box extents %v", ErrInvalidShape, b.Extents)
	}
	return b.validate()
}
