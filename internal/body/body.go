package body

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/draw"
)

const (
	DefaultMass        = 2.0
	DefaultFriction    = 1.0
	DefaultRestitution = 0.5

	// Epsilon is the speed below which a dynamic body's velocity snaps to zero.
	Epsilon = 0.001
)

var (
	DefaultColor       = mgl64.Vec4{0, 0, 0, 1}
	DefaultDetail      = [2]int{16, 16}
	DefaultExtents     = mgl64.Vec3{4, 4, 4}
	DefaultPlaneNormal = mgl64.Vec3{0, 1, 0}
)

var (
	ErrInvalidMass        = errors.New("body: mass must be positive")
	ErrInvalidRestitution = errors.New("body: restitution must be within [0, 1]")
	ErrInvalidShape       = errors.New("body: invalid shape dimensions")
)

// ID identifies a body inside a scene. Zero means unassigned.
type ID uint64

type Kind int

const (
	KindSphere Kind = iota
	KindPlane
	KindBox
)

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindPlane:
		return "plane"
	case KindBox:
		return "box"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case "sphere":
		return KindSphere, nil
	case "plane":
		return KindPlane, nil
	case "box", "aabb":
		return KindBox, nil
	}
	return 0, fmt.Errorf("body: unknown shape %q", s)
}

// Body is the closed set {*Sphere, *Plane, *Box}. The unexported method keeps
// other packages from adding variants, so shape dispatch can switch on the
// concrete type exhaustively.
type Body interface {
	Rigid() *Rigidbody
	Kind() Kind
	ID() ID
	ApplyForce(f mgl64.Vec3)
	ApplyImpulseForce(f mgl64.Vec3)
	Update(dt float64)
	Draw(d draw.Drawer)
	Validate() error
	shape()
}

// Rigidbody holds the state shared by every shape.
type Rigidbody struct {
	Position     mgl64.Vec3
	Velocity     mgl64.Vec3
	Acceleration mgl64.Vec3
	Mass         float64
	Friction     float64
	Restitution  float64
	Color        mgl64.Vec4
	Dynamic      bool

	id ID
}

func newRigidbody(pos mgl64.Vec3, dynamic bool) Rigidbody {
	return Rigidbody{
		Position:    pos,
		Mass:        DefaultMass,
		Friction:    DefaultFriction,
		Restitution: DefaultRestitution,
		Color:       DefaultColor,
		Dynamic:     dynamic,
	}
}

func (r *Rigidbody) Rigid() *Rigidbody { return r }
func (r *Rigidbody) ID() ID            { return r.id }

// SetID is called by the owning scene when the body is inserted or restored.
func (r *Rigidbody) SetID(id ID) { r.id = id }

// ApplyForce accumulates f/mass into the acceleration for the current step.
func (r *Rigidbody) ApplyForce(f mgl64.Vec3) {
	r.Acceleration = r.Acceleration.Add(f.Mul(1 / r.Mass))
}

// ApplyImpulseForce changes velocity immediately, bypassing integration.
func (r *Rigidbody) ApplyImpulseForce(f mgl64.Vec3) {
	r.Velocity = r.Velocity.Add(f.Mul(1 / r.Mass))
}

func (r *Rigidbody) Update(dt float64) {
	if !r.Dynamic {
		r.Acceleration = mgl64.Vec3{}
		return
	}
	r.integrateVelocity(dt)
	r.Position = r.Position.Add(r.Velocity.Mul(dt))
	r.Acceleration = mgl64.Vec3{}
}

// integrateVelocity applies damping, integrates acceleration and snaps tiny
// velocities to zero.
func (r *Rigidbody) integrateVelocity(dt float64) {
	r.ApplyForce(r.Velocity.Mul(-r.Friction))
	r.Velocity = r.Velocity.Add(r.Acceleration.Mul(dt))
	if r.Velocity.Len() < Epsilon {
		r.Velocity = mgl64.Vec3{}
	}
}

func (r *Rigidbody) validate() error {
	if !(r.Mass > 0) {
		return fmt.Errorf("%w: got %g", ErrInvalidMass, r.Mass)
	}
	if r.Restitution < 0 || r.Restitution > 1 {
		return fmt.Errorf("%w: got %g", ErrInvalidRestitution, r.Restitution)
	}
	return nil
}

type Option func(*Rigidbody)

func WithMass(m float64) Option        { return func(r *Rigidbody) { r.Mass = m } }
func WithFriction(f float64) Option    { return func(r *Rigidbody) { r.Friction = f } }
func WithRestitution(e float64) Option { return func(r *Rigidbody) { r.Restitution = e } }
func WithColor(c mgl64.Vec4) Option    { return func(r *Rigidbody) { r.Color = c } }
func WithDynamic(d bool) Option        { return func(r *Rigidbody) { r.Dynamic = d } }
func WithVelocity(v mgl64.Vec3) Option { return func(r *Rigidbody) { r.Velocity = v } }

func (r *Rigidbody) apply(opts []Option) {
	for _, opt := range opts {
		opt(r)
	}
}
