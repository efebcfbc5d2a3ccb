// Package scene owns bodies and constraints and advances them at a fixed
// rate: gravity, integration, constraint forces, broad and narrow phase
// detection, and impulse resolution.
//
// A Scene is not safe for concurrent use. Adapters that render or stream it
// from another goroutine should take draw.Frame snapshots instead.
package scene

import (
	"fmt"
	"io"
	"log"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/collision"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/draw"
	"github.com/san-kum/rigidsim/internal/partition"
)

const DefaultTimeStep = 0.01

var DefaultGravity = mgl64.Vec3{0, -9.8, 0}

type ConstraintID uint64

type StepInfo struct {
	Step       int
	Time       float64
	Collisions []collision.Collision
}

// Observer is notified at the end of every step, after resolution.
type Observer interface {
	OnStep(s *Scene, info StepInfo)
}

type ObserverFunc func(s *Scene, info StepInfo)

func (f ObserverFunc) OnStep(s *Scene, info StepInfo) { f(s, info) }

type Options struct {
	TimeStep    float64
	Gravity     mgl64.Vec3
	GlobalForce mgl64.Vec3

	// Partitioned enables the octree broad phase. Bodies that leave the
	// volume described by Origin and HalfExtents are destroyed.
	Partitioned bool
	Origin      mgl64.Vec3
	HalfExtents mgl64.Vec3
	MinCell     mgl64.Vec3

	// VolumeColors tints bodies by the partition cell they occupy.
	VolumeColors   bool
	ShowPartitions bool

	Logger *log.Logger
}

func DefaultOptions() Options {
	return Options{
		TimeStep:    DefaultTimeStep,
		Gravity:     DefaultGravity,
		HalfExtents: partition.DefaultHalfExtents,
		MinCell:     partition.DefaultMinCell,
	}
}

func (o Options) validate() error {
	if !(o.TimeStep > 0) {
		return fmt.Errorf("%w: timestep must be positive, got %g", ErrInvalidConfig, o.TimeStep)
	}
	for i := 0; i < 3; i++ {
		if !(o.HalfExtents[i] > 0) {
			return fmt.Errorf("%w: half extents must be positive, got %v", ErrInvalidConfig, o.HalfExtents)
		}
		if !(o.MinCell[i] > 0) {
			return fmt.Errorf("%w: min cell must be positive, got %v", ErrInvalidConfig, o.MinCell)
		}
	}
	return nil
}

type Scene struct {
	opts Options
	log  *log.Logger

	bodies     map[body.ID]body.Body
	order      []body.ID
	nextBodyID body.ID

	constraints      map[ConstraintID]constraint.Constraint
	constraintOrder  []ConstraintID
	nextConstraintID ConstraintID

	accumulator float64
	steps       int
	time        float64

	tree       *partition.Tree[body.Body]
	collisions []collision.Collision
	seen       map[pairKey]struct{}
	lastCount  int

	observers []Observer
}

func New(opts Options) (*Scene, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	tree, err := partition.New[body.Body](opts.Origin, opts.HalfExtents, opts.MinCell)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Scene{
		opts:        opts,
		log:         logger,
		bodies:      make(map[body.ID]body.Body),
		constraints: make(map[ConstraintID]constraint.Constraint),
		tree:        tree,
		seen:        make(map[pairKey]struct{}),
	}, nil
}

// AddObject takes ownership of b and assigns it a fresh id. Adding a body
// that is already in the scene returns its current id. A body that fails
// Validate is rejected and left unowned.
func (s *Scene) AddObject(b body.Body) (body.ID, error) {
	if cur, ok := s.bodies[b.ID()]; ok && cur == b {
		return b.ID(), nil
	}
	if err := b.Validate(); err != nil {
		return 0, fmt.Errorf("scene: add %s: %w", b.Kind(), err)
	}
	s.nextBodyID++
	id := s.nextBodyID
	b.Rigid().SetID(id)
	s.bodies[id] = b
	s.order = append(s.order, id)
	return id, nil
}

// Restore inserts b under a caller-chosen id, as when reloading a saved
// scene. Later AddObject calls never reuse a restored id.
func (s *Scene) Restore(b body.Body, id body.ID) error {
	if id == 0 {
		return ErrInvalidID
	}
	if _, ok := s.bodies[id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}
	if err := b.Validate(); err != nil {
		return fmt.Errorf("scene: restore %s %d: %w", b.Kind(), id, err)
	}
	b.Rigid().SetID(id)
	s.bodies[id] = b
	s.order = append(s.order, id)
	if id > s.nextBodyID {
		s.nextBodyID = id
	}
	return nil
}

// RemoveObject releases the body to the caller and destroys every constraint
// attached to it.
func (s *Scene) RemoveObject(id body.ID) (body.Body, error) {
	b, ok := s.bodies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBody, id)
	}
	delete(s.bodies, id)
	s.order = removeID(s.order, id)

	for _, cid := range append([]ConstraintID(nil), s.constraintOrder...) {
		if constraint.Attaches(s.constraints[cid], id) {
			s.dropConstraint(cid)
			s.log.Printf("[Scene] constraint %d destroyed with body %d", cid, id)
		}
	}
	return b, nil
}

func (s *Scene) AddConstraint(c constraint.Constraint) (ConstraintID, error) {
	if _, ok := s.bodies[c.Actor()]; !ok {
		return 0, fmt.Errorf("%w: actor %d", ErrDetachedConstraint, c.Actor())
	}
	if _, ok := s.bodies[c.Other()]; !ok {
		return 0, fmt.Errorf("%w: other %d", ErrDetachedConstraint, c.Other())
	}
	s.nextConstraintID++
	id := s.nextConstraintID
	s.constraints[id] = c
	s.constraintOrder = append(s.constraintOrder, id)
	return id, nil
}

func (s *Scene) RemoveConstraint(id ConstraintID) (constraint.Constraint, error) {
	c, ok := s.constraints[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownConstraint, id)
	}
	s.dropConstraint(id)
	return c, nil
}

func (s *Scene) dropConstraint(id ConstraintID) {
	delete(s.constraints, id)
	for i, cid := range s.constraintOrder {
		if cid == id {
			s.constraintOrder = append(s.constraintOrder[:i], s.constraintOrder[i+1:]...)
			return
		}
	}
}

// Body implements constraint.Bodies.
func (s *Scene) Body(id body.ID) (body.Body, bool) {
	b, ok := s.bodies[id]
	return b, ok
}

// Bodies returns the bodies in insertion order.
func (s *Scene) Bodies() []body.Body {
	out := make([]body.Body, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.bodies[id])
	}
	return out
}

func (s *Scene) Constraint(id ConstraintID) (constraint.Constraint, bool) {
	c, ok := s.constraints[id]
	return c, ok
}

func (s *Scene) Constraints() []constraint.Constraint {
	out := make([]constraint.Constraint, 0, len(s.constraintOrder))
	for _, id := range s.constraintOrder {
		out = append(out, s.constraints[id])
	}
	return out
}

func (s *Scene) ConstraintIDs() []ConstraintID {
	return append([]ConstraintID(nil), s.constraintOrder...)
}

func (s *Scene) Len() int { return len(s.order) }

func (s *Scene) Options() Options { return s.opts }

func (s *Scene) Gravity() mgl64.Vec3         { return s.opts.Gravity }
func (s *Scene) SetGravity(g mgl64.Vec3)     { s.opts.Gravity = g }
func (s *Scene) GlobalForce() mgl64.Vec3     { return s.opts.GlobalForce }
func (s *Scene) SetGlobalForce(f mgl64.Vec3) { s.opts.GlobalForce = f }
func (s *Scene) Partitioned() bool           { return s.opts.Partitioned }
func (s *Scene) SetPartitioned(on bool)      { s.opts.Partitioned = on }
func (s *Scene) SetVolumeColors(on bool)     { s.opts.VolumeColors = on }
func (s *Scene) SetShowPartitions(on bool)   { s.opts.ShowPartitions = on }
func (s *Scene) AddObserver(o Observer)      { s.observers = append(s.observers, o) }
func (s *Scene) TimeStep() float64           { return s.opts.TimeStep }
func (s *Scene) Steps() int                  { return s.steps }
func (s *Scene) Time() float64               { return s.time }
func (s *Scene) LastCollisionCount() int     { return s.lastCount }

// Volume returns the simulation volume as origin and half extents.
func (s *Scene) Volume() (mgl64.Vec3, mgl64.Vec3) {
	return s.opts.Origin, s.opts.HalfExtents
}

func (s *Scene) SetTimeStep(h float64) error {
	if !(h > 0) {
		return fmt.Errorf("%w: timestep must be positive, got %g", ErrInvalidConfig, h)
	}
	s.opts.TimeStep = h
	return nil
}

// SetVolume moves or resizes the simulation volume and rebuilds the tree.
func (s *Scene) SetVolume(origin, halfExtents mgl64.Vec3) error {
	if err := s.tree.Reset(origin, halfExtents, s.opts.MinCell); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	s.opts.Origin, s.opts.HalfExtents = origin, halfExtents
	return nil
}

func (s *Scene) SetMinCell(minCell mgl64.Vec3) error {
	if err := s.tree.Reset(s.opts.Origin, s.opts.HalfExtents, minCell); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	s.opts.MinCell = minCell
	return nil
}

// Collisions returns a copy of the collisions detected in the current step.
// The list is cleared once observers have run, so it is empty between steps.
func (s *Scene) Collisions() []collision.Collision {
	return append([]collision.Collision(nil), s.collisions...)
}

// ApplyGlobalForce pushes the scene-wide force into every body once. Callers
// invoke it per frame before FixedUpdate.
func (s *Scene) ApplyGlobalForce() {
	if s.opts.GlobalForce.Len() == 0 {
		return
	}
	for _, id := range s.order {
		s.bodies[id].ApplyForce(s.opts.GlobalForce)
	}
}

// FixedUpdate accumulates dt and runs as many whole steps as fit. Leftover
// time carries into the next call. It returns the number of steps run.
func (s *Scene) FixedUpdate(dt float64) int {
	if !(dt > 0) {
		return 0
	}
	s.accumulator += dt
	n := 0
	for s.accumulator >= s.opts.TimeStep {
		s.Step()
		s.accumulator -= s.opts.TimeStep
		n++
	}
	return n
}

// Step advances the scene by exactly one timestep.
func (s *Scene) Step() {
	h := s.opts.TimeStep

	for _, id := range s.order {
		b := s.bodies[id]
		b.ApplyForce(s.opts.Gravity.Mul(b.Rigid().Mass))
	}
	for _, id := range s.order {
		s.bodies[id].Update(h)
	}
	for _, id := range s.constraintOrder {
		s.constraints[id].Constrain(s)
	}

	s.detect()

	for _, c := range s.collisions {
		Resolve(c)
	}

	s.steps++
	s.time += h
	s.lastCount = len(s.collisions)

	if len(s.observers) > 0 {
		info := StepInfo{Step: s.steps, Time: s.time, Collisions: s.Collisions()}
		for _, o := range s.observers {
			o.OnStep(s, info)
		}
	}

	s.collisions = s.collisions[:0]
}

// Draw issues every body, then every constraint, then the partition cells
// when enabled.
func (s *Scene) Draw(d draw.Drawer) {
	for _, id := range s.order {
		s.bodies[id].Draw(d)
	}
	for _, id := range s.constraintOrder {
		s.constraints[id].Draw(s, d)
	}
	if s.opts.Partitioned && s.opts.ShowPartitions {
		s.tree.Walk(func(n *partition.Node[body.Body]) {
			if n.Leaf() {
				d.Box(n.Bounds.Center, n.Bounds.HalfExtents, partitionColor)
			}
		})
	}
}

func removeID(ids []body.ID, id body.ID) []body.ID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
