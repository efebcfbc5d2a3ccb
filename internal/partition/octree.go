// Package partition is a bounded-volume octree used for broad-phase
// bucketing. The tree shape is fixed by the volume and the minimum cell
// size; only the per-leaf object lists change between steps.
package partition

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// maxDepth caps subdivision regardless of the minimum cell size.
	maxDepth = 6
)

var (
	DefaultHalfExtents = mgl64.Vec3{50, 50, 50}
	DefaultMinCell     = mgl64.Vec3{20, 20, 20}
)

var ErrInvalidVolume = errors.New("partition: volume and cell size must be positive")

// Bounds is an axis-aligned cell. Contains is half-open on the upper side so
// that a point on a shared face belongs to exactly one child.
type Bounds struct {
	Center      mgl64.Vec3
	HalfExtents mgl64.Vec3
}

func (b Bounds) Min() mgl64.Vec3 { return b.Center.Sub(b.HalfExtents) }
func (b Bounds) Max() mgl64.Vec3 { return b.Center.Add(b.HalfExtents) }

func (b Bounds) Contains(p mgl64.Vec3) bool {
	lo, hi := b.Min(), b.Max()
	for i := 0; i < 3; i++ {
		if p[i] < lo[i] || p[i] >= hi[i] {
			return false
		}
	}
	return true
}

// octant returns the child bounds for octant oct; bit 0 is +X, bit 1 +Y,
// bit 2 +Z.
func (b Bounds) octant(oct int) Bounds {
	q := b.HalfExtents.Mul(0.5)
	c := b.Center
	for i := 0; i < 3; i++ {
		if oct&(1<<i) != 0 {
			c[i] += q[i]
		} else {
			c[i] -= q[i]
		}
	}
	return Bounds{Center: c, HalfExtents: q}
}

func octantOf(mid, p mgl64.Vec3) int {
	oct := 0
	for i := 0; i < 3; i++ {
		if p[i] >= mid[i] {
			oct |= 1 << i
		}
	}
	return oct
}

type Node[T comparable] struct {
	Bounds   Bounds
	Children *[8]*Node[T]
	Objects  []T
	Index    int
	Depth    int
}

func (n *Node[T]) Leaf() bool { return n.Children == nil }

func (n *Node[T]) add(v T) {
	for _, o := range n.Objects {
		if o == v {
			return
		}
	}
	n.Objects = append(n.Objects, v)
}

type Tree[T comparable] struct {
	root    *Node[T]
	minCell mgl64.Vec3
	leaves  int
}

func New[T comparable](center, halfExtents, minCell mgl64.Vec3) (*Tree[T], error) {
	t := &Tree[T]{}
	if err := t.Reset(center, halfExtents, minCell); err != nil {
		return nil, err
	}
	return t, nil
}

// Reset rebuilds the node structure for a new volume or cell size. All
// object lists are dropped.
func (t *Tree[T]) Reset(center, halfExtents, minCell mgl64.Vec3) error {
	for i := 0; i < 3; i++ {
		if !(halfExtents[i] > 0) || !(minCell[i] > 0) {
			return ErrInvalidVolume
		}
	}
	t.minCell = minCell
	t.leaves = 0
	t.root = t.build(Bounds{Center: center, HalfExtents: halfExtents}, 0)
	return nil
}

func (t *Tree[T]) build(b Bounds, depth int) *Node[T] {
	n := &Node[T]{Bounds: b, Depth: depth}
	if depth >= maxDepth || !t.splittable(b) {
		n.Index = t.leaves
		t.leaves++
		return n
	}
	var children [8]*Node[T]
	for oct := range children {
		children[oct] = t.build(b.octant(oct), depth+1)
	}
	n.Children = &children
	return n
}

// splittable reports whether the children would still be at least the
// minimum cell size on every axis.
func (t *Tree[T]) splittable(b Bounds) bool {
	for i := 0; i < 3; i++ {
		if b.HalfExtents[i] < t.minCell[i] {
			return false
		}
	}
	return true
}

func (t *Tree[T]) Bounds() Bounds { return t.root.Bounds }
func (t *Tree[T]) Leaves() int    { return t.leaves }

func (t *Tree[T]) Contains(p mgl64.Vec3) bool {
	return t.root.Bounds.Contains(p)
}

// Locate returns the leaf containing p, or nil outside the volume.
func (t *Tree[T]) Locate(p mgl64.Vec3) *Node[T] {
	if !t.Contains(p) {
		return nil
	}
	n := t.root
	for !n.Leaf() {
		n = n.Children[octantOf(n.Bounds.Center, p)]
	}
	return n
}

// Insert appends v to the leaf containing p. A value is stored at most once
// per leaf. It returns the leaf, or nil when p is outside the volume.
func (t *Tree[T]) Insert(p mgl64.Vec3, v T) *Node[T] {
	n := t.Locate(p)
	if n != nil {
		n.add(v)
	}
	return n
}

// Clear empties every object list, keeping the node structure.
func (t *Tree[T]) Clear() {
	t.Walk(func(n *Node[T]) {
		n.Objects = n.Objects[:0]
	})
}

// Walk visits every node depth-first, parents before children.
func (t *Tree[T]) Walk(fn func(*Node[T])) {
	var visit func(*Node[T])
	visit = func(n *Node[T]) {
		fn(n)
		if n.Children == nil {
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(t.root)
}

// WalkLeaves visits only leaves that hold at least one object.
func (t *Tree[T]) WalkLeaves(fn func(*Node[T])) {
	t.Walk(func(n *Node[T]) {
		if n.Leaf() && len(n.Objects) > 0 {
			fn(n)
		}
	})
}
