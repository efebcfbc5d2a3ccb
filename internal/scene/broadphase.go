package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/collision"
	"github.com/san-kum/rigidsim/internal/partition"
)

var partitionColor = mgl64.Vec4{0.5, 0.5, 0.5, 1}

// volumePalette is cycled by leaf index when VolumeColors is on.
var volumePalette = []mgl64.Vec4{
	{0.90, 0.30, 0.30, 1},
	{0.30, 0.80, 0.40, 1},
	{0.30, 0.50, 0.90, 1},
	{0.95, 0.75, 0.25, 1},
	{0.70, 0.35, 0.85, 1},
	{0.25, 0.80, 0.80, 1},
	{0.95, 0.55, 0.20, 1},
	{0.60, 0.60, 0.60, 1},
}

func volumeColor(index int) mgl64.Vec4 {
	return volumePalette[index%len(volumePalette)]
}

// pairKey identifies an unordered body pair within one step.
type pairKey struct{ lo, hi body.ID }

func keyOf(a, b body.ID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// detect fills s.collisions for the current step. Non-plane bodies are
// tested per octree leaf when partitioning is on and all together otherwise;
// planes are always tested globally against every non-plane body.
func (s *Scene) detect() {
	clear(s.seen)

	if s.opts.Partitioned {
		s.repartition()
		s.tree.WalkLeaves(func(n *partition.Node[body.Body]) {
			s.detectAll(n.Objects)
		})
	} else {
		s.detectAll(s.solids())
	}

	s.detectPlanes()
}

// repartition rebuilds the leaf lists from current positions. Bodies outside
// the volume are removed and destroyed; a box counts as outside as soon as
// one corner is.
func (s *Scene) repartition() {
	s.tree.Clear()

	for _, b := range s.Bodies() {
		points := samplePoints(b)
		if !s.inside(points) {
			s.destroy(b)
			continue
		}
		if b.Kind() == body.KindPlane {
			continue
		}
		for _, p := range points {
			s.tree.Insert(p, b)
		}
		if s.opts.VolumeColors {
			if leaf := s.tree.Locate(b.Rigid().Position); leaf != nil {
				b.Rigid().Color = volumeColor(leaf.Index)
			}
		}
	}
}

func (s *Scene) inside(points []mgl64.Vec3) bool {
	for _, p := range points {
		if !s.tree.Contains(p) {
			return false
		}
	}
	return true
}

// samplePoints returns the points used to place b: the eight corners of a
// box, the position of anything else.
func samplePoints(b body.Body) []mgl64.Vec3 {
	if box, ok := b.(*body.Box); ok {
		corners := box.Corners()
		return corners[:]
	}
	return []mgl64.Vec3{b.Rigid().Position}
}

func (s *Scene) destroy(b body.Body) {
	if _, err := s.RemoveObject(b.ID()); err != nil {
		return
	}
	s.log.Printf("[Scene] %s %d left the simulation volume at %v, destroyed", b.Kind(), b.ID(), b.Rigid().Position)
}

// solids returns every non-plane body in insertion order.
func (s *Scene) solids() []body.Body {
	out := make([]body.Body, 0, len(s.order))
	for _, id := range s.order {
		if b := s.bodies[id]; b.Kind() != body.KindPlane {
			out = append(out, b)
		}
	}
	return out
}

func (s *Scene) detectAll(list []body.Body) {
	for i := 0; i < len(list); i++ {
		for j := i + 1; j < len(list); j++ {
			s.detectPair(list[i], list[j])
		}
	}
}

func (s *Scene) detectPlanes() {
	var planes []body.Body
	for _, id := range s.order {
		if b := s.bodies[id]; b.Kind() == body.KindPlane {
			planes = append(planes, b)
		}
	}
	if len(planes) == 0 {
		return
	}
	solids := s.solids()
	for _, p := range planes {
		for _, b := range solids {
			s.detectPair(p, b)
		}
	}
}

func (s *Scene) detectPair(a, b body.Body) {
	key := keyOf(a.ID(), b.ID())
	if _, dup := s.seen[key]; dup {
		return
	}
	s.seen[key] = struct{}{}

	if c, hit := collision.Detect(a, b); hit {
		s.collisions = append(s.collisions, c)
	}
}
