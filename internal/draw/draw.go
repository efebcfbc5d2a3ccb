// Package draw defines the render sink that bodies, constraints and the
// scene draw themselves into.
//
// The simulation never renders anything on its own. A [Drawer] receives
// primitive calls (sphere, box, line) with a pose and a color; [Recorder]
// collects them into a [Frame] for adapters that need a snapshot, such as
// the websocket stream or the SVG exporter.
package draw

import "github.com/go-gl/mathgl/mgl64"

type Drawer interface {
	Sphere(center mgl64.Vec3, radius float64, rows, cols int, color mgl64.Vec4)
	Box(center, halfExtents mgl64.Vec3, color mgl64.Vec4)
	Line(from, to mgl64.Vec3, color mgl64.Vec4)
}

type Kind string

const (
	KindSphere Kind = "sphere"
	KindBox    Kind = "box"
	KindLine   Kind = "line"
)

// Primitive is one recorded draw call. Unused fields stay zero.
type Primitive struct {
	Kind        Kind       `json:"kind"`
	Center      mgl64.Vec3 `json:"center"`
	HalfExtents mgl64.Vec3 `json:"half_extents,omitempty"`
	Radius      float64    `json:"radius,omitempty"`
	Rows        int        `json:"rows,omitempty"`
	Cols        int        `json:"cols,omitempty"`
	To          mgl64.Vec3 `json:"to,omitempty"`
	Color       mgl64.Vec4 `json:"color"`
}

type Frame struct {
	Time       float64     `json:"time"`
	Step       int         `json:"step"`
	Primitives []Primitive `json:"primitives"`
}

type Recorder struct {
	prims []Primitive
}

func NewRecorder() *Recorder {
	return &Recorder{prims: make([]Primitive, 0, 64)}
}

func (r *Recorder) Sphere(center mgl64.Vec3, radius float64, rows, cols int, color mgl64.Vec4) {
	r.prims = append(r.prims, Primitive{Kind: KindSphere, Center: center, Radius: radius, Rows: rows, Cols: cols, Color: color})
}

func (r *Recorder) Box(center, halfExtents mgl64.Vec3, color mgl64.Vec4) {
	r.prims = append(r.prims, Primitive{Kind: KindBox, Center: center, HalfExtents: halfExtents, Color: color})
}

func (r *Recorder) Line(from, to mgl64.Vec3, color mgl64.Vec4) {
	r.prims = append(r.prims, Primitive{Kind: KindLine, Center: from, To: to, Color: color})
}

func (r *Recorder) Primitives() []Primitive { return r.prims }

func (r *Recorder) Reset() { r.prims = r.prims[:0] }

// Frame copies the recorded primitives so the recorder can be reused.
func (r *Recorder) Frame(step int, t float64) Frame {
	prims := make([]Primitive, len(r.prims))
	copy(prims, r.prims)
	return Frame{Time: t, Step: step, Primitives: prims}
}

// Replay issues every primitive of the frame against d.
func (f Frame) Replay(d Drawer) {
	for _, p := range f.Primitives {
		switch p.Kind {
		case KindSphere:
			d.Sphere(p.Center, p.Radius, p.Rows, p.Cols, p.Color)
		case KindBox:
			d.Box(p.Center, p.HalfExtents, p.Color)
		case KindLine:
			d.Line(p.Center, p.To, p.Color)
		}
	}
}
