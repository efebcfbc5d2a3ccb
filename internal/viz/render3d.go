package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/draw"
)

// Camera orbits Target and projects world points onto a canvas with a simple
// perspective divide.
type Camera struct {
	Target           mgl64.Vec3
	Distance, Near   float64
	Extent           float64 // world half-size filling the short screen axis at zoom 1
	RotX, RotY, RotZ float64
	Zoom             float64
}

func NewCamera() *Camera {
	return &Camera{Distance: 200, Near: 0.1, Extent: 50, RotX: 0.35, RotY: 0.6, Zoom: 1.0}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// Frame points the camera at the center of a volume and sizes the view so
// the whole volume fits.
func (c *Camera) Frame(center, halfExtents mgl64.Vec3) {
	c.Target = center
	c.Extent = math.Max(halfExtents.Len(), 1)
	c.Distance = 4 * c.Extent
}

// RotatePoint moves p into camera space: relative to Target, rotated about
// X, then Y, then Z.
func (c *Camera) RotatePoint(p mgl64.Vec3) mgl64.Vec3 {
	m := mgl64.Rotate3DZ(c.RotZ).Mul3(mgl64.Rotate3DY(c.RotY)).Mul3(mgl64.Rotate3DX(c.RotX))
	return m.Mul3x1(p.Sub(c.Target))
}

// ProjectScale returns screen coordinates, the pixels per world unit at p, and
// whether p lies in front of the camera.
func (c *Camera) ProjectScale(p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	rot := c.RotatePoint(p).Mul(c.Zoom)
	dist := c.Distance
	if rot.Z() >= dist-c.Near {
		return 0, 0, 0, false
	}
	scale := dist / (dist - rot.Z())
	pScale := float64(min(sw, sh)) / (2 * c.Extent)
	sx := int(math.Round(rot.X()*scale*pScale)) + sw/2
	sy := int(math.Round(-rot.Y()*scale*pScale)) + sh/2
	return sx, sy, scale * pScale * c.Zoom, true
}

// Project converts world coordinates to screen coordinates for a screen of
// sw x sh pixels. Returns x, y, depth, and visibility.
func (c *Camera) Project(p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	x, y, _, front := c.ProjectScale(p, sw, sh)
	if !front {
		return 0, 0, 0, false
	}
	depth := c.RotatePoint(p).Z() * c.Zoom
	return x, y, depth, x >= 0 && x < sw && y >= 0 && y < sh
}

type Edge struct {
	Start, End mgl64.Vec3
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe               { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(s, e mgl64.Vec3) { w.Edges = append(w.Edges, Edge{s, e}) }

// Render3D draws the wireframe to the canvas. Edges with an endpoint behind
// the camera, or with both endpoints off screen, are skipped.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	cw, ch := c.Pixels()
	for _, e := range w.Edges {
		x1, y1, _, v1 := cam.Project(e.Start, cw, ch)
		x2, y2, _, v2 := cam.Project(e.End, cw, ch)
		if !v1 && !v2 {
			continue
		}
		if _, _, _, front := cam.ProjectScale(e.Start, cw, ch); !front {
			continue
		}
		if _, _, _, front := cam.ProjectScale(e.End, cw, ch); !front {
			continue
		}
		if x1 == x2 && y1 == y2 {
			c.Set(x1, y1)
		} else {
			c.DrawLine(x1, y1, x2, y2)
		}
	}
}

var boxEdges = [12][2]int{{0, 1}, {1, 3}, {3, 2}, {2, 0}, {4, 5}, {5, 7}, {7, 6}, {6, 4}, {0, 4}, {1, 5}, {2, 6}, {3, 7}}

// BoxWireframe returns the 12 edges of an axis-aligned box. Corner i takes
// the max coordinate on axis k when bit k of i is set.
func BoxWireframe(center, half mgl64.Vec3) *Wireframe {
	var v [8]mgl64.Vec3
	for i := range v {
		for k := 0; k < 3; k++ {
			if i&(1<<k) != 0 {
				v[i][k] = center[k] + half[k]
			} else {
				v[i][k] = center[k] - half[k]
			}
		}
	}
	w := NewWireframe()
	for _, e := range boxEdges {
		w.AddEdge(v[e[0]], v[e[1]])
	}
	return w
}

func AxesWireframe(l float64) *Wireframe {
	w, o := NewWireframe(), mgl64.Vec3{}
	w.AddEdge(o, mgl64.Vec3{l, 0, 0})
	w.AddEdge(o, mgl64.Vec3{0, l, 0})
	w.AddEdge(o, mgl64.Vec3{0, 0, l})
	return w
}

// Renderer draws primitives onto a braille canvas through a camera. The
// canvas is monochrome, so colors are ignored.
type Renderer struct {
	Canvas *Canvas
	Camera *Camera
}

var _ draw.Drawer = (*Renderer)(nil)

func NewRenderer(c *Canvas, cam *Camera) *Renderer {
	return &Renderer{Canvas: c, Camera: cam}
}

// Sphere draws the silhouette circle plus the equator, traced with cols
// segments.
func (r *Renderer) Sphere(center mgl64.Vec3, radius float64, rows, cols int, _ mgl64.Vec4) {
	cw, ch := r.Canvas.Pixels()
	x, y, ppu, front := r.Camera.ProjectScale(center, cw, ch)
	if !front {
		return
	}
	r.Canvas.DrawCircle(x, y, radius*ppu)
	if rows < 2 || cols < 3 || radius*ppu < 3 {
		return
	}
	ring := NewWireframe()
	prev := center.Add(mgl64.Vec3{radius, 0, 0})
	for i := 1; i <= cols; i++ {
		a := 2 * math.Pi * float64(i) / float64(cols)
		next := center.Add(mgl64.Vec3{radius * math.Cos(a), 0, radius * math.Sin(a)})
		ring.AddEdge(prev, next)
		prev = next
	}
	Render3D(r.Canvas, ring, r.Camera)
}

func (r *Renderer) Box(center, halfExtents mgl64.Vec3, _ mgl64.Vec4) {
	Render3D(r.Canvas, BoxWireframe(center, halfExtents), r.Camera)
}

func (r *Renderer) Line(from, to mgl64.Vec3, _ mgl64.Vec4) {
	w := NewWireframe()
	w.AddEdge(from, to)
	Render3D(r.Canvas, w, r.Camera)
}

// Render clears the canvas and replays a recorded frame onto it.
func (r *Renderer) Render(f draw.Frame) {
	r.Canvas.Clear()
	f.Replay(r)
}
