package export

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/draw"
	"github.com/san-kum/rigidsim/internal/viz"
)

const svgHeader = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`

// SVG is a draw.Drawer that writes vector shapes, projected through a
// camera, in each primitive's own color.
type SVG struct {
	Camera        *viz.Camera
	Width, Height int
	sb            strings.Builder
	shapes        int
}

var _ draw.Drawer = (*SVG)(nil)

func NewSVG(cam *viz.Camera, width, height int) *SVG {
	return &SVG{Camera: cam, Width: width, Height: height}
}

func (s *SVG) Sphere(center mgl64.Vec3, radius float64, _, _ int, color mgl64.Vec4) {
	x, y, ppu, front := s.Camera.ProjectScale(center, s.Width, s.Height)
	if !front {
		return
	}
	fmt.Fprintf(&s.sb, `<circle cx="%d" cy="%d" r="%.1f" fill="%s" fill-opacity="%.2f"/>`+"\n",
		x, y, radius*ppu, viz.Hex(color), color[3])
	s.shapes++
}

func (s *SVG) Box(center, halfExtents mgl64.Vec3, color mgl64.Vec4) {
	for _, e := range viz.BoxWireframe(center, halfExtents).Edges {
		s.Line(e.Start, e.End, color)
	}
}

func (s *SVG) Line(from, to mgl64.Vec3, color mgl64.Vec4) {
	x1, y1, _, f1 := s.Camera.ProjectScale(from, s.Width, s.Height)
	x2, y2, _, f2 := s.Camera.ProjectScale(to, s.Width, s.Height)
	if !f1 || !f2 {
		return
	}
	fmt.Fprintf(&s.sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="1"/>`+"\n",
		x1, y1, x2, y2, viz.Hex(color))
	s.shapes++
}

// Shapes reports how many SVG elements were written.
func (s *SVG) Shapes() int { return s.shapes }

func (s *SVG) String() string {
	return fmt.Sprintf(svgHeader, s.Width, s.Height, s.Width, s.Height) + s.sb.String() + "</svg>"
}

// FrameToSVG renders a recorded frame as a standalone SVG document.
func FrameToSVG(f draw.Frame, cam *viz.Camera, width, height int) string {
	s := NewSVG(cam, width, height)
	f.Replay(s)
	return s.String()
}

// CanvasToSVG converts a Braille canvas to SVG format, one dot per lit pixel.
func CanvasToSVG(canvas *viz.Canvas, scale float64, color string) string {
	if canvas == nil {
		return ""
	}

	pw, ph := canvas.Pixels()
	width := int(float64(pw) * scale)
	height := int(float64(ph) * scale)

	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, width, height, width, height)
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", color)

	dotRadius := scale * 0.4
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TrajectoryToSVG plots a polyline of (x, y) points scaled to fit the image
// with a 10% margin.
func TrajectoryToSVG(points []mgl64.Vec2, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X(), points[0].X()
	minY, maxY := points[0].Y(), points[0].Y()
	for _, p := range points {
		minX, maxX = min(minX, p.X()), max(maxX, p.X())
		minY, maxY = min(minY, p.Y()), max(maxY, p.Y())
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, width, height, width, height)
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor)

	for i, p := range points {
		x := (p.X() - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y()-minY)/rangeY*float64(height)

		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
