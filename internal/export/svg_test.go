package export

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/draw"
	"github.com/san-kum/rigidsim/internal/viz"
)

func TestFrameToSVG(t *testing.T) {
	rec := draw.NewRecorder()
	rec.Sphere(mgl64.Vec3{}, 2, 16, 16, mgl64.Vec4{1, 0, 0, 1})
	rec.Box(mgl64.Vec3{5, 0, 0}, mgl64.Vec3{1, 1, 1}, mgl64.Vec4{0, 1, 0, 1})
	rec.Line(mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{5, 0, 0}, mgl64.Vec4{0, 0, 1, 1})

	svg := FrameToSVG(rec.Frame(3, 0.03), viz.NewCamera(), 400, 300)
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("not a complete svg document")
	}
	if n := strings.Count(svg, "<circle"); n != 1 {
		t.Errorf("expected 1 circle, got %d", n)
	}
	if n := strings.Count(svg, "<line"); n != 13 {
		t.Errorf("expected 13 lines, got %d", n)
	}
	for _, c := range []string{"#ff0000", "#00ff00", "#0000ff"} {
		if !strings.Contains(svg, c) {
			t.Errorf("missing color %s", c)
		}
	}
}

func TestSVGSkipsHiddenShapes(t *testing.T) {
	cam := viz.NewCamera()
	cam.RotX, cam.RotY = 0, 0
	s := NewSVG(cam, 200, 200)
	s.Sphere(mgl64.Vec3{0, 0, 1000}, 1, 8, 8, mgl64.Vec4{1, 1, 1, 1})
	s.Line(mgl64.Vec3{}, mgl64.Vec3{0, 0, 1000}, mgl64.Vec4{1, 1, 1, 1})
	if s.Shapes() != 0 {
		t.Errorf("shapes behind the camera should be skipped, got %d", s.Shapes())
	}
}

func TestCanvasToSVG(t *testing.T) {
	if CanvasToSVG(nil, 2, "#fff") != "" {
		t.Error("nil canvas should give an empty string")
	}

	c := viz.NewCanvas(4, 2)
	c.Set(0, 0)
	c.Set(7, 7)
	svg := CanvasToSVG(c, 2, "#00ff00")
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("expected 2 dots, got %d", n)
	}
	if !strings.Contains(svg, `width="16" height="16"`) {
		t.Error("expected a 16x16 document")
	}
}

func TestTrajectoryToSVG(t *testing.T) {
	if TrajectoryToSVG([]mgl64.Vec2{{0, 0}}, 100, 100, "#fff") != "" {
		t.Error("a single point is not a trajectory")
	}

	points := []mgl64.Vec2{{0, 10}, {1, 5}, {2, 0}}
	svg := TrajectoryToSVG(points, 120, 100, "#00ccff")
	if strings.Count(svg, " L") != 2 {
		t.Error("expected two line segments")
	}
	if !strings.Contains(svg, `d="M10.0,8.3`) {
		t.Errorf("first point should sit inside the margin: %s", svg)
	}
}
