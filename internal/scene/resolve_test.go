package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/collision"
)

func TestResolveElasticExchange(t *testing.T) {
	a := body.NewSphere(1, mgl64.Vec3{0, 0, 0}, body.WithMass(1), body.WithRestitution(1), body.WithVelocity(mgl64.Vec3{1, 0, 0}))
	b := body.NewSphere(1, mgl64.Vec3{1.5, 0, 0}, body.WithMass(1), body.WithRestitution(1), body.WithVelocity(mgl64.Vec3{-1, 0, 0}))

	c, hit := collision.Detect(a, b)
	if !hit {
		t.Fatal("expected collision")
	}
	Resolve(c)

	if a.Velocity != (mgl64.Vec3{-1, 0, 0}) {
		t.Errorf("actor velocity = %v, want (-1,0,0)", a.Velocity)
	}
	if b.Velocity != (mgl64.Vec3{1, 0, 0}) {
		t.Errorf("other velocity = %v, want (1,0,0)", b.Velocity)
	}
	if math.Abs(b.Position.X()-a.Position.X()-2) > 1e-12 {
		t.Errorf("spheres not separated: %v %v", a.Position, b.Position)
	}
}

func TestResolveStaticInfiniteMass(t *testing.T) {
	tests := []struct {
		name        string
		restitution float64
		wantVy      float64
	}{
		{"inelastic", 0, 0},
		{"half", 0.5, 2.5},
		{"elastic", 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plane := body.NewPlane(mgl64.Vec3{0, 1, 0}, 0)
			ball := body.NewSphere(1, mgl64.Vec3{0, 0.5, 0},
				body.WithMass(3), body.WithRestitution(tt.restitution), body.WithVelocity(mgl64.Vec3{0, -5, 0}))

			c, hit := collision.Detect(ball, plane)
			if !hit {
				t.Fatal("expected collision")
			}
			Resolve(c)

			if math.Abs(ball.Velocity.Y()-tt.wantVy) > 1e-12 {
				t.Errorf("vy = %f, want %f", ball.Velocity.Y(), tt.wantVy)
			}
			if math.Abs(ball.Position.Y()-1) > 1e-12 {
				t.Errorf("y = %f, want 1", ball.Position.Y())
			}
			if plane.Position != (mgl64.Vec3{}) {
				t.Errorf("static plane moved to %v", plane.Position)
			}
		})
	}
}

func TestResolveStaticOther(t *testing.T) {
	// dynamic actor driving into a static box: the impulse still opposes it
	ball := body.NewSphere(1, mgl64.Vec3{-2.5, 0, 0}, body.WithMass(1), body.WithRestitution(0), body.WithVelocity(mgl64.Vec3{4, 0, 0}))
	wall := body.NewBox(mgl64.Vec3{2, 2, 2}, mgl64.Vec3{-1, 0, 0})

	c := collision.Collision{Actor: ball, Other: wall, Normal: mgl64.Vec3{1, 0, 0}, Overlap: 0.5}
	Resolve(c)

	if ball.Velocity.X() != 0 {
		t.Errorf("vx = %f, want 0", ball.Velocity.X())
	}
	if ball.Position.X() != -3 {
		t.Errorf("x = %f, want -3", ball.Position.X())
	}
	if wall.Position.X() != -1 {
		t.Errorf("static wall moved to %v", wall.Position)
	}
}

func TestResolveSkipsZeroNormal(t *testing.T) {
	a := body.NewSphere(1, mgl64.Vec3{}, body.WithVelocity(mgl64.Vec3{1, 0, 0}))
	b := body.NewSphere(1, mgl64.Vec3{})
	c, hit := collision.Detect(a, b)
	if !hit {
		t.Fatal("expected collision")
	}
	Resolve(c)

	if a.Position != (mgl64.Vec3{}) || b.Position != (mgl64.Vec3{}) {
		t.Error("zero normal should not displace bodies")
	}
	if a.Velocity != (mgl64.Vec3{1, 0, 0}) {
		t.Error("zero normal should not change velocity")
	}
}

func TestResolveSeparatingGetsNoImpulse(t *testing.T) {
	a := body.NewSphere(1, mgl64.Vec3{0, 0, 0}, body.WithVelocity(mgl64.Vec3{-1, 0, 0}))
	b := body.NewSphere(1, mgl64.Vec3{1.5, 0, 0}, body.WithVelocity(mgl64.Vec3{1, 0, 0}))
	c, _ := collision.Detect(a, b)
	Resolve(c)

	if a.Velocity != (mgl64.Vec3{-1, 0, 0}) || b.Velocity != (mgl64.Vec3{1, 0, 0}) {
		t.Errorf("separating pair changed velocity: %v %v", a.Velocity, b.Velocity)
	}
	if a.Position.X() != -0.25 || b.Position.X() != 1.75 {
		t.Errorf("positional correction missing: %v %v", a.Position, b.Position)
	}
}

func TestResolveBothStatic(t *testing.T) {
	a := body.NewBox(body.DefaultExtents, mgl64.Vec3{})
	b := body.NewBox(body.DefaultExtents, mgl64.Vec3{1, 0, 0})
	c, hit := collision.Detect(a, b)
	if !hit {
		t.Fatal("expected collision")
	}
	Resolve(c)
	if a.Position != (mgl64.Vec3{}) || b.Position != (mgl64.Vec3{1, 0, 0}) {
		t.Error("static boxes should never move")
	}
}

func TestResolveDynamicPlaneKeepsPosition(t *testing.T) {
	plane := body.NewPlane(mgl64.Vec3{0, 1, 0}, 0, body.WithDynamic(true))
	ball := body.NewSphere(1, mgl64.Vec3{3, 0.5, 0})
	c, hit := collision.Detect(plane, ball)
	if !hit {
		t.Fatal("expected collision")
	}
	Resolve(c)

	if plane.Distance() != -0.25 {
		t.Errorf("distance = %f, want -0.25", plane.Distance())
	}
	want := plane.Normal().Mul(plane.Distance())
	if plane.Position != want {
		t.Errorf("plane position %v drifted from normal*distance %v", plane.Position, want)
	}
}
