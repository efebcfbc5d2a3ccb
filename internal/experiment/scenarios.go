package experiment

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/scene"
)

// Params tunes a scenario. Zero fields fall back to the scenario default.
type Params struct {
	Count       int
	Spacing     float64
	Radius      float64
	Mass        float64
	Restitution float64
	Height      float64
}

func orInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orFloat(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

var floorColor = mgl64.Vec4{0.4, 0.4, 0.4, 1}

func addFloor(s *scene.Scene) error {
	_, err := s.AddObject(body.NewPlane(body.DefaultPlaneNormal, 0, body.WithColor(floorColor)))
	return err
}

func randomColor(rng *rand.Rand) mgl64.Vec4 {
	return mgl64.Vec4{0.3 + 0.7*rng.Float64(), 0.3 + 0.7*rng.Float64(), 0.3 + 0.7*rng.Float64(), 1}
}

func buildDrop(s *scene.Scene, p Params, _ *rand.Rand) error {
	if err := addFloor(s); err != nil {
		return err
	}
	ball := body.NewSphere(orFloat(p.Radius, 1), mgl64.Vec3{0, orFloat(p.Height, 10), 0},
		body.WithMass(orFloat(p.Mass, 1)),
		body.WithRestitution(orFloat(p.Restitution, body.DefaultRestitution)),
		body.WithColor(mgl64.Vec4{0.9, 0.3, 0.3, 1}),
	)
	if _, err := s.AddObject(ball); err != nil {
		return err
	}
	return nil
}

func buildSphereGrid(s *scene.Scene, p Params, rng *rand.Rand) error {
	if err := addFloor(s); err != nil {
		return err
	}
	n := orInt(p.Count, 4)
	radius := orFloat(p.Radius, 1)
	spacing := orFloat(p.Spacing, 3*radius)
	base := orFloat(p.Height, 5)
	offset := spacing * float64(n-1) / 2

	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				jitter := mgl64.Vec3{rng.Float64() - 0.5, 0, rng.Float64() - 0.5}.Mul(0.2 * radius)
				pos := mgl64.Vec3{
					float64(x)*spacing - offset,
					base + float64(y)*spacing,
					float64(z)*spacing - offset,
				}.Add(jitter)
				ball := body.NewSphere(radius, pos,
					body.WithMass(orFloat(p.Mass, body.DefaultMass)),
					body.WithRestitution(orFloat(p.Restitution, body.DefaultRestitution)),
					body.WithColor(randomColor(rng)),
				)
				if _, err := s.AddObject(ball); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// buildCradle hangs a row of touching spheres from static anchors and
// swings the first one in with an impulse.
func buildCradle(s *scene.Scene, p Params, _ *rand.Rand) error {
	n := orInt(p.Count, 5)
	radius := orFloat(p.Radius, 1)
	height := orFloat(p.Height, 10)
	spacing := 2 * radius
	offset := spacing * float64(n-1) / 2

	for i := 0; i < n; i++ {
		x := float64(i)*spacing - offset
		anchor := body.NewBox(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{x, height + constraint.DefaultRestLength, 0})
		ball := body.NewSphere(radius, mgl64.Vec3{x, height, 0},
			body.WithMass(orFloat(p.Mass, 1)),
			body.WithRestitution(orFloat(p.Restitution, 1)),
			body.WithFriction(0.1),
			body.WithColor(mgl64.Vec4{0.8, 0.8, 0.9, 1}),
		)
		aid, err := s.AddObject(anchor)
		if err != nil {
			return err
		}
		bid, err := s.AddObject(ball)
		if err != nil {
			return err
		}
		spring := constraint.NewSpring(aid, bid)
		spring.Stiffness = 200
		if _, err := s.AddConstraint(spring); err != nil {
			return err
		}
		if i == 0 {
			ball.ApplyImpulseForce(mgl64.Vec3{-8 * ball.Mass, 0, 0})
		}
	}
	return nil
}

func buildSpringChain(s *scene.Scene, p Params, _ *rand.Rand) error {
	n := orInt(p.Count, 6)
	radius := orFloat(p.Radius, 0.5)
	height := orFloat(p.Height, 40)
	spacing := orFloat(p.Spacing, constraint.DefaultRestLength/2)

	prev, err := s.AddObject(body.NewBox(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{0, height, 0}))
	if err != nil {
		return err
	}
	for i := 1; i <= n; i++ {
		link := body.NewSphere(radius, mgl64.Vec3{float64(i) * spacing, height, 0},
			body.WithMass(orFloat(p.Mass, 1)),
			body.WithColor(mgl64.Vec4{0.3, 0.7, 0.9, 1}),
		)
		id, err := s.AddObject(link)
		if err != nil {
			return err
		}
		spring := constraint.NewSpring(prev, id)
		spring.RestLength = spacing
		if _, err := s.AddConstraint(spring); err != nil {
			return err
		}
		prev = id
	}
	return nil
}

func buildBoxStack(s *scene.Scene, p Params, _ *rand.Rand) error {
	if err := addFloor(s); err != nil {
		return err
	}
	n := orInt(p.Count, 5)
	size := orFloat(p.Radius, 2) * 2
	gap := orFloat(p.Spacing, 0.5)

	for i := 0; i < n; i++ {
		y := size/2 + float64(i)*(size+gap) + orFloat(p.Height, 1)
		box := body.NewBox(mgl64.Vec3{size, size, size}, mgl64.Vec3{0, y, 0},
			body.WithDynamic(true),
			body.WithMass(orFloat(p.Mass, body.DefaultMass)),
			body.WithRestitution(orFloat(p.Restitution, 0.1)),
			body.WithColor(mgl64.Vec4{0.9, 0.6, 0.2, 1}),
		)
		if _, err := s.AddObject(box); err != nil {
			return err
		}
	}
	return nil
}

func buildMixedPile(s *scene.Scene, p Params, rng *rand.Rand) error {
	if err := addFloor(s); err != nil {
		return err
	}
	n := orInt(p.Count, 20)
	spread := orFloat(p.Spacing, 10)
	base := orFloat(p.Height, 5)

	for i := 0; i < n; i++ {
		pos := mgl64.Vec3{
			(rng.Float64()*2 - 1) * spread,
			base + rng.Float64()*20,
			(rng.Float64()*2 - 1) * spread,
		}
		opts := []body.Option{
			body.WithMass(0.5 + rng.Float64()*3),
			body.WithRestitution(rng.Float64()),
			body.WithColor(randomColor(rng)),
		}

		var b body.Body
		if rng.Intn(2) == 0 {
			b = body.NewSphere(0.5+rng.Float64()*1.5, pos, opts...)
		} else {
			size := 1 + rng.Float64()*2
			b = body.NewBox(mgl64.Vec3{size, size, size}, pos, append(opts, body.WithDynamic(true))...)
		}
		if _, err := s.AddObject(b); err != nil {
			return err
		}
	}
	return nil
}
