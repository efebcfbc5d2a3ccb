package scene_test

import (
	"bytes"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/draw"
	"github.com/san-kum/rigidsim/internal/scene"
)

func weightless() scene.Options {
	opts := scene.DefaultOptions()
	opts.Gravity = mgl64.Vec3{}
	return opts
}

func mustNew(opts scene.Options) *scene.Scene {
	s, err := scene.New(opts)
	Expect(err).NotTo(HaveOccurred())
	return s
}

func mustAdd(s *scene.Scene, b body.Body) body.ID {
	id, err := s.AddObject(b)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return id
}

var _ = Describe("Scene", func() {
	Describe("configuration", func() {
		DescribeTable("rejects invalid options",
			func(mutate func(*scene.Options)) {
				opts := scene.DefaultOptions()
				mutate(&opts)
				_, err := scene.New(opts)
				Expect(err).To(MatchError(scene.ErrInvalidConfig))
			},
			Entry("zero timestep", func(o *scene.Options) { o.TimeStep = 0 }),
			Entry("negative timestep", func(o *scene.Options) { o.TimeStep = -0.01 }),
			Entry("flat volume", func(o *scene.Options) { o.HalfExtents = mgl64.Vec3{50, 0, 50} }),
			Entry("zero cell", func(o *scene.Options) { o.MinCell = mgl64.Vec3{} }),
		)

		It("validates setters", func() {
			s := mustNew(scene.DefaultOptions())
			Expect(s.SetTimeStep(0)).To(MatchError(scene.ErrInvalidConfig))
			Expect(s.SetVolume(mgl64.Vec3{}, mgl64.Vec3{-1, 1, 1})).To(MatchError(scene.ErrInvalidConfig))
			Expect(s.SetMinCell(mgl64.Vec3{0, 1, 1})).To(MatchError(scene.ErrInvalidConfig))
			Expect(s.TimeStep()).To(Equal(scene.DefaultTimeStep))
		})
	})

	Describe("ownership", func() {
		var s *scene.Scene

		BeforeEach(func() {
			s = mustNew(weightless())
		})

		It("assigns increasing ids and keeps insertion order", func() {
			a := body.NewSphere(1, mgl64.Vec3{})
			b := body.NewBox(body.DefaultExtents, mgl64.Vec3{10, 0, 0})
			Expect(s.AddObject(a)).To(Equal(body.ID(1)))
			Expect(s.AddObject(b)).To(Equal(body.ID(2)))
			Expect(s.AddObject(a)).To(Equal(body.ID(1)))
			Expect(s.Bodies()).To(Equal([]body.Body{a, b}))

			got, ok := s.Body(2)
			Expect(ok).To(BeTrue())
			Expect(got).To(BeIdenticalTo(b))
		})

		It("restores bodies under their saved ids", func() {
			a := body.NewSphere(1, mgl64.Vec3{})
			Expect(s.Restore(a, 7)).To(Succeed())
			Expect(a.ID()).To(Equal(body.ID(7)))

			Expect(s.Restore(body.NewSphere(1, mgl64.Vec3{}), 7)).To(MatchError(scene.ErrDuplicateID))
			Expect(s.Restore(body.NewSphere(1, mgl64.Vec3{}), 0)).To(MatchError(scene.ErrInvalidID))
			Expect(s.AddObject(body.NewSphere(1, mgl64.Vec3{}))).To(Equal(body.ID(8)))
		})

		DescribeTable("rejects bodies that break their invariants",
			func(b body.Body, want error) {
				id, err := s.AddObject(b)
				Expect(err).To(MatchError(want))
				Expect(id).To(BeZero())
				Expect(s.Len()).To(BeZero())

				Expect(s.Restore(b, 3)).To(MatchError(want))
				Expect(s.Len()).To(BeZero())
			},
			Entry("zero mass", body.NewSphere(1, mgl64.Vec3{0, 5, 0}, body.WithMass(0)), body.ErrInvalidMass),
			Entry("negative mass", body.NewBox(body.DefaultExtents, mgl64.Vec3{}, body.WithMass(-1)), body.ErrInvalidMass),
			Entry("restitution above one", body.NewSphere(1, mgl64.Vec3{}, body.WithRestitution(1.5)), body.ErrInvalidRestitution),
			Entry("zero radius", body.NewSphere(0, mgl64.Vec3{}), body.ErrInvalidShape),
		)

		It("keeps stepping finite after rejecting a massless body", func() {
			s := mustNew(scene.DefaultOptions())
			ball := body.NewSphere(1, mgl64.Vec3{0, 5, 0})
			mustAdd(s, ball)
			_, err := s.AddObject(body.NewSphere(1, mgl64.Vec3{0, 5, 0}, body.WithMass(0)))
			Expect(err).To(MatchError(body.ErrInvalidMass))

			for i := 0; i < 3; i++ {
				s.Step()
			}
			Expect(s.Len()).To(Equal(1))
			Expect(math.IsNaN(ball.Position.Y())).To(BeFalse())
			Expect(ball.Position.Y()).To(BeNumerically("<", 5))
		})

		It("purges constraints when a body is removed", func() {
			a := mustAdd(s, body.NewSphere(1, mgl64.Vec3{}))
			b := mustAdd(s, body.NewSphere(1, mgl64.Vec3{10, 0, 0}))
			c := mustAdd(s, body.NewSphere(1, mgl64.Vec3{20, 0, 0}))
			_, err := s.AddConstraint(constraint.NewSpring(a, b))
			Expect(err).NotTo(HaveOccurred())
			keep, err := s.AddConstraint(constraint.NewSpring(b, c))
			Expect(err).NotTo(HaveOccurred())

			removed, err := s.RemoveObject(a)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed.ID()).To(Equal(a))
			Expect(s.Len()).To(Equal(2))
			Expect(s.ConstraintIDs()).To(Equal([]scene.ConstraintID{keep}))

			_, err = s.RemoveObject(a)
			Expect(err).To(MatchError(scene.ErrUnknownBody))
		})

		It("rejects constraints to bodies it does not own", func() {
			a := mustAdd(s, body.NewSphere(1, mgl64.Vec3{}))
			_, err := s.AddConstraint(constraint.NewSpring(a, 42))
			Expect(err).To(MatchError(scene.ErrDetachedConstraint))
		})

		It("removes constraints by id", func() {
			a := mustAdd(s, body.NewSphere(1, mgl64.Vec3{}))
			b := mustAdd(s, body.NewSphere(1, mgl64.Vec3{10, 0, 0}))
			spring := constraint.NewSpring(a, b)
			id, err := s.AddConstraint(spring)
			Expect(err).NotTo(HaveOccurred())

			got, err := s.RemoveConstraint(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeIdenticalTo(spring))
			Expect(s.Constraints()).To(BeEmpty())

			_, err = s.RemoveConstraint(id)
			Expect(err).To(MatchError(scene.ErrUnknownConstraint))
		})
	})

	Describe("stepping", func() {
		It("leaves an isolated body at rest untouched", func() {
			s := mustNew(weightless())
			b := body.NewSphere(1, mgl64.Vec3{1, 2, 3})
			s.AddObject(b)
			for i := 0; i < 100; i++ {
				s.Step()
			}
			Expect(b.Position).To(Equal(mgl64.Vec3{1, 2, 3}))
			Expect(b.Velocity).To(Equal(mgl64.Vec3{}))
		})

		It("runs whole steps and carries leftover time", func() {
			opts := weightless()
			opts.TimeStep = 0.125
			s := mustNew(opts)

			Expect(s.FixedUpdate(0.3125)).To(Equal(2))
			Expect(s.FixedUpdate(0.1875)).To(Equal(2))
			Expect(s.FixedUpdate(0)).To(Equal(0))
			Expect(s.FixedUpdate(-1)).To(Equal(0))
			Expect(s.Steps()).To(Equal(4))
			Expect(s.Time()).To(Equal(0.5))
		})

		It("applies the global force only when asked", func() {
			s := mustNew(weightless())
			b := body.NewSphere(1, mgl64.Vec3{}, body.WithMass(2))
			s.AddObject(b)
			s.SetGlobalForce(mgl64.Vec3{4, 0, 0})

			s.Step()
			Expect(b.Velocity).To(Equal(mgl64.Vec3{}))

			s.ApplyGlobalForce()
			s.Step()
			Expect(b.Velocity.X()).To(BeNumerically("~", 0.02, 1e-12))
		})

		It("scales gravity by mass", func() {
			s := mustNew(scene.DefaultOptions())
			light := body.NewSphere(1, mgl64.Vec3{-20, 0, 0}, body.WithMass(1), body.WithFriction(0))
			heavy := body.NewSphere(1, mgl64.Vec3{20, 0, 0}, body.WithMass(10), body.WithFriction(0))
			s.AddObject(light)
			s.AddObject(heavy)
			s.Step()
			Expect(light.Velocity.Y()).To(BeNumerically("~", heavy.Velocity.Y(), 1e-12))
		})

		It("notifies observers after resolution", func() {
			s := mustNew(weightless())
			s.AddObject(body.NewSphere(1, mgl64.Vec3{}))
			s.AddObject(body.NewSphere(1, mgl64.Vec3{1.5, 0, 0}))

			var infos []scene.StepInfo
			s.AddObserver(scene.ObserverFunc(func(sc *scene.Scene, info scene.StepInfo) {
				Expect(sc.Collisions()).To(HaveLen(len(info.Collisions)))
				infos = append(infos, info)
			}))
			s.Step()
			s.Step()

			Expect(infos).To(HaveLen(2))
			Expect(infos[0].Step).To(Equal(1))
			Expect(infos[0].Collisions).To(HaveLen(1))
			Expect(infos[1].Time).To(BeNumerically("~", 0.02, 1e-12))
			Expect(s.Collisions()).To(BeEmpty())
			Expect(s.LastCollisionCount()).To(Equal(len(infos[1].Collisions)))
		})
	})

	Describe("collision response", func() {
		It("never moves a static plane and displaces the sphere fully", func() {
			s := mustNew(weightless())
			plane := body.NewPlane(mgl64.Vec3{0, 1, 0}, 0)
			sphere := body.NewSphere(1, mgl64.Vec3{0, 0.75, 0})
			s.AddObject(plane)
			s.AddObject(sphere)

			s.Step()

			Expect(plane.Position).To(Equal(mgl64.Vec3{}))
			Expect(plane.Distance()).To(Equal(0.0))
			Expect(sphere.Position.Y()).To(BeNumerically("~", 1, 1e-12))
			Expect(sphere.Position.X()).To(Equal(0.0))
		})

		It("pushes overlapping boxes apart along the shallowest axis only", func() {
			s := mustNew(weightless())
			extents := mgl64.Vec3{2, 10, 14}
			a := body.NewBox(extents, mgl64.Vec3{0, 0, 0}, body.WithDynamic(true))
			b := body.NewBox(extents, mgl64.Vec3{1.9, 5, 7}, body.WithDynamic(true))
			s.AddObject(a)
			s.AddObject(b)

			s.Step()

			Expect(a.Position.X()).To(BeNumerically("~", -0.05, 1e-9))
			Expect(b.Position.X()).To(BeNumerically("~", 1.95, 1e-9))
			Expect(a.Position.Y()).To(Equal(0.0))
			Expect(a.Position.Z()).To(Equal(0.0))
			Expect(b.Position.Y()).To(Equal(5.0))
			Expect(b.Position.Z()).To(Equal(7.0))
		})

		It("records a pair spanning several cells once", func() {
			opts := weightless()
			opts.Partitioned = true
			s := mustNew(opts)
			// both boxes straddle the x=0, y=0 and z=0 cell faces
			s.AddObject(body.NewBox(body.DefaultExtents, mgl64.Vec3{0, 0.5, 0.5}, body.WithDynamic(true)))
			s.AddObject(body.NewBox(body.DefaultExtents, mgl64.Vec3{1, 0.5, 0.5}, body.WithDynamic(true)))

			var count int
			s.AddObserver(scene.ObserverFunc(func(_ *scene.Scene, info scene.StepInfo) {
				count = len(info.Collisions)
			}))
			s.Step()
			Expect(count).To(Equal(1))
		})
	})

	Describe("partitioning", func() {
		build := func(partitioned bool) (*scene.Scene, []*body.Sphere) {
			opts := scene.DefaultOptions()
			opts.Partitioned = partitioned
			s := mustNew(opts)
			s.AddObject(body.NewPlane(mgl64.Vec3{0, 1, 0}, 0))
			spheres := []*body.Sphere{
				body.NewSphere(1, mgl64.Vec3{12, 6, 12}, body.WithVelocity(mgl64.Vec3{1, 0, 0})),
				body.NewSphere(1, mgl64.Vec3{14.5, 6, 12}, body.WithVelocity(mgl64.Vec3{-1, 0, 0})),
				body.NewSphere(1, mgl64.Vec3{13, 9, 13}),
			}
			for _, sp := range spheres {
				s.AddObject(sp)
			}
			return s, spheres
		}

		It("matches the full scan when every body shares one cell", func() {
			flat, a := build(false)
			tree, b := build(true)
			for i := 0; i < 300; i++ {
				flat.Step()
				tree.Step()
				for k := range a {
					Expect(b[k].Position).To(Equal(a[k].Position))
					Expect(b[k].Velocity).To(Equal(a[k].Velocity))
				}
			}
		})

		It("destroys bodies that leave the volume with their constraints", func() {
			var buf bytes.Buffer
			opts := weightless()
			opts.Partitioned = true
			opts.Logger = log.New(&buf, "", 0)
			s := mustNew(opts)

			inside := mustAdd(s, body.NewSphere(1, mgl64.Vec3{}))
			outside := mustAdd(s, body.NewSphere(1, mgl64.Vec3{0, 60, 0}))
			straddling := mustAdd(s, body.NewBox(body.DefaultExtents, mgl64.Vec3{49, 0, 0}))
			_, err := s.AddConstraint(constraint.NewSpring(inside, outside))
			Expect(err).NotTo(HaveOccurred())

			s.Step()

			_, ok := s.Body(outside)
			Expect(ok).To(BeFalse())
			_, ok = s.Body(straddling)
			Expect(ok).To(BeFalse())
			Expect(s.Len()).To(Equal(1))
			Expect(s.Constraints()).To(BeEmpty())
			Expect(buf.String()).To(ContainSubstring("[Scene]"))
		})

		It("keeps bodies outside the volume when partitioning is off", func() {
			s := mustNew(weightless())
			s.AddObject(body.NewSphere(1, mgl64.Vec3{0, 60, 0}))
			s.Step()
			Expect(s.Len()).To(Equal(1))
		})

		It("tints bodies by cell when volume colors are on", func() {
			opts := weightless()
			opts.Partitioned = true
			opts.VolumeColors = true
			s := mustNew(opts)
			b := body.NewSphere(1, mgl64.Vec3{10, 10, 10})
			s.AddObject(b)
			s.Step()
			Expect(b.Color).NotTo(Equal(body.DefaultColor))
		})
	})

	Describe("settling", func() {
		DescribeTable("a dropped sphere comes to rest on the floor",
			func(partitioned bool) {
				opts := scene.DefaultOptions()
				opts.Partitioned = partitioned
				s := mustNew(opts)
				s.AddObject(body.NewPlane(mgl64.Vec3{0, 1, 0}, 0))
				ball := body.NewSphere(1, mgl64.Vec3{0, 10, 0}, body.WithMass(1), body.WithRestitution(0.5))
				s.AddObject(ball)

				for i := 0; i < 1000; i++ {
					s.Step()
					Expect(ball.Position.Y()).To(BeNumerically(">=", 1-1e-6))
				}
				Expect(ball.Position.Y()).To(BeNumerically("~", 1, 0.01))
				Expect(ball.Velocity.Y()).To(BeNumerically("~", 0, 0.1))
			},
			Entry("full scan", false),
			Entry("partitioned", true),
		)
	})

	Describe("drawing", func() {
		It("draws bodies, constraints and partition cells", func() {
			opts := weightless()
			s := mustNew(opts)
			a := mustAdd(s, body.NewSphere(1, mgl64.Vec3{}))
			b := mustAdd(s, body.NewSphere(1, mgl64.Vec3{10, 0, 0}))
			s.AddObject(body.NewPlane(mgl64.Vec3{0, 1, 0}, -5))
			_, err := s.AddConstraint(constraint.NewSpring(a, b))
			Expect(err).NotTo(HaveOccurred())

			rec := draw.NewRecorder()
			s.Draw(rec)
			Expect(rec.Primitives()).To(HaveLen(5))

			s.SetPartitioned(true)
			s.SetShowPartitions(true)
			rec.Reset()
			s.Draw(rec)
			Expect(rec.Primitives()).To(HaveLen(5 + 64))
		})
	})
})
