// Package scenefile saves and loads scenes as YAML.
//
// Every body is written with its id so constraints, which reference bodies
// by id, resolve to the same bodies after a reload. Loading is all or
// nothing: a scene is returned only when every body and constraint in the
// document decoded and validated.
package scenefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/scene"
	"gopkg.in/yaml.v3"
)

// File is the document layout.
type File struct {
	Settings    Settings           `yaml:"settings"`
	Bodies      []BodyRecord       `yaml:"bodies"`
	Constraints []ConstraintRecord `yaml:"constraints"`
}

type Settings struct {
	TimeStep       float64    `yaml:"timestep"`
	Gravity        mgl64.Vec3 `yaml:"gravity,flow"`
	GlobalForce    mgl64.Vec3 `yaml:"global_force,flow"`
	Partitioned    bool       `yaml:"partitioned"`
	Origin         mgl64.Vec3 `yaml:"origin,flow"`
	HalfExtents    mgl64.Vec3 `yaml:"half_extents,flow"`
	MinCell        mgl64.Vec3 `yaml:"min_cell,flow"`
	VolumeColors   bool       `yaml:"volume_colors,omitempty"`
	ShowPartitions bool       `yaml:"show_partitions,omitempty"`
}

// BodyRecord fields are pointers so an absent key can be told apart from a
// zero value.
type BodyRecord struct {
	ID           *body.ID    `yaml:"id"`
	Shape        string      `yaml:"shape"`
	Dynamic      *bool       `yaml:"dynamic"`
	Friction     *float64    `yaml:"friction"`
	Mass         *float64    `yaml:"mass"`
	Restitution  *float64    `yaml:"restitution"`
	Position     *mgl64.Vec3 `yaml:"position,flow"`
	Velocity     *mgl64.Vec3 `yaml:"velocity,flow"`
	Acceleration *mgl64.Vec3 `yaml:"acceleration,flow"`
	Color        *mgl64.Vec4 `yaml:"color,flow"`

	Radius *float64 `yaml:"radius,omitempty"`
	Detail *[2]int  `yaml:"detail,flow,omitempty"`

	Normal   *mgl64.Vec3 `yaml:"normal,flow,omitempty"`
	Distance *float64    `yaml:"distance,omitempty"`

	Extents *mgl64.Vec3 `yaml:"extents,flow,omitempty"`
}

type ConstraintRecord struct {
	Type       string      `yaml:"type"`
	Actor      *body.ID    `yaml:"actor"`
	Other      *body.ID    `yaml:"other"`
	Color      *mgl64.Vec4 `yaml:"color,flow"`
	Stiffness  *float64    `yaml:"stiffness,omitempty"`
	RestLength *float64    `yaml:"rest_length,omitempty"`
	Damping    *float64    `yaml:"damping,omitempty"`
}

// Snapshot captures the scene's settings, bodies and constraints.
func Snapshot(s *scene.Scene) *File {
	opts := s.Options()
	f := &File{
		Settings: Settings{
			TimeStep:       opts.TimeStep,
			Gravity:        opts.Gravity,
			GlobalForce:    opts.GlobalForce,
			Partitioned:    opts.Partitioned,
			Origin:         opts.Origin,
			HalfExtents:    opts.HalfExtents,
			MinCell:        opts.MinCell,
			VolumeColors:   opts.VolumeColors,
			ShowPartitions: opts.ShowPartitions,
		},
		Bodies:      make([]BodyRecord, 0, s.Len()),
		Constraints: make([]ConstraintRecord, 0),
	}
	for _, b := range s.Bodies() {
		f.Bodies = append(f.Bodies, bodyRecord(b))
	}
	for _, c := range s.Constraints() {
		f.Constraints = append(f.Constraints, constraintRecord(c))
	}
	return f
}

func bodyRecord(b body.Body) BodyRecord {
	r := b.Rigid()
	id := b.ID()
	rec := BodyRecord{
		ID:           &id,
		Shape:        b.Kind().String(),
		Dynamic:      ptr(r.Dynamic),
		Friction:     ptr(r.Friction),
		Mass:         ptr(r.Mass),
		Restitution:  ptr(r.Restitution),
		Position:     ptr(r.Position),
		Velocity:     ptr(r.Velocity),
		Acceleration: ptr(r.Acceleration),
		Color:        ptr(r.Color),
	}
	switch v := b.(type) {
	case *body.Sphere:
		rec.Radius = ptr(v.Radius)
		rec.Detail = ptr(v.Detail)
	case *body.Plane:
		rec.Normal = ptr(v.Normal())
		rec.Distance = ptr(v.Distance())
	case *body.Box:
		rec.Extents = ptr(v.Extents)
	}
	return rec
}

func constraintRecord(c constraint.Constraint) ConstraintRecord {
	actor, other := c.Actor(), c.Other()
	rec := ConstraintRecord{
		Type:  c.Kind().String(),
		Actor: &actor,
		Other: &other,
		Color: ptr(c.Color()),
	}
	if s, ok := c.(*constraint.Spring); ok {
		rec.Stiffness = ptr(s.Stiffness)
		rec.RestLength = ptr(s.RestLength)
		rec.Damping = ptr(s.Damping)
	}
	return rec
}

func ptr[T any](v T) *T { return &v }

// Encode writes the scene as a YAML document.
func Encode(w io.Writer, s *scene.Scene) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Snapshot(s)); err != nil {
		return err
	}
	return enc.Close()
}

// Parse reads a document without building a scene. Unknown keys are
// rejected. Settings missing from the document keep scene defaults.
func Parse(r io.Reader) (*File, error) {
	opts := scene.DefaultOptions()
	f := &File{Settings: Settings{
		TimeStep:    opts.TimeStep,
		Gravity:     opts.Gravity,
		HalfExtents: opts.HalfExtents,
		MinCell:     opts.MinCell,
	}}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return f, nil
}

// Build assembles a fresh scene from the document. On any error the partly
// built scene is discarded and nil is returned.
func (f *File) Build(logger *log.Logger) (*scene.Scene, error) {
	st := f.Settings
	s, err := scene.New(scene.Options{
		TimeStep:       st.TimeStep,
		Gravity:        st.Gravity,
		GlobalForce:    st.GlobalForce,
		Partitioned:    st.Partitioned,
		Origin:         st.Origin,
		HalfExtents:    st.HalfExtents,
		MinCell:        st.MinCell,
		VolumeColors:   st.VolumeColors,
		ShowPartitions: st.ShowPartitions,
		Logger:         logger,
	})
	if err != nil {
		return nil, &FieldError{Section: "settings", Err: err}
	}

	for i, rec := range f.Bodies {
		b, err := rec.body(i)
		if err != nil {
			return nil, err
		}
		if err := s.Restore(b, *rec.ID); err != nil {
			return nil, &FieldError{Section: "bodies", Index: i, Field: "id", Err: err}
		}
	}

	for i, rec := range f.Constraints {
		c, err := rec.constraint(i, s)
		if err != nil {
			return nil, err
		}
		if _, err := s.AddConstraint(c); err != nil {
			return nil, &FieldError{Section: "constraints", Index: i, Err: err}
		}
	}
	return s, nil
}

func (rec BodyRecord) body(i int) (body.Body, error) {
	const section = "bodies"
	if rec.ID == nil {
		return nil, missing(section, i, "id")
	}
	if rec.Shape == "" {
		return nil, missing(section, i, "shape")
	}
	kind, err := body.ParseKind(rec.Shape)
	if err != nil {
		return nil, &FieldError{Section: section, Index: i, Field: "shape", Err: fmt.Errorf("%w %q", ErrUnknownShape, rec.Shape)}
	}

	common := []struct {
		name    string
		present bool
	}{
		{"dynamic", rec.Dynamic != nil},
		{"friction", rec.Friction != nil},
		{"mass", rec.Mass != nil},
		{"restitution", rec.Restitution != nil},
		{"position", rec.Position != nil},
		{"velocity", rec.Velocity != nil},
		{"acceleration", rec.Acceleration != nil},
		{"color", rec.Color != nil},
	}
	for _, f := range common {
		if !f.present {
			return nil, missing(section, i, f.name)
		}
	}

	var b body.Body
	switch kind {
	case body.KindSphere:
		if rec.Radius == nil {
			return nil, missing(section, i, "radius")
		}
		sp := body.NewSphere(*rec.Radius, *rec.Position)
		if rec.Detail != nil {
			sp.Detail = *rec.Detail
		}
		b = sp
	case body.KindPlane:
		if rec.Normal == nil {
			return nil, missing(section, i, "normal")
		}
		if rec.Distance == nil {
			return nil, missing(section, i, "distance")
		}
		b = body.NewPlane(*rec.Normal, *rec.Distance)
	case body.KindBox:
		if rec.Extents == nil {
			return nil, missing(section, i, "extents")
		}
		b = body.NewBox(*rec.Extents, *rec.Position)
	}

	r := b.Rigid()
	r.Dynamic = *rec.Dynamic
	r.Friction = *rec.Friction
	r.Mass = *rec.Mass
	r.Restitution = *rec.Restitution
	r.Velocity = *rec.Velocity
	r.Acceleration = *rec.Acceleration
	r.Color = *rec.Color

	if err := b.Validate(); err != nil {
		return nil, &FieldError{Section: section, Index: i, Err: err}
	}
	return b, nil
}

func (rec ConstraintRecord) constraint(i int, s *scene.Scene) (constraint.Constraint, error) {
	const section = "constraints"
	if rec.Type == "" {
		return nil, missing(section, i, "type")
	}
	kind, err := constraint.ParseKind(rec.Type)
	if err != nil {
		return nil, &FieldError{Section: section, Index: i, Field: "type", Err: fmt.Errorf("%w %q", ErrUnknownConstraint, rec.Type)}
	}
	if rec.Actor == nil {
		return nil, missing(section, i, "actor")
	}
	if rec.Other == nil {
		return nil, missing(section, i, "other")
	}
	if rec.Color == nil {
		return nil, missing(section, i, "color")
	}
	for _, end := range []struct {
		field string
		id    body.ID
	}{{"actor", *rec.Actor}, {"other", *rec.Other}} {
		if _, ok := s.Body(end.id); !ok {
			return nil, &FieldError{Section: section, Index: i, Field: end.field, Err: fmt.Errorf("%w: %d", ErrDanglingReference, end.id)}
		}
	}

	switch kind {
	case constraint.KindSpring:
		switch {
		case rec.Stiffness == nil:
			return nil, missing(section, i, "stiffness")
		case rec.RestLength == nil:
			return nil, missing(section, i, "rest_length")
		case rec.Damping == nil:
			return nil, missing(section, i, "damping")
		}
		sp := constraint.NewSpring(*rec.Actor, *rec.Other)
		sp.Tint = *rec.Color
		sp.Stiffness = *rec.Stiffness
		sp.RestLength = *rec.RestLength
		sp.Damping = *rec.Damping
		return sp, nil
	}
	return nil, &FieldError{Section: section, Index: i, Field: "type", Err: fmt.Errorf("%w %q", ErrUnknownConstraint, rec.Type)}
}

// Decode reads a document and builds a scene with a discarding logger.
func Decode(r io.Reader) (*scene.Scene, error) {
	f, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return f.Build(nil)
}

// SaveFile writes the scene to path, replacing any existing file.
func SaveFile(path string, s *scene.Scene) error {
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// LoadFile reads path and builds a scene that logs to logger, which may be
// nil.
func LoadFile(path string, logger *log.Logger) (*scene.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return f.Build(logger)
}
