package constraint

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/draw"
)

const (
	DefaultStiffness  = 20.0
	DefaultRestLength = 10.0
	DefaultDamping    = 0.5
)

var DefaultColor = mgl64.Vec4{1, 1, 0, 1}

type Kind int

const (
	KindSpring Kind = iota
)

func (k Kind) String() string {
	switch k {
	case KindSpring:
		return "spring"
	}
	return fmt.Sprintf("constraint(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case "spring":
		return KindSpring, nil
	}
	return 0, fmt.Errorf("constraint: unknown type %q", s)
}

// Bodies resolves the ids a constraint is attached to. The scene implements it.
type Bodies interface {
	Body(id body.ID) (body.Body, bool)
}

// Constraint links two bodies by id and injects forces into them every step.
type Constraint interface {
	Kind() Kind
	Actor() body.ID
	Other() body.ID
	Color() mgl64.Vec4
	Constrain(bodies Bodies)
	Draw(bodies Bodies, d draw.Drawer)
}

// Link is the part shared by every constraint.
type Link struct {
	ActorID body.ID
	OtherID body.ID
	Tint    mgl64.Vec4
}

func (l *Link) Actor() body.ID    { return l.ActorID }
func (l *Link) Other() body.ID    { return l.OtherID }
func (l *Link) Color() mgl64.Vec4 { return l.Tint }

// Attaches reports whether the constraint references id.
func Attaches(c Constraint, id body.ID) bool {
	return c.Actor() == id || c.Other() == id
}

func (l *Link) resolve(bodies Bodies) (body.Body, body.Body, bool) {
	actor, ok := bodies.Body(l.ActorID)
	if !ok {
		return nil, nil, false
	}
	other, ok := bodies.Body(l.OtherID)
	if !ok {
		return nil, nil, false
	}
	return actor, other, true
}

func (l *Link) Draw(bodies Bodies, d draw.Drawer) {
	actor, other, ok := l.resolve(bodies)
	if !ok {
		return
	}
	d.Line(actor.Rigid().Position, other.Rigid().Position, l.Tint)
}
