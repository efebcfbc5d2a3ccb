package metrics

import (
	"math"

	"github.com/san-kum/rigidsim/internal/scene"
)

// Contacts is the mean number of collisions resolved per step.
type Contacts struct {
	name    string
	total   int
	samples int
}

func NewContacts() *Contacts {
	return &Contacts{name: "contacts_per_step"}
}

func (c *Contacts) Name() string { return c.name }

func (c *Contacts) OnStep(_ *scene.Scene, info scene.StepInfo) {
	c.total += len(info.Collisions)
	c.samples++
}

func (c *Contacts) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.total) / float64(c.samples)
}

func (c *Contacts) Total() int { return c.total }

func (c *Contacts) Reset() {
	c.total = 0
	c.samples = 0
}

// MaxPenetration is the deepest overlap seen before resolution.
type MaxPenetration struct {
	name string
	max  float64
}

func NewMaxPenetration() *MaxPenetration {
	return &MaxPenetration{name: "max_penetration"}
}

func (m *MaxPenetration) Name() string { return m.name }

func (m *MaxPenetration) OnStep(_ *scene.Scene, info scene.StepInfo) {
	for _, c := range info.Collisions {
		m.max = math.Max(m.max, c.Overlap)
	}
}

func (m *MaxPenetration) Value() float64 { return m.max }

func (m *MaxPenetration) Reset() { m.max = 0 }
