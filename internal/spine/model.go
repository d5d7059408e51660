// Package spine provides a self-contained segment-chain stand-in for a
// tensegrity spine, used by the simulate command and end-to-end tests.
// Cables track their commanded rest length through first-order spring
// dynamics; this is a controllable subject, not a physics engine.
package spine

import (
	"fmt"
	"math"

	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/cpg"
	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/tgio"
)

// Cable is one actuated elastic muscle. Its actual length approaches
// the commanded target under the commanded stiffness and damping.
type Cable struct {
	name       string
	restLength float64
	minLength  float64
	maxLength  float64

	length   float64
	velocity float64

	target    float64
	stiffness float64
	damping   float64
	commands  int
}

func (c *Cable) Name() string {
	return c.name
}

// SetControl stores the impedance command; cable dynamics consume it
// on the next model step.
func (c *Cable) SetControl(targetLength, stiffness, damping float64) {
	c.target = targetLength
	c.stiffness = stiffness
	c.damping = damping
	c.commands++
}

func (c *Cable) RestLength() float64 {
	return c.restLength
}

func (c *Cable) LengthBounds() (float64, float64) {
	return c.minLength, c.maxLength
}

// Length returns the cable's current actual length.
func (c *Cable) Length() float64 {
	return c.length
}

// Commands returns how many setpoints the cable has received.
func (c *Cable) Commands() int {
	return c.commands
}

// advance moves the cable toward its commanded target with
// mass-normalized spring-damper dynamics.
func (c *Cable) advance(dt float64) {
	acc := c.stiffness*(c.target-c.length) - c.damping*c.velocity
	c.velocity += acc * dt
	c.length += c.velocity * dt
	if c.length < c.minLength {
		c.length = c.minLength
		c.velocity = 0
	}
	if c.length > c.maxLength {
		c.length = c.maxLength
		c.velocity = 0
	}
}

// Config sizes the model. Zero values fall back to a two-cable segment
// with a 10-unit rest length and a +/-50% feasible range.
type Config struct {
	Segments         int
	CablesPerSegment int
	RestLength       float64
	MinLength        float64
	MaxLength        float64
}

func (cfg Config) withDefaults() Config {
	if cfg.CablesPerSegment == 0 {
		cfg.CablesPerSegment = 2
	}
	if cfg.RestLength == 0 {
		cfg.RestLength = 10
	}
	if cfg.MinLength == 0 {
		cfg.MinLength = cfg.RestLength / 2
	}
	if cfg.MaxLength == 0 {
		cfg.MaxLength = cfg.RestLength * 1.5
	}
	return cfg
}

// Model is a chain of segments, each actuated by a group of cables.
// It implements the subject capability consumed by the controller.
type Model struct {
	cfg      Config
	segments [][]*Cable
	time     float64
	score    float64
}

func New(cfg Config) (*Model, error) {
	cfg = cfg.withDefaults()
	if cfg.Segments <= 0 {
		return nil, fmt.Errorf("%w: segment count must be positive", cpg.ErrConfig)
	}
	if cfg.MinLength >= cfg.MaxLength || cfg.RestLength < cfg.MinLength || cfg.RestLength > cfg.MaxLength {
		return nil, fmt.Errorf("%w: cable length bounds %v..%v around rest %v",
			cpg.ErrConfig, cfg.MinLength, cfg.MaxLength, cfg.RestLength)
	}

	m := &Model{cfg: cfg, segments: make([][]*Cable, cfg.Segments)}
	for i := range m.segments {
		for j := 0; j < cfg.CablesPerSegment; j++ {
			m.segments[i] = append(m.segments[i], &Cable{
				name:       fmt.Sprintf("seg%d/cable%d", i, j),
				restLength: cfg.RestLength,
				minLength:  cfg.MinLength,
				maxLength:  cfg.MaxLength,
				length:     cfg.RestLength,
				target:     cfg.RestLength,
			})
		}
	}
	return m, nil
}

func (m *Model) SegmentCount() int {
	return len(m.segments)
}

func (m *Model) ActuatorGroup(segment int) []tgio.Actuator {
	if segment < 0 || segment >= len(m.segments) {
		return nil
	}
	group := make([]tgio.Actuator, len(m.segments[segment]))
	for i, c := range m.segments[segment] {
		group[i] = c
	}
	return group
}

// Step advances every cable by dt and accumulates the locomotion
// score: a displacement-style proxy built from coordinated cable
// length change.
func (m *Model) Step(dt float64) error {
	if dt <= 0 || math.IsNaN(dt) {
		return fmt.Errorf("%w: got %v", cpg.ErrNonPositiveStep, dt)
	}
	var travel float64
	for _, group := range m.segments {
		for _, c := range group {
			before := c.length
			c.advance(dt)
			travel += math.Abs(c.length - before)
		}
	}
	m.score += travel
	m.time += dt
	return nil
}

// CableLengths returns every cable's current length, ordered by
// segment then cable index.
func (m *Model) CableLengths() []float64 {
	var out []float64
	for _, group := range m.segments {
		for _, c := range group {
			out = append(out, c.length)
		}
	}
	return out
}

// Score returns the accumulated locomotion proxy.
func (m *Model) Score() float64 {
	return m.score
}

// Time returns the accumulated simulation time.
func (m *Model) Time() float64 {
	return m.time
}
