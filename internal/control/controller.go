// Package control implements the actuation controller: the lifecycle
// orchestration that attaches to a controllable subject, builds the CPG
// network and muscle assignment at setup, and dispatches impedance
// setpoints to every bound muscle each step.
package control

import (
	"context"
	"errors"
	"fmt"

	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/cpg"
	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/impedance"
	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/params"
	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/tgio"
)

var (
	ErrAlreadyAttached  = errors.New("controller already attached")
	ErrNotAttached      = errors.New("controller not attached")
	ErrInvalidState     = errors.New("invalid controller state")
	ErrTopologyMismatch = errors.New("subject topology does not match parameter set")
)

// State is the controller lifecycle state. Teardown returns the
// controller to Attached so the same instance can be set up again for
// the next episode.
type State int

const (
	Uninitialized State = iota
	Attached
	Ready
	Stepping
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Attached:
		return "attached"
	case Ready:
		return "ready"
	case Stepping:
		return "stepping"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config wires a controller. Source is required; DefaultMuscle fills
// in rest length, bounds and scale for actuators that do not expose
// the corresponding capabilities.
type Config struct {
	Source        params.Source
	Mapper        impedance.Mapper
	DefaultMuscle impedance.MuscleSpec
}

// StepStats summarizes the most recent step's dispatch.
type StepStats struct {
	Dispatched int
	Saturated  int
}

type muscleBinding struct {
	actuator tgio.Actuator
	spec     impedance.MuscleSpec
}

// Controller drives one subject. Not safe for concurrent use; the host
// simulation loop calls Step once per physics tick.
type Controller struct {
	cfg     Config
	state   State
	subject tgio.Subject

	network    *cpg.Network
	assignment map[int][]muscleBinding
	lastStats  StepStats
}

func New(cfg Config) (*Controller, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("%w: parameter source is required", cpg.ErrConfig)
	}
	if cfg.DefaultMuscle.Scale == 0 {
		cfg.DefaultMuscle.Scale = 1
	}
	return &Controller{cfg: cfg}, nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Attach registers the controller with a subject. A controller
// observes exactly one subject; attaching twice is an error.
func (c *Controller) Attach(subject tgio.Subject) error {
	if subject == nil {
		return fmt.Errorf("%w: nil subject", ErrInvalidState)
	}
	if c.state != Uninitialized {
		return fmt.Errorf("%w: state %s", ErrAlreadyAttached, c.state)
	}
	c.subject = subject
	c.state = Attached
	return nil
}

// Setup loads and validates the learned parameters, builds the CPG
// network and the muscle assignment from the subject's actuator
// groups, and transitions to Ready. On failure the controller remains
// Attached with no partial state.
func (c *Controller) Setup(ctx context.Context, subject tgio.Subject) error {
	if c.state == Uninitialized {
		return fmt.Errorf("%w: setup before attach", ErrNotAttached)
	}
	if c.state != Attached {
		return fmt.Errorf("%w: setup in state %s", ErrInvalidState, c.state)
	}
	if subject != c.subject {
		return fmt.Errorf("%w: setup notification from a foreign subject", ErrInvalidState)
	}

	set, err := c.cfg.Source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load parameters: %w", err)
	}
	nodes, edges, err := params.Decode(set)
	if err != nil {
		return err
	}
	network, err := cpg.NewNetwork(nodes, edges)
	if err != nil {
		return err
	}

	if got := subject.SegmentCount(); got != len(nodes) {
		return fmt.Errorf("%w: subject has %d segments, parameter set has %d nodes",
			ErrTopologyMismatch, got, len(nodes))
	}

	assignment := make(map[int][]muscleBinding, len(nodes))
	for _, id := range network.NodeIDs() {
		group := subject.ActuatorGroup(id)
		bindings := make([]muscleBinding, 0, len(group))
		for _, act := range group {
			if act == nil {
				return fmt.Errorf("%w: nil actuator in group %d", ErrTopologyMismatch, id)
			}
			bindings = append(bindings, muscleBinding{actuator: act, spec: c.muscleSpec(act)})
		}
		assignment[id] = bindings
	}

	c.network = network
	c.assignment = assignment
	c.lastStats = StepStats{}
	c.state = Ready
	return nil
}

// muscleSpec resolves per-muscle physical properties from the
// actuator's optional capabilities, falling back to the configured
// defaults.
func (c *Controller) muscleSpec(act tgio.Actuator) impedance.MuscleSpec {
	spec := c.cfg.DefaultMuscle
	if r, ok := act.(tgio.RestLengthActuator); ok {
		spec.RestLength = r.RestLength()
	}
	if b, ok := act.(tgio.BoundedActuator); ok {
		spec.MinLength, spec.MaxLength = b.LengthBounds()
	}
	return spec
}

// Step advances the CPG network one timestep and dispatches one
// setpoint per bound muscle. All dispatches happen after the full
// advance, so actuators within a step see mutually consistent
// oscillator state.
func (c *Controller) Step(ctx context.Context, subject tgio.Subject, dt float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.state != Ready && c.state != Stepping {
		return fmt.Errorf("%w: step in state %s", ErrInvalidState, c.state)
	}
	if subject != c.subject {
		return fmt.Errorf("%w: step notification from a foreign subject", ErrInvalidState)
	}

	if err := c.network.Advance(dt); err != nil {
		return err
	}

	stats := StepStats{}
	for _, id := range c.network.NodeIDs() {
		phase, err := c.network.PhaseAt(id)
		if err != nil {
			return err
		}
		amplitude, err := c.network.AmplitudeAt(id)
		if err != nil {
			return err
		}
		nodeParams, err := c.network.ParamsAt(id)
		if err != nil {
			return err
		}
		for _, b := range c.assignment[id] {
			sp := c.cfg.Mapper.Setpoint(nodeParams, phase, amplitude, b.spec)
			b.actuator.SetControl(sp.TargetLength, sp.Stiffness, sp.Damping)
			stats.Dispatched++
			if sp.Saturated {
				stats.Saturated++
			}
		}
	}
	c.lastStats = stats
	c.state = Stepping
	return nil
}

// Teardown discards the network and muscle assignment and returns to
// Attached. Idempotent: tearing down a controller that is not set up
// is a no-op.
func (c *Controller) Teardown(subject tgio.Subject) {
	if c.state != Ready && c.state != Stepping {
		return
	}
	if subject != c.subject {
		return
	}
	c.network = nil
	c.assignment = nil
	c.lastStats = StepStats{}
	c.state = Attached
}

// LastStepStats reports dispatch and saturation counts for the most
// recent step.
func (c *Controller) LastStepStats() StepStats {
	return c.lastStats
}

// Snapshot exposes the oscillator state for trace recording. It is
// only valid between Setup and Teardown.
func (c *Controller) Snapshot() ([]cpg.NodeSnapshot, error) {
	if c.state != Ready && c.state != Stepping {
		return nil, fmt.Errorf("%w: snapshot in state %s", ErrInvalidState, c.state)
	}
	return c.network.Snapshot(), nil
}
