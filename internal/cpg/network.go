package cpg

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrConfig          = errors.New("invalid cpg configuration")
	ErrUnknownNode     = errors.New("unknown cpg node")
	ErrNonPositiveStep = errors.New("timestep must be positive")
)

// NodeParams is the learned parameter record for one oscillator node.
// All fields are read-only for the lifetime of a Network.
type NodeParams struct {
	// Frequency is the natural angular frequency in rad/s.
	Frequency float64
	// Amplitude is the target oscillation amplitude the node ramps
	// toward (or holds, when AmplitudeRamp is zero).
	Amplitude float64
	// Bias is the node's phase offset; it sets the initial phase.
	Bias float64
	// AmplitudeRamp is the convergence gain ka of the second-order
	// amplitude ramp. Zero pins the amplitude to its target.
	AmplitudeRamp float64
	// Stiffness and Damping are the impedance gains handed to the
	// muscles assigned to this node.
	Stiffness float64
	Damping   float64
}

// CouplingEdge is one directional phase coupling between two nodes.
// Multiple edges may exist for the same ordered pair; each contributes
// an independent coupling term to the target's phase derivative.
type CouplingEdge struct {
	Source    int
	Target    int
	Weight    float64
	PhaseBias float64
}

// NodeSnapshot is a read-only view of one node's runtime state.
type NodeSnapshot struct {
	ID        int
	Phase     float64
	Amplitude float64
}

// Network owns the runtime state of a set of coupled phase oscillators
// and advances them with a fixed-step explicit update. It is not safe
// for concurrent use; one Network belongs to one controller.
type Network struct {
	ids      []int
	index    map[int]int
	params   []NodeParams
	incoming [][]CouplingEdge

	phase   []float64
	amp     []float64
	ampVel  []float64
	scratch []float64
}

// NewNetwork validates the learned parameters and constructs the
// oscillator set. Each node's phase starts at its bias; amplitude
// starts at zero when ramped, otherwise directly at its target.
func NewNetwork(nodes map[int]NodeParams, edges []CouplingEdge) (*Network, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes", ErrConfig)
	}

	ids := make([]int, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	n := &Network{
		ids:      ids,
		index:    make(map[int]int, len(ids)),
		params:   make([]NodeParams, len(ids)),
		incoming: make([][]CouplingEdge, len(ids)),
		phase:    make([]float64, len(ids)),
		amp:      make([]float64, len(ids)),
		ampVel:   make([]float64, len(ids)),
		scratch:  make([]float64, len(ids)),
	}

	for i, id := range ids {
		p := nodes[id]
		if err := validateNodeParams(id, p); err != nil {
			return nil, err
		}
		n.index[id] = i
		n.params[i] = p
		n.phase[i] = wrapPhase(p.Bias)
		if p.AmplitudeRamp == 0 {
			n.amp[i] = p.Amplitude
		}
	}

	for _, e := range edges {
		if _, ok := n.index[e.Source]; !ok {
			return nil, fmt.Errorf("%w: edge references unknown source node %d", ErrConfig, e.Source)
		}
		ti, ok := n.index[e.Target]
		if !ok {
			return nil, fmt.Errorf("%w: edge references unknown target node %d", ErrConfig, e.Target)
		}
		if !isFinite(e.Weight) || !isFinite(e.PhaseBias) {
			return nil, fmt.Errorf("%w: edge %d->%d has non-finite parameters", ErrConfig, e.Source, e.Target)
		}
		n.incoming[ti] = append(n.incoming[ti], e)
	}

	return n, nil
}

func validateNodeParams(id int, p NodeParams) error {
	switch {
	case !isFinite(p.Frequency) || p.Frequency < 0:
		return fmt.Errorf("%w: node %d frequency %v", ErrConfig, id, p.Frequency)
	case !isFinite(p.Amplitude) || p.Amplitude < 0:
		return fmt.Errorf("%w: node %d amplitude %v", ErrConfig, id, p.Amplitude)
	case !isFinite(p.Bias):
		return fmt.Errorf("%w: node %d bias %v", ErrConfig, id, p.Bias)
	case !isFinite(p.AmplitudeRamp) || p.AmplitudeRamp < 0:
		return fmt.Errorf("%w: node %d amplitude ramp %v", ErrConfig, id, p.AmplitudeRamp)
	case !isFinite(p.Stiffness) || p.Stiffness < 0:
		return fmt.Errorf("%w: node %d stiffness %v", ErrConfig, id, p.Stiffness)
	case !isFinite(p.Damping) || p.Damping < 0:
		return fmt.Errorf("%w: node %d damping %v", ErrConfig, id, p.Damping)
	}
	return nil
}

// Advance integrates every node forward by dt using explicit Euler.
// All phase derivatives are computed from the phase values at step
// start before any phase is written, so the result is invariant to
// node iteration order. dt <= 0 violates the caller contract and
// leaves the network untouched.
func (n *Network) Advance(dt float64) error {
	if dt <= 0 || math.IsNaN(dt) {
		return fmt.Errorf("%w: got %v", ErrNonPositiveStep, dt)
	}

	for i := range n.ids {
		d := n.params[i].Frequency
		for _, e := range n.incoming[i] {
			si := n.index[e.Source]
			d += e.Weight * math.Sin(n.phase[si]-n.phase[i]-e.PhaseBias)
		}
		n.scratch[i] = wrapPhase(n.phase[i] + d*dt)
	}
	copy(n.phase, n.scratch)

	for i := range n.ids {
		p := n.params[i]
		if p.AmplitudeRamp == 0 {
			n.amp[i] = p.Amplitude
			continue
		}
		// Second-order ramp toward the target amplitude:
		// rddot = ka * (ka/4 * (R - r) - rdot).
		ka := p.AmplitudeRamp
		acc := ka * (ka/4*(p.Amplitude-n.amp[i]) - n.ampVel[i])
		n.ampVel[i] += acc * dt
		n.amp[i] += n.ampVel[i] * dt
	}

	return nil
}

// PhaseAt returns the node's current phase in [0, 2*pi).
func (n *Network) PhaseAt(id int) (float64, error) {
	i, ok := n.index[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	return n.phase[i], nil
}

// AmplitudeAt returns the node's current (possibly still ramping)
// amplitude.
func (n *Network) AmplitudeAt(id int) (float64, error) {
	i, ok := n.index[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	return n.amp[i], nil
}

// ParamsAt returns the learned parameter record for a node.
func (n *Network) ParamsAt(id int) (NodeParams, error) {
	i, ok := n.index[id]
	if !ok {
		return NodeParams{}, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	return n.params[i], nil
}

// NodeIDs returns the node identifiers in ascending order.
func (n *Network) NodeIDs() []int {
	return append([]int(nil), n.ids...)
}

// Len returns the node count.
func (n *Network) Len() int {
	return len(n.ids)
}

// Snapshot returns the runtime state of every node, ordered by id.
func (n *Network) Snapshot() []NodeSnapshot {
	out := make([]NodeSnapshot, len(n.ids))
	for i, id := range n.ids {
		out[i] = NodeSnapshot{ID: id, Phase: n.phase[i], Amplitude: n.amp[i]}
	}
	return out
}

func wrapPhase(p float64) float64 {
	p = math.Mod(p, 2*math.Pi)
	if p < 0 {
		p += 2 * math.Pi
	}
	if p >= 2*math.Pi {
		p -= 2 * math.Pi
	}
	return p
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
