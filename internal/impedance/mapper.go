package impedance

import (
	"math"

	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/cpg"
)

// MuscleSpec carries the static physical properties of one muscle the
// mapper needs: its baseline rest length, the feasible length bounds of
// the cable, and the scale applied to the oscillator output.
type MuscleSpec struct {
	RestLength float64
	MinLength  float64
	MaxLength  float64
	Scale      float64
}

// Setpoint is the impedance command for one muscle on one step.
// Saturated records that the target length was clipped to the muscle's
// bounds; it is an observable condition, not an error.
type Setpoint struct {
	TargetLength float64
	Stiffness    float64
	Damping      float64
	Saturated    bool
}

// Mapper converts instantaneous oscillator state into impedance
// setpoints. It holds no mutable state; Setpoint is a pure function of
// its inputs.
type Mapper struct {
	// ModulateImpedance scales stiffness and damping with the
	// instantaneous amplitude relative to the learned target, so
	// muscles soften while the oscillation is still ramping up.
	ModulateImpedance bool
}

// Setpoint computes the impedance command for one muscle from the
// node's learned parameters and its current phase and amplitude.
func (m Mapper) Setpoint(p cpg.NodeParams, phase, amplitude float64, spec MuscleSpec) Setpoint {
	sp := Setpoint{Stiffness: p.Stiffness, Damping: p.Damping}
	if m.ModulateImpedance && p.Amplitude > 0 {
		ratio := math.Abs(amplitude) / p.Amplitude
		sp.Stiffness *= ratio
		sp.Damping *= ratio
	}

	target := spec.RestLength + spec.Scale*amplitude*math.Sin(phase)
	if target < spec.MinLength {
		target = spec.MinLength
		sp.Saturated = true
	} else if target > spec.MaxLength {
		target = spec.MaxLength
		sp.Saturated = true
	}
	sp.TargetLength = target
	return sp
}
