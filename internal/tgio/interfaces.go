package tgio

// Actuator is the control surface of one muscle. SetControl is assumed
// non-blocking; the subject applies the command on its next physics
// step.
type Actuator interface {
	Name() string
	SetControl(targetLength, stiffness, damping float64)
}

// RestLengthActuator is an optional actuator capability exposing the
// muscle's baseline rest length, used to center the oscillation.
type RestLengthActuator interface {
	Actuator
	RestLength() float64
}

// BoundedActuator is an optional actuator capability exposing the
// physically feasible cable length range.
type BoundedActuator interface {
	Actuator
	LengthBounds() (min, max float64)
}

// Subject exposes the controllable structure to an attached
// controller: how many body segments it has and which muscles actuate
// each segment.
type Subject interface {
	SegmentCount() int
	ActuatorGroup(segment int) []Actuator
}
