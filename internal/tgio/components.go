package tgio

import "sync"

// Command is one captured SetControl invocation.
type Command struct {
	TargetLength float64
	Stiffness    float64
	Damping      float64
}

// RecordingActuator captures the most recent command for inspection.
// It implements the rest-length and bounds capabilities so controllers
// can be exercised without a simulated subject.
type RecordingActuator struct {
	name string
	rest float64
	min  float64
	max  float64

	mu    sync.Mutex
	last  Command
	count int
}

func NewRecordingActuator(name string, rest, min, max float64) *RecordingActuator {
	return &RecordingActuator{name: name, rest: rest, min: min, max: max}
}

func (a *RecordingActuator) Name() string {
	return a.name
}

func (a *RecordingActuator) SetControl(targetLength, stiffness, damping float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = Command{TargetLength: targetLength, Stiffness: stiffness, Damping: damping}
	a.count++
}

func (a *RecordingActuator) RestLength() float64 {
	return a.rest
}

func (a *RecordingActuator) LengthBounds() (float64, float64) {
	return a.min, a.max
}

// Last returns the most recent command and how many commands have been
// received.
func (a *RecordingActuator) Last() (Command, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last, a.count
}

// StaticSubject is a fixed segment/actuator topology for tests.
type StaticSubject struct {
	Groups [][]Actuator
}

func (s *StaticSubject) SegmentCount() int {
	return len(s.Groups)
}

func (s *StaticSubject) ActuatorGroup(segment int) []Actuator {
	if segment < 0 || segment >= len(s.Groups) {
		return nil
	}
	return s.Groups[segment]
}
