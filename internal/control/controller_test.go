package control

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/cpg"
	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/model"
	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/params"
	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/tgio"
)

func uncoupledSet(nodes int, frequency, amplitude float64) model.ParamSet {
	tensor := make([][]float64, nodes)
	for i := range tensor {
		tensor[i] = []float64{frequency, amplitude, 0, 0, 100, 5}
	}
	return model.ParamSet{ID: "test", Nodes: tensor}
}

func recordingSubject(segments, musclesEach int) (*tgio.StaticSubject, [][]*tgio.RecordingActuator) {
	groups := make([][]tgio.Actuator, segments)
	recs := make([][]*tgio.RecordingActuator, segments)
	for i := range groups {
		for j := 0; j < musclesEach; j++ {
			rec := tgio.NewRecordingActuator("m", 10, 5, 15)
			groups[i] = append(groups[i], rec)
			recs[i] = append(recs[i], rec)
		}
	}
	return &tgio.StaticSubject{Groups: groups}, recs
}

func newReadyController(t *testing.T, set model.ParamSet, subject tgio.Subject) *Controller {
	t.Helper()
	ctrl, err := New(Config{Source: params.StaticSource{Set: set}})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if err := ctrl.Attach(subject); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := ctrl.Setup(context.Background(), subject); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return ctrl
}

func TestNewRequiresSource(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, cpg.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestAttachTwiceFails(t *testing.T) {
	subject, _ := recordingSubject(3, 1)
	ctrl, err := New(Config{Source: params.StaticSource{Set: uncoupledSet(3, 1, 0.5)}})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if err := ctrl.Attach(subject); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := ctrl.Attach(subject); !errors.Is(err, ErrAlreadyAttached) {
		t.Fatalf("expected ErrAlreadyAttached, got %v", err)
	}
}

func TestStepBeforeSetupFails(t *testing.T) {
	subject, _ := recordingSubject(3, 1)
	ctrl, err := New(Config{Source: params.StaticSource{Set: uncoupledSet(3, 1, 0.5)}})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if err := ctrl.Step(context.Background(), subject, 0.01); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("step before attach: expected ErrInvalidState, got %v", err)
	}
	if err := ctrl.Attach(subject); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := ctrl.Step(context.Background(), subject, 0.01); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("step before setup: expected ErrInvalidState, got %v", err)
	}
}

func TestSetupConfigErrorLeavesControllerAttached(t *testing.T) {
	subject, _ := recordingSubject(2, 1)
	set := uncoupledSet(2, 1, 0.5)
	set.Edges = [][][][]float64{
		{nil, {{1.0, 0}}},
		{nil, nil},
	}
	// Grow the edge tensor past the node count so an edge references a
	// node the parameter set does not define.
	set.Nodes = set.Nodes[:1]
	ctrl, err := New(Config{Source: params.StaticSource{Set: set}})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if err := ctrl.Attach(subject); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := ctrl.Setup(context.Background(), subject); !errors.Is(err, cpg.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
	if ctrl.State() != Attached {
		t.Fatalf("failed setup must leave controller attached, state=%s", ctrl.State())
	}
	if err := ctrl.Step(context.Background(), subject, 0.01); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("step after failed setup: expected ErrInvalidState, got %v", err)
	}
}

func TestSetupTopologyMismatch(t *testing.T) {
	subject, _ := recordingSubject(4, 1)
	ctrl, err := New(Config{Source: params.StaticSource{Set: uncoupledSet(3, 1, 0.5)}})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if err := ctrl.Attach(subject); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := ctrl.Setup(context.Background(), subject); !errors.Is(err, ErrTopologyMismatch) {
		t.Fatalf("expected ErrTopologyMismatch, got %v", err)
	}
	if ctrl.State() != Attached {
		t.Fatalf("state after mismatch = %s, want attached", ctrl.State())
	}
}

func TestStepDispatchesToEveryMuscle(t *testing.T) {
	subject, recs := recordingSubject(3, 2)
	ctrl := newReadyController(t, uncoupledSet(3, 1, 0.5), subject)

	if err := ctrl.Step(context.Background(), subject, 0.01); err != nil {
		t.Fatalf("step: %v", err)
	}
	if ctrl.State() != Stepping {
		t.Fatalf("state after step = %s, want stepping", ctrl.State())
	}
	stats := ctrl.LastStepStats()
	if stats.Dispatched != 6 {
		t.Fatalf("dispatched %d setpoints, want 6", stats.Dispatched)
	}
	for i, group := range recs {
		for j, rec := range group {
			cmd, count := rec.Last()
			if count != 1 {
				t.Fatalf("muscle %d/%d received %d commands, want 1", i, j, count)
			}
			if cmd.Stiffness != 100 || cmd.Damping != 5 {
				t.Fatalf("muscle %d/%d command %+v, want impedance gains from node params", i, j, cmd)
			}
			if cmd.TargetLength < 5 || cmd.TargetLength > 15 {
				t.Fatalf("muscle %d/%d target %v outside bounds", i, j, cmd.TargetLength)
			}
		}
	}
}

func TestTeardownIsIdempotentAndBlocksStepping(t *testing.T) {
	subject, _ := recordingSubject(3, 1)
	ctrl := newReadyController(t, uncoupledSet(3, 1, 0.5), subject)
	if err := ctrl.Step(context.Background(), subject, 0.01); err != nil {
		t.Fatalf("step: %v", err)
	}

	ctrl.Teardown(subject)
	if ctrl.State() != Attached {
		t.Fatalf("state after teardown = %s, want attached", ctrl.State())
	}
	ctrl.Teardown(subject)
	if ctrl.State() != Attached {
		t.Fatalf("second teardown changed state to %s", ctrl.State())
	}
	if err := ctrl.Step(context.Background(), subject, 0.01); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("step after teardown: expected ErrInvalidState, got %v", err)
	}

	// The same controller can be set up again for the next episode.
	if err := ctrl.Setup(context.Background(), subject); err != nil {
		t.Fatalf("setup after teardown: %v", err)
	}
	if err := ctrl.Step(context.Background(), subject, 0.01); err != nil {
		t.Fatalf("step after re-setup: %v", err)
	}
}

func TestStepPropagatesNonPositiveTimestep(t *testing.T) {
	subject, _ := recordingSubject(3, 1)
	ctrl := newReadyController(t, uncoupledSet(3, 1, 0.5), subject)
	if err := ctrl.Step(context.Background(), subject, 0); !errors.Is(err, cpg.ErrNonPositiveStep) {
		t.Fatalf("expected ErrNonPositiveStep, got %v", err)
	}
}

func TestQuarterPeriodReachesFullOffset(t *testing.T) {
	// Three uncoupled nodes at 1 rad/s: after 157 steps of 0.01s the
	// phase is ~pi/2 and the sine offset should be ~amplitude.
	subject, recs := recordingSubject(3, 1)
	ctrl := newReadyController(t, uncoupledSet(3, 1.0, 0.5), subject)

	for s := 0; s < 157; s++ {
		if err := ctrl.Step(context.Background(), subject, 0.01); err != nil {
			t.Fatalf("step %d: %v", s, err)
		}
	}
	for i, group := range recs {
		cmd, _ := group[0].Last()
		offset := cmd.TargetLength - 10
		if math.Abs(offset-0.5) > 0.5*0.05 {
			t.Fatalf("segment %d: offset %v, want ~0.5 within 5%%", i, offset)
		}
	}
}

func TestSaturatedCommandsClipWithoutError(t *testing.T) {
	subject, recs := recordingSubject(2, 1)
	// Amplitude far beyond the 5..15 length bounds around rest 10.
	ctrl := newReadyController(t, uncoupledSet(2, 1.0, 50), subject)

	steps := 157 // phase ~pi/2, offset would be +50 unclipped
	for s := 0; s < steps; s++ {
		if err := ctrl.Step(context.Background(), subject, 0.01); err != nil {
			t.Fatalf("step %d: %v", s, err)
		}
	}
	stats := ctrl.LastStepStats()
	if stats.Saturated != 2 {
		t.Fatalf("saturated count %d, want 2", stats.Saturated)
	}
	for i, group := range recs {
		cmd, _ := group[0].Last()
		if cmd.TargetLength != 15 {
			t.Fatalf("segment %d: target %v, want clipped to 15", i, cmd.TargetLength)
		}
	}
}

func TestSnapshotTracksAdvance(t *testing.T) {
	subject, _ := recordingSubject(2, 1)
	ctrl := newReadyController(t, uncoupledSet(2, 2.0, 0.5), subject)

	if err := ctrl.Step(context.Background(), subject, 0.01); err != nil {
		t.Fatalf("step: %v", err)
	}
	snaps, err := ctrl.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 node snapshots, got %d", len(snaps))
	}
	for _, s := range snaps {
		if math.Abs(s.Phase-0.02) > 1e-12 {
			t.Fatalf("node %d phase %v, want 0.02", s.ID, s.Phase)
		}
	}

	ctrl.Teardown(subject)
	if _, err := ctrl.Snapshot(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("snapshot after teardown: expected ErrInvalidState, got %v", err)
	}
}
