// Package spinecpg is the public entry point for the tensegrity spine
// CPG controller: it validates learned parameter sets, runs controller
// episodes against the built-in spine subject, and persists run
// artifacts for the outer learning loop to consume.
package spinecpg

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/control"
	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/impedance"
	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/model"
	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/params"
	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/spine"
	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/storage"
)

const defaultDBPath = "dtrl.db"

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// LoadParamFile reads and validates a JSON parameter-set file.
func LoadParamFile(path string) (model.ParamSet, error) {
	return params.LoadFile(path)
}

// ValidateParams decodes a parameter set and reports its node and edge
// counts.
func ValidateParams(set model.ParamSet) (nodes, edges int, err error) {
	n, e, err := params.Decode(set)
	if err != nil {
		return 0, 0, err
	}
	return len(n), len(e), nil
}

// SimRequest configures one controller episode against the built-in
// spine subject.
type SimRequest struct {
	ParamSet          model.ParamSet
	Steps             int
	Dt                float64
	CablesPerSegment  int
	ModulateImpedance bool
	RecordTrace       bool
}

type SimResult struct {
	Summary model.RunSummary
	Trace   model.RunTrace
}

// Simulate runs the full controller lifecycle (attach, setup, step
// loop, teardown) for the requested number of steps, persists the run
// summary (and trace, when recorded) and returns them.
func (c *Client) Simulate(ctx context.Context, req SimRequest) (SimResult, error) {
	if req.Steps <= 0 {
		return SimResult{}, fmt.Errorf("step count must be positive, got %d", req.Steps)
	}
	if req.Dt <= 0 {
		return SimResult{}, fmt.Errorf("dt must be positive, got %v", req.Dt)
	}
	nodes, _, err := params.Decode(req.ParamSet)
	if err != nil {
		return SimResult{}, err
	}

	subject, err := spine.New(spine.Config{
		Segments:         len(nodes),
		CablesPerSegment: req.CablesPerSegment,
	})
	if err != nil {
		return SimResult{}, err
	}

	ctrl, err := control.New(control.Config{
		Source: params.StaticSource{Set: req.ParamSet},
		Mapper: impedance.Mapper{ModulateImpedance: req.ModulateImpedance},
	})
	if err != nil {
		return SimResult{}, err
	}
	if err := ctrl.Attach(subject); err != nil {
		return SimResult{}, err
	}
	if err := ctrl.Setup(ctx, subject); err != nil {
		return SimResult{}, err
	}
	defer ctrl.Teardown(subject)

	runID := uuid.NewString()
	trace := model.RunTrace{RunID: runID}
	var lengths []float64
	saturatedSteps := 0

	for s := 0; s < req.Steps; s++ {
		if err := ctx.Err(); err != nil {
			return SimResult{}, err
		}
		if err := ctrl.Step(ctx, subject, req.Dt); err != nil {
			return SimResult{}, fmt.Errorf("step %d: %w", s, err)
		}
		if err := subject.Step(req.Dt); err != nil {
			return SimResult{}, fmt.Errorf("subject step %d: %w", s, err)
		}

		stats := ctrl.LastStepStats()
		if stats.Saturated > 0 {
			saturatedSteps++
		}
		stepLengths := subject.CableLengths()
		lengths = append(lengths, stepLengths...)
		if req.RecordTrace {
			snaps, err := ctrl.Snapshot()
			if err != nil {
				return SimResult{}, err
			}
			step := model.TraceStep{
				Time:      subject.Time(),
				Lengths:   stepLengths,
				Saturated: stats.Saturated,
			}
			for _, snap := range snaps {
				step.Phases = append(step.Phases, snap.Phase)
				step.Amplitudes = append(step.Amplitudes, snap.Amplitude)
			}
			trace.Steps = append(trace.Steps, step)
		}
	}

	summary := model.RunSummary{
		ID:              runID,
		ParamSetID:      req.ParamSet.ID,
		Segments:        len(nodes),
		Steps:           req.Steps,
		Dt:              req.Dt,
		Score:           subject.Score(),
		SaturatedSteps:  saturatedSteps,
		MeanCableLength: stat.Mean(lengths, nil),
		CableLengthStd:  stat.StdDev(lengths, nil),
		CreatedUnix:     time.Now().Unix(),
	}

	if err := c.store.SaveParamSet(ctx, req.ParamSet); err != nil {
		return SimResult{}, fmt.Errorf("save param set: %w", err)
	}
	if err := c.store.SaveRunSummary(ctx, summary); err != nil {
		return SimResult{}, fmt.Errorf("save run summary: %w", err)
	}
	if req.RecordTrace {
		if err := c.store.SaveTrace(ctx, trace); err != nil {
			return SimResult{}, fmt.Errorf("save trace: %w", err)
		}
	}
	return SimResult{Summary: summary, Trace: trace}, nil
}

// Runs lists stored run summaries, newest first.
func (c *Client) Runs(ctx context.Context) ([]model.RunSummary, error) {
	return c.store.ListRuns(ctx)
}

// Run fetches one stored run summary.
func (c *Client) Run(ctx context.Context, id string) (model.RunSummary, bool, error) {
	return c.store.GetRunSummary(ctx, id)
}

// Trace fetches one stored run trace.
func (c *Client) Trace(ctx context.Context, runID string) (model.RunTrace, bool, error) {
	return c.store.GetTrace(ctx, runID)
}

// ParamSet fetches one stored parameter set.
func (c *Client) ParamSet(ctx context.Context, id string) (model.ParamSet, bool, error) {
	return c.store.GetParamSet(ctx, id)
}

// SaveParamSet validates and stores a parameter set.
func (c *Client) SaveParamSet(ctx context.Context, set model.ParamSet) error {
	if _, _, err := params.Decode(set); err != nil {
		return err
	}
	return c.store.SaveParamSet(ctx, set)
}
