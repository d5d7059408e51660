package storage

import (
	"context"

	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/model"
)

// Store persists learned parameter sets and simulation run artifacts.
// The outer learning loop reads and writes parameter sets between
// episodes; the controller itself never touches a Store during
// stepping.
type Store interface {
	Init(ctx context.Context) error
	SaveParamSet(ctx context.Context, set model.ParamSet) error
	GetParamSet(ctx context.Context, id string) (model.ParamSet, bool, error)
	ListParamSets(ctx context.Context) ([]string, error)
	SaveRunSummary(ctx context.Context, summary model.RunSummary) error
	GetRunSummary(ctx context.Context, id string) (model.RunSummary, bool, error)
	ListRuns(ctx context.Context) ([]model.RunSummary, error)
	SaveTrace(ctx context.Context, trace model.RunTrace) error
	GetTrace(ctx context.Context, runID string) (model.RunTrace, bool, error)
}
