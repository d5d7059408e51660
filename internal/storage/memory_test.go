package storage

import (
	"context"
	"testing"

	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/model"
)

func testParamSet(id string) model.ParamSet {
	return model.ParamSet{
		ID:    id,
		Nodes: [][]float64{{1.0, 0.5, 0, 0, 100, 5}},
	}
}

func TestMemoryStoreParamSetRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := store.SaveParamSet(context.Background(), testParamSet("gait-a")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveParamSet(context.Background(), testParamSet("gait-b")); err != nil {
		t.Fatalf("save: %v", err)
	}

	set, ok, err := store.GetParamSet(context.Background(), "gait-a")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if len(set.Nodes) != 1 {
		t.Fatalf("unexpected set %+v", set)
	}

	_, ok, err = store.GetParamSet(context.Background(), "missing")
	if err != nil || ok {
		t.Fatalf("missing set: ok=%v err=%v", ok, err)
	}

	ids, err := store.ListParamSets(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 || ids[0] != "gait-a" || ids[1] != "gait-b" {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestMemoryStoreRunsOrderedByRecency(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	for i, id := range []string{"old", "mid", "new"} {
		summary := model.RunSummary{ID: id, CreatedUnix: int64(100 + i)}
		if err := store.SaveRunSummary(context.Background(), summary); err != nil {
			t.Fatalf("save run %s: %v", id, err)
		}
	}

	runs, err := store.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "new" || runs[2].ID != "old" {
		t.Fatalf("unexpected run order %+v", runs)
	}

	got, ok, err := store.GetRunSummary(context.Background(), "mid")
	if err != nil || !ok || got.CreatedUnix != 101 {
		t.Fatalf("get run: %+v ok=%v err=%v", got, ok, err)
	}
}

func TestMemoryStoreTraceRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	trace := model.RunTrace{
		RunID: "run-1",
		Steps: []model.TraceStep{{Time: 0.01, Phases: []float64{0.01}, Lengths: []float64{10}}},
	}
	if err := store.SaveTrace(context.Background(), trace); err != nil {
		t.Fatalf("save trace: %v", err)
	}
	got, ok, err := store.GetTrace(context.Background(), "run-1")
	if err != nil || !ok {
		t.Fatalf("get trace: ok=%v err=%v", ok, err)
	}
	if len(got.Steps) != 1 || got.Steps[0].Time != 0.01 {
		t.Fatalf("unexpected trace %+v", got)
	}
	_, ok, err = store.GetTrace(context.Background(), "other")
	if err != nil || ok {
		t.Fatalf("missing trace: ok=%v err=%v", ok, err)
	}
}
