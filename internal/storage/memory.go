package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/model"
)

type MemoryStore struct {
	mu        sync.RWMutex
	paramSets map[string]model.ParamSet
	runs      map[string]model.RunSummary
	traces    map[string]model.RunTrace
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paramSets = make(map[string]model.ParamSet)
	s.runs = make(map[string]model.RunSummary)
	s.traces = make(map[string]model.RunTrace)
	return nil
}

func (s *MemoryStore) SaveParamSet(_ context.Context, set model.ParamSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paramSets[set.ID] = set
	return nil
}

func (s *MemoryStore) GetParamSet(_ context.Context, id string) (model.ParamSet, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.paramSets[id]
	return set, ok, nil
}

func (s *MemoryStore) ListParamSets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.paramSets))
	for id := range s.paramSets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) SaveRunSummary(_ context.Context, summary model.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[summary.ID] = summary
	return nil
}

func (s *MemoryStore) GetRunSummary(_ context.Context, id string) (model.RunSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.runs[id]
	return summary, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunSummary, 0, len(s.runs))
	for _, summary := range s.runs {
		runs = append(runs, summary)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedUnix != runs[j].CreatedUnix {
			return runs[i].CreatedUnix > runs[j].CreatedUnix
		}
		return runs[i].ID < runs[j].ID
	})
	return runs, nil
}

func (s *MemoryStore) SaveTrace(_ context.Context, trace model.RunTrace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.traces[trace.RunID] = trace
	return nil
}

func (s *MemoryStore) GetTrace(_ context.Context, runID string) (model.RunTrace, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trace, ok := s.traces[runID]
	return trace, ok, nil
}
