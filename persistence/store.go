package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/projecthive/hive/types"
)

// RunStore persists run snapshots keyed by run ID. Implementations store
// the snapshot a run's owner took after the run ended; the live state never
// goes through a store.
type RunStore interface {
	SaveRun(ctx context.Context, state types.RunState) error
	GetRun(ctx context.Context, runID string) (types.RunState, error)
	ListRuns(ctx context.Context) ([]types.RunState, error)
	DeleteRun(ctx context.Context, runID string) error
}

// MemoryRunStore is a process-local RunStore. Safe for concurrent use.
type MemoryRunStore struct {
	mu   sync.RWMutex
	runs map[string]types.RunState
}

// NewMemoryRunStore creates an empty store.
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{runs: make(map[string]types.RunState)}
}

// SaveRun stores the snapshot, replacing any previous one for the run.
func (s *MemoryRunStore) SaveRun(_ context.Context, state types.RunState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[state.RunID] = state
	return nil
}

// GetRun retrieves one snapshot.
func (s *MemoryRunStore) GetRun(_ context.Context, runID string) (types.RunState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.runs[runID]
	if !ok {
		return types.RunState{}, types.NewError(types.ErrRunNotFound, "run "+runID+" not found")
	}
	return state, nil
}

// ListRuns returns all snapshots, newest first.
func (s *MemoryRunStore) ListRuns(_ context.Context) ([]types.RunState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.RunState, 0, len(s.runs))
	for _, state := range s.runs {
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// DeleteRun removes one snapshot. Deleting a missing run is not an error.
func (s *MemoryRunStore) DeleteRun(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, runID)
	return nil
}
