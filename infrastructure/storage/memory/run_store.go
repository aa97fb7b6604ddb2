package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
	"github.com/felixgeelhaar/gridbalancer/domain/ledger"
	"github.com/felixgeelhaar/gridbalancer/domain/run"
)

// RunStore is an in-memory implementation of run.Repository. Runs are
// stored as JSON so callers never share state with the store.
type RunStore struct {
	runs   map[string][]byte
	traces map[string][]ledger.Entry
	mu     sync.RWMutex
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs:   make(map[string][]byte),
		traces: make(map[string][]ledger.Entry),
	}
}

// Save persists a new run.
func (s *RunStore) Save(ctx context.Context, r *agent.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.ID == "" {
		return run.ErrInvalidRunID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[r.ID]; exists {
		return run.ErrRunExists
	}

	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	s.runs[r.ID] = data
	return nil
}

// Get retrieves a run by ID.
func (s *RunStore) Get(ctx context.Context, id string) (*agent.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, run.ErrInvalidRunID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.runs[id]
	if !ok {
		return nil, run.ErrRunNotFound
	}

	var r agent.Run
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Update updates an existing run.
func (s *RunStore) Update(ctx context.Context, r *agent.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.ID == "" {
		return run.ErrInvalidRunID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[r.ID]; !exists {
		return run.ErrRunNotFound
	}

	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	s.runs[r.ID] = data
	return nil
}

// Delete removes a run and its trace.
func (s *RunStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return run.ErrInvalidRunID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[id]; !exists {
		return run.ErrRunNotFound
	}
	delete(s.runs, id)
	delete(s.traces, id)
	return nil
}

// List returns runs matching the filter, newest first.
func (s *RunStore) List(ctx context.Context, filter run.ListFilter) ([]*agent.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*agent.Run
	for _, data := range s.runs {
		var r agent.Run
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		if filter.Matches(&r) {
			result = append(result, &r)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].ID < result[j].ID
		}
		return result[i].StartTime.After(result[j].StartTime)
	})

	return run.Page(result, filter), nil
}

// AppendEntries stores trace entries for a run.
func (s *RunStore) AppendEntries(ctx context.Context, runID string, entries []ledger.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if runID == "" {
		return run.ErrInvalidRunID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.traces[runID] = append(s.traces[runID], entries...)
	return nil
}

// Entries returns the stored trace of a run.
func (s *RunStore) Entries(ctx context.Context, runID string) ([]ledger.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.runs[runID]; !ok {
		return nil, run.ErrRunNotFound
	}

	out := make([]ledger.Entry, len(s.traces[runID]))
	copy(out, s.traces[runID])
	return out, nil
}

// Len returns the number of stored runs.
func (s *RunStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// Close is a no-op for the in-memory store.
func (s *RunStore) Close() error {
	return nil
}

var _ run.Repository = (*RunStore)(nil)
