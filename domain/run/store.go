// Package run provides the domain interface for run persistence.
package run

import (
	"context"
	"time"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
	"github.com/felixgeelhaar/gridbalancer/domain/ledger"
)

// Store defines the interface for run persistence.
// Implementations may be in-memory, SQLite, Badger or any other backend.
type Store interface {
	// Save persists a new run.
	Save(ctx context.Context, run *agent.Run) error

	// Get retrieves a run by ID.
	Get(ctx context.Context, id string) (*agent.Run, error)

	// Update updates an existing run.
	Update(ctx context.Context, run *agent.Run) error

	// Delete removes a run and its trace by ID.
	Delete(ctx context.Context, id string) error

	// List returns runs matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]*agent.Run, error)
}

// TraceStore persists the ledger entries of a run.
type TraceStore interface {
	// AppendEntries stores entries for a run, after any already stored.
	AppendEntries(ctx context.Context, runID string, entries []ledger.Entry) error

	// Entries returns the stored trace of a run in append order.
	Entries(ctx context.Context, runID string) ([]ledger.Entry, error)
}

// Repository is a backend that stores both runs and their traces.
type Repository interface {
	Store
	TraceStore
	Close() error
}

// ListFilter specifies criteria for listing runs.
type ListFilter struct {
	// Status filters by run status (empty means all).
	Status []agent.RunStatus

	// Scenario filters by scenario id (0 means all).
	Scenario int

	// FromTime filters runs started at or after this time.
	FromTime time.Time

	// Limit is the maximum number of runs to return (0 = no limit).
	Limit int

	// Offset is the number of runs to skip for pagination.
	Offset int
}

// Matches reports whether r satisfies the filter's predicates. Limit and
// Offset are applied by the caller.
func (f ListFilter) Matches(r *agent.Run) bool {
	if f.Scenario != 0 && r.Scenario != f.Scenario {
		return false
	}
	if !f.FromTime.IsZero() && r.StartTime.Before(f.FromTime) {
		return false
	}
	if len(f.Status) == 0 {
		return true
	}
	for _, s := range f.Status {
		if r.Status == s {
			return true
		}
	}
	return false
}

// Page applies Offset and Limit to an already filtered and sorted slice.
func Page[T any](items []T, f ListFilter) []T {
	if f.Offset > 0 {
		if f.Offset >= len(items) {
			return nil
		}
		items = items[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(items) {
		items = items[:f.Limit]
	}
	return items
}

// Summary aggregates statistics over a set of runs.
type Summary struct {
	TotalRuns     int64         `json:"total_runs"`
	CompletedRuns int64         `json:"completed_runs"`
	HaltedRuns    int64         `json:"halted_runs"`
	FailedRuns    int64         `json:"failed_runs"`
	AverageSteps  float64       `json:"average_steps"`
	Adjustments   int64         `json:"adjustments"`
	AverageTime   time.Duration `json:"average_duration"`
}

// Summarize computes a Summary over runs.
func Summarize(runs []*agent.Run) Summary {
	var (
		s       Summary
		steps   int64
		elapsed time.Duration
		ended   int64
	)
	for _, r := range runs {
		s.TotalRuns++
		steps += int64(r.Steps)
		s.Adjustments += int64(r.Observations.Adjustments)
		switch r.Status {
		case agent.RunStatusCompleted:
			s.CompletedRuns++
		case agent.RunStatusHalted:
			s.HaltedRuns++
		case agent.RunStatusFailed:
			s.FailedRuns++
		default:
			continue
		}
		ended++
		elapsed += r.Duration()
	}
	if s.TotalRuns > 0 {
		s.AverageSteps = float64(steps) / float64(s.TotalRuns)
	}
	if ended > 0 {
		s.AverageTime = elapsed / time.Duration(ended)
	}
	return s
}
