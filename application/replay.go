package application

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
	"github.com/felixgeelhaar/gridbalancer/domain/ledger"
	"github.com/felixgeelhaar/gridbalancer/domain/run"
)

// Replay reads finished runs back from a store.
type Replay struct {
	store run.Repository
}

// NewReplay creates a replay service over store.
func NewReplay(store run.Repository) *Replay {
	return &Replay{store: store}
}

// RunRecord is a stored run together with its trace.
type RunRecord struct {
	Run     *agent.Run     `json:"run"`
	Entries []ledger.Entry `json:"entries"`
}

// StepRecord groups the trace lines of one loop iteration.
type StepRecord struct {
	Step     int            `json:"step"`
	State    agent.State    `json:"state"`
	Decision string         `json:"decision,omitempty"`
	Actions  []string       `json:"actions,omitempty"`
	Outcome  []string       `json:"outcome,omitempty"`
	Problems []ledger.Entry `json:"problems,omitempty"`
}

// Load returns the run and its trace.
func (r *Replay) Load(ctx context.Context, runID string) (*RunRecord, error) {
	stored, err := r.store.Get(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	entries, err := r.store.Entries(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load trace: %w", err)
	}
	return &RunRecord{Run: stored, Entries: entries}, nil
}

// Recent lists stored runs matching filter.
func (r *Replay) Recent(ctx context.Context, filter run.ListFilter) ([]*agent.Run, error) {
	return r.store.List(ctx, filter)
}

// Steps rebuilds the per-step timeline from the trace. SYSTEM and PROMPT
// lines are left out.
func (rec *RunRecord) Steps() []StepRecord {
	var (
		steps []StepRecord
		cur   *StepRecord
	)
	for _, e := range rec.Entries {
		if e.Tag == ledger.TagState {
			steps = append(steps, StepRecord{Step: e.Step, State: e.State})
			cur = &steps[len(steps)-1]
			continue
		}
		if cur == nil || e.Step != cur.Step {
			continue
		}
		switch {
		case e.Tag == ledger.TagRawLLM:
			cur.Decision = e.Message
		case e.Tag == ledger.TagAction:
			cur.Actions = append(cur.Actions, e.Message)
		case e.Tag == ledger.TagObservation:
			cur.Outcome = append(cur.Outcome, e.Message)
		case e.Tag.IsProblem():
			cur.Problems = append(cur.Problems, e)
		}
	}
	return steps
}

// StatePath returns the states the run was observed in, one per step, with
// consecutive repeats collapsed.
func (rec *RunRecord) StatePath() []agent.State {
	var path []agent.State
	for _, e := range rec.Entries {
		if e.Tag != ledger.TagState {
			continue
		}
		if n := len(path); n > 0 && path[n-1] == e.State {
			continue
		}
		path = append(path, e.State)
	}
	if rec.Run != nil && rec.Run.CurrentState.IsTerminal() {
		if n := len(path); n == 0 || path[n-1] != rec.Run.CurrentState {
			path = append(path, rec.Run.CurrentState)
		}
	}
	return path
}

// Problems returns every WARNING, ERROR and CRITICAL ERROR line.
func (rec *RunRecord) Problems() []ledger.Entry {
	var out []ledger.Entry
	for _, e := range rec.Entries {
		if e.Tag.IsProblem() {
			out = append(out, e)
		}
	}
	return out
}
