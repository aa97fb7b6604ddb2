package agent

import (
	"time"
)

// RunStatus represents the current status of a run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"   // Not yet started
	RunStatusRunning   RunStatus = "running"   // Currently executing
	RunStatusCompleted RunStatus = "completed" // Reached TERMINATED
	RunStatusHalted    RunStatus = "halted"    // Step ceiling reached
	RunStatusFailed    RunStatus = "failed"    // Cancelled or fatal error
)

// Run represents a single execution of the agent against a scenario.
// It is the aggregate root for the agent domain.
type Run struct {
	ID           string       `json:"id"`
	Scenario     int          `json:"scenario"`
	CurrentState State        `json:"current_state"`
	Status       RunStatus    `json:"status"`
	Steps        int          `json:"steps"`
	Transitions  int          `json:"transitions"`
	Observations Observations `json:"observations"`
	StartTime    time.Time    `json:"start_time"`
	EndTime      time.Time    `json:"end_time,omitempty"`
	Reason       string       `json:"reason,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// NewRun creates a new run for a scenario in the initial state.
func NewRun(id string, scenario int) *Run {
	return &Run{
		ID:           id,
		Scenario:     scenario,
		CurrentState: StateInitializing,
		Status:       RunStatusPending,
		StartTime:    time.Now(),
	}
}

// Start marks the run as running.
func (r *Run) Start() {
	r.Status = RunStatusRunning
	r.StartTime = time.Now()
}

// TransitionTo changes the current state and clears per-state bookkeeping.
func (r *Run) TransitionTo(state State) {
	if state == StateAdjustment {
		r.Observations.Adjustments++
	}
	r.CurrentState = state
	r.Transitions++
	r.Observations.ToolCalledInState = false

	if state.IsTerminal() {
		r.EndTime = time.Now()
		r.Status = RunStatusCompleted
		if r.Reason == "" {
			r.Reason = "terminated by planner"
		}
	}
}

// RecordStep counts one observe-think-act iteration.
func (r *Run) RecordStep() {
	r.Steps++
}

// Halt stops the run without reaching TERMINATED.
func (r *Run) Halt(reason string) {
	r.Status = RunStatusHalted
	r.EndTime = time.Now()
	r.Reason = reason
}

// Fail marks the run as failed with an error.
func (r *Run) Fail(err string) {
	r.Status = RunStatusFailed
	r.EndTime = time.Now()
	r.Error = err
}

// IsTerminal returns true if the run has stopped for any reason.
func (r *Run) IsTerminal() bool {
	switch r.Status {
	case RunStatusCompleted, RunStatusHalted, RunStatusFailed:
		return true
	default:
		return false
	}
}

// Duration returns the duration of the run.
func (r *Run) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}
