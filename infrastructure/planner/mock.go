// Package planner provides the policies that choose the agent's next action.
package planner

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
	"github.com/felixgeelhaar/gridbalancer/domain/memory"
)

// PlanRequest contains all information needed for planning.
type PlanRequest struct {
	RunID string
	Step  int
	State agent.State

	// SystemPrompt is the rendered instruction block for State.
	SystemPrompt string

	// History is the conversational memory window, oldest first.
	History []memory.Message

	// Observations is the planner-visible view of the grid.
	Observations agent.Observations
}

// Planner is the interface for decision engines. Planners that can recover
// from a bad model answer return a fallback decision rather than an error.
type Planner interface {
	Plan(ctx context.Context, req PlanRequest) (agent.Decision, error)
}

// MockPlanner returns a predefined sequence of decisions for testing.
type MockPlanner struct {
	decisions []agent.Decision
	requests  []PlanRequest
	index     int
	mu        sync.Mutex
}

// NewMockPlanner creates a mock planner with the given decisions.
func NewMockPlanner(decisions ...agent.Decision) *MockPlanner {
	return &MockPlanner{
		decisions: decisions,
	}
}

// Plan returns the next decision in the sequence. Once the sequence is
// exhausted it asks to terminate.
func (p *MockPlanner) Plan(_ context.Context, req PlanRequest) (agent.Decision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, req)

	if p.index >= len(p.decisions) {
		return agent.NewTransitionDecision(agent.StateTerminated, "script exhausted"), nil
	}

	decision := p.decisions[p.index]
	p.index++
	return decision, nil
}

// Requests returns every request seen so far.
func (p *MockPlanner) Requests() []PlanRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PlanRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

// Reset resets the planner to the beginning.
func (p *MockPlanner) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.index = 0
	p.requests = nil
}

// Remaining returns the number of remaining decisions.
func (p *MockPlanner) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.decisions) - p.index
}

// AddDecision appends a decision to the sequence.
func (p *MockPlanner) AddDecision(d agent.Decision) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.decisions = append(p.decisions, d)
}
