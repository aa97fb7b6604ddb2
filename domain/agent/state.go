// Package agent provides the core domain model for the grid balancing agent.
package agent

import (
	"fmt"
	"strings"
)

// State is a node of the control loop. States are identified by the same
// stable upper-case names the planner is asked to emit.
type State string

// The fixed set of states.
const (
	StateInitializing      State = "INITIALIZING"       // Start-up
	StateDemandForecasting State = "DEMAND_FORECASTING" // Predict next-hour demand
	StateCapacityAnalysis  State = "CAPACITY_ANALYSIS"  // Read available generation
	StateDispatchPlanning  State = "DISPATCH_PLANNING"  // Choose a dispatch
	StateExecution         State = "EXECUTION"          // Plan applied to the grid
	StateStabilityCheck    State = "STABILITY_CHECK"    // Evaluate feedback
	StateAdjustment        State = "ADJUSTMENT"         // Replan after instability
	StateTerminated        State = "TERMINATED"         // Terminal
)

// IsTerminal returns true for the terminal state.
func (s State) IsTerminal() bool {
	return s == StateTerminated
}

// IsValid returns true if the state is one of the fixed states.
func (s State) IsValid() bool {
	switch s {
	case StateInitializing, StateDemandForecasting, StateCapacityAnalysis,
		StateDispatchPlanning, StateExecution, StateStabilityCheck,
		StateAdjustment, StateTerminated:
		return true
	default:
		return false
	}
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// AllStates returns all states in loop order.
func AllStates() []State {
	return []State{
		StateInitializing,
		StateDemandForecasting,
		StateCapacityAnalysis,
		StateDispatchPlanning,
		StateExecution,
		StateStabilityCheck,
		StateAdjustment,
		StateTerminated,
	}
}

// NonTerminalStates returns every state except TERMINATED.
func NonTerminalStates() []State {
	all := AllStates()
	return all[:len(all)-1]
}

// ParseState resolves a state name as a model might write it. Matching is
// case-insensitive and treats spaces and dashes as underscores.
func ParseState(name string) (State, error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)

	s := State(normalized)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, name)
	}
	return s, nil
}
