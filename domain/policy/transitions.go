package policy

import (
	"slices"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
)

// StateTransitions defines allowed state transitions.
//
// It should be fully configured before being handed to the engine and
// treated as immutable thereafter; reads are then safe for concurrent use.
type StateTransitions struct {
	transitions map[agent.State][]agent.State
}

// TransitionRules maps states to the states they can transition to.
type TransitionRules map[agent.State][]agent.State

// NewStateTransitions creates an empty transition configuration.
func NewStateTransitions() *StateTransitions {
	return &StateTransitions{
		transitions: make(map[agent.State][]agent.State),
	}
}

// NewStateTransitionsWith creates a transition configuration from a rules map.
func NewStateTransitionsWith(rules TransitionRules) *StateTransitions {
	t := NewStateTransitions()
	for from, toStates := range rules {
		for _, to := range toStates {
			t.Allow(from, to)
		}
	}
	return t
}

// Allow permits a transition from one state to another.
func (t *StateTransitions) Allow(from, to agent.State) *StateTransitions {
	if !slices.Contains(t.transitions[from], to) {
		t.transitions[from] = append(t.transitions[from], to)
	}
	return t
}

// CanTransition checks if a transition is allowed.
func (t *StateTransitions) CanTransition(from, to agent.State) bool {
	return slices.Contains(t.transitions[from], to)
}

// AllowedTransitions returns all states reachable from the given state.
func (t *StateTransitions) AllowedTransitions(from agent.State) []agent.State {
	return slices.Clone(t.transitions[from])
}

// DefaultTransitions returns the grid balancing loop:
//
//	INITIALIZING → DEMAND_FORECASTING → CAPACITY_ANALYSIS → DISPATCH_PLANNING
//	    → EXECUTION → STABILITY_CHECK → TERMINATED
//	                        │  ↑
//	                        │  └── DEMAND_FORECASTING (next hour)
//	                        └→ ADJUSTMENT → DISPATCH_PLANNING
//
// Every non-terminal state may also fall back to ADJUSTMENT or TERMINATED.
func DefaultTransitions() *StateTransitions {
	t := NewStateTransitionsWith(TransitionRules{
		agent.StateInitializing:      {agent.StateDemandForecasting},
		agent.StateDemandForecasting: {agent.StateCapacityAnalysis},
		agent.StateCapacityAnalysis:  {agent.StateDispatchPlanning},
		agent.StateDispatchPlanning:  {agent.StateExecution},
		agent.StateExecution:         {agent.StateStabilityCheck},
		agent.StateStabilityCheck:    {agent.StateAdjustment, agent.StateTerminated, agent.StateDemandForecasting},
		agent.StateAdjustment:        {agent.StateDispatchPlanning},
	})
	for _, s := range agent.NonTerminalStates() {
		if s != agent.StateAdjustment {
			t.Allow(s, agent.StateAdjustment)
		}
		t.Allow(s, agent.StateTerminated)
	}
	return t
}

// NextOnPath returns the default successor of a state on the happy path.
func NextOnPath(from agent.State) (agent.State, bool) {
	switch from {
	case agent.StateInitializing:
		return agent.StateDemandForecasting, true
	case agent.StateDemandForecasting:
		return agent.StateCapacityAnalysis, true
	case agent.StateCapacityAnalysis:
		return agent.StateDispatchPlanning, true
	case agent.StateDispatchPlanning:
		return agent.StateExecution, true
	case agent.StateExecution:
		return agent.StateStabilityCheck, true
	case agent.StateStabilityCheck:
		return agent.StateTerminated, true
	case agent.StateAdjustment:
		return agent.StateDispatchPlanning, true
	default:
		return "", false
	}
}
