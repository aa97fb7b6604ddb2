package policy

import (
	"slices"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
)

// Canonical tool names.
const (
	ToolForecastDemand = "forecast_energy_demand"
	ToolCheckCapacity  = "check_generation_capacity"
	ToolDispatchPlan   = "dispatch_energy_plan"
)

// ToolEligibility defines which tools are allowed in which states. Like
// StateTransitions it is configured once and then only read.
type ToolEligibility struct {
	allowed map[agent.State]map[string]bool
}

// EligibilityRules maps states to the tools allowed in each state.
type EligibilityRules map[agent.State][]string

// NewToolEligibility creates an empty eligibility configuration.
func NewToolEligibility() *ToolEligibility {
	return &ToolEligibility{
		allowed: make(map[agent.State]map[string]bool),
	}
}

// NewToolEligibilityWith creates an eligibility configuration from rules.
func NewToolEligibilityWith(rules EligibilityRules) *ToolEligibility {
	e := NewToolEligibility()
	for state, tools := range rules {
		e.AllowMultiple(state, tools...)
	}
	return e
}

// Allow permits a tool in the given state.
func (e *ToolEligibility) Allow(state agent.State, toolName string) *ToolEligibility {
	if e.allowed[state] == nil {
		e.allowed[state] = make(map[string]bool)
	}
	e.allowed[state][toolName] = true
	return e
}

// AllowMultiple permits multiple tools in the given state.
func (e *ToolEligibility) AllowMultiple(state agent.State, toolNames ...string) *ToolEligibility {
	for _, name := range toolNames {
		e.Allow(state, name)
	}
	return e
}

// IsAllowed checks if a tool is allowed in the given state.
func (e *ToolEligibility) IsAllowed(state agent.State, toolName string) bool {
	return e.allowed[state][toolName]
}

// AllowedTools returns the tools allowed in the given state, sorted.
func (e *ToolEligibility) AllowedTools(state agent.State) []string {
	tools := make([]string, 0, len(e.allowed[state]))
	for name := range e.allowed[state] {
		tools = append(tools, name)
	}
	slices.Sort(tools)
	return tools
}

// DefaultEligibility binds each grid tool to the states that use it.
func DefaultEligibility() *ToolEligibility {
	return NewToolEligibilityWith(EligibilityRules{
		agent.StateDemandForecasting: {ToolForecastDemand},
		agent.StateCapacityAnalysis:  {ToolCheckCapacity},
		agent.StateDispatchPlanning:  {ToolDispatchPlan},
		agent.StateExecution:         {ToolDispatchPlan},
		agent.StateAdjustment:        {ToolDispatchPlan},
	})
}
