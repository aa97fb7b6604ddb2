package api

import (
	"encoding/json"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
	"github.com/felixgeelhaar/gridbalancer/domain/grid"
	domaintool "github.com/felixgeelhaar/gridbalancer/domain/tool"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/gridtools"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/planner"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/storage/memory"
)

// NewToolBuilder creates a new tool builder.
func NewToolBuilder(name string) *domaintool.Builder {
	return domaintool.NewBuilder(name)
}

// NewToolRegistry creates an empty in-memory tool registry.
func NewToolRegistry() *memory.ToolRegistry {
	return memory.NewToolRegistry()
}

// NewGridToolRegistry creates a registry holding the forecast, capacity and
// dispatch tools bound to sim.
func NewGridToolRegistry(sim *grid.Simulator) (*memory.ToolRegistry, error) {
	r := memory.NewToolRegistry()
	if err := gridtools.Register(r, sim); err != nil {
		return nil, err
	}
	return r, nil
}

// NewMockPlanner creates a mock planner with predefined decisions.
func NewMockPlanner(decisions ...Decision) *planner.MockPlanner {
	return planner.NewMockPlanner(decisions...)
}

// NewScriptedPlanner creates the offline planner.
func NewScriptedPlanner() *planner.ScriptedPlanner {
	return planner.NewScriptedPlanner()
}

// NewTransitionDecision creates a decision that moves to another state.
func NewTransitionDecision(to State, thought string) Decision {
	return agent.NewTransitionDecision(to, thought)
}

// NewToolCallDecision creates a decision that calls a tool.
func NewToolCallDecision(tool string, params json.RawMessage, thought string) Decision {
	return agent.NewToolCallDecision(tool, params, thought)
}
