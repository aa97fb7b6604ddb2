package planner

import (
	"context"
	"math"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
	"github.com/felixgeelhaar/gridbalancer/domain/grid"
	"github.com/felixgeelhaar/gridbalancer/domain/policy"
)

// ScriptedPlanner is a deterministic offline policy. It walks the default
// path, calls each state's tool once per visit and plans dispatches
// greedily: renewables first, then gas, then load shedding.
type ScriptedPlanner struct {
	hourOffset int
}

// NewScriptedPlanner creates the offline policy.
func NewScriptedPlanner() *ScriptedPlanner {
	return &ScriptedPlanner{hourOffset: 1}
}

// Plan implements the Planner interface.
func (p *ScriptedPlanner) Plan(_ context.Context, req PlanRequest) (agent.Decision, error) {
	d := p.decide(req.State, req.Observations)
	d.Raw = d.JSON()
	return d, nil
}

func (p *ScriptedPlanner) decide(state agent.State, obs agent.Observations) agent.Decision {
	switch state {
	case agent.StateInitializing:
		return agent.NewTransitionDecision(agent.StateDemandForecasting, "System ready. Start by forecasting demand.")

	case agent.StateDemandForecasting:
		if !obs.ToolCalledInState {
			return agent.NewToolCallDecision(policy.ToolForecastDemand, nil, "Forecast demand for the next hour.").
				WithParams(map[string]any{"hour_offset": p.hourOffset})
		}
		return agent.NewTransitionDecision(agent.StateCapacityAnalysis, "Forecast known. Check available generation.")

	case agent.StateCapacityAnalysis:
		if !obs.ToolCalledInState {
			return agent.NewToolCallDecision(policy.ToolCheckCapacity, nil, "Read current generation capacity.").
				WithParams(map[string]any{})
		}
		return agent.NewTransitionDecision(agent.StateDispatchPlanning, "Capacity known. Plan the dispatch.")

	case agent.StateDispatchPlanning:
		if !obs.ToolCalledInState {
			plan := GreedyPlan(obs)
			return agent.NewToolCallDecision(policy.ToolDispatchPlan, nil, "Dispatch renewables first, cover the rest with gas and shed what cannot be served.").
				WithParams(map[string]any{"distribution": plan})
		}
		return agent.NewTransitionDecision(agent.StateExecution, "Dispatch sent.")

	case agent.StateExecution:
		return agent.NewTransitionDecision(agent.StateStabilityCheck, "Plan applied. Verify stability.")

	case agent.StateStabilityCheck:
		if obs.Unstable() {
			return agent.NewTransitionDecision(agent.StateAdjustment, "Grid unstable. Replan.")
		}
		return agent.NewTransitionDecision(agent.StateTerminated, "Grid stable. Done.")

	case agent.StateAdjustment:
		return agent.NewTransitionDecision(agent.StateDispatchPlanning, "Replan with the observed demand.")

	default:
		return agent.NewTransitionDecision(agent.StateTerminated, "Unknown state.")
	}
}

// GreedyPlan covers the demand estimate with solar, then wind, then gas
// bounded by capacity and reserve. Anything left is shed. After an
// adjustment the larger of the forecast and the last served demand is used.
func GreedyPlan(obs agent.Observations) grid.Plan {
	demand := obs.ForecastMW
	if obs.Adjustments > 0 && obs.LastDemandMW > demand {
		demand = obs.LastDemandMW
	}

	var capacity grid.Capacity
	if obs.Capacity != nil {
		capacity = *obs.Capacity
	}
	gasLimit := math.Min(capacity.Gas, capacity.GasReserve)
	if obs.LastMetrics != nil {
		gasLimit = math.Min(gasLimit, obs.LastMetrics.RemainingGas)
	}

	need := demand
	take := func(available float64) float64 {
		v := math.Max(0, math.Min(need, available))
		need -= v
		return round2(v)
	}

	plan := grid.Plan{}
	plan.Solar = take(capacity.Solar)
	plan.Wind = take(capacity.Wind)
	plan.Gas = take(gasLimit)
	plan.LoadShedding = round2(math.Max(0, need))
	return plan
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
