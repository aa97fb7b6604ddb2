package policy

import (
	"slices"
	"testing"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
)

func TestDefaultEligibility(t *testing.T) {
	t.Parallel()

	e := DefaultEligibility()

	tests := []struct {
		state agent.State
		tool  string
		want  bool
	}{
		{agent.StateDemandForecasting, ToolForecastDemand, true},
		{agent.StateDemandForecasting, ToolDispatchPlan, false},
		{agent.StateCapacityAnalysis, ToolCheckCapacity, true},
		{agent.StateDispatchPlanning, ToolDispatchPlan, true},
		{agent.StateAdjustment, ToolDispatchPlan, true},
		{agent.StateStabilityCheck, ToolDispatchPlan, false},
		{agent.StateInitializing, ToolForecastDemand, false},
		{agent.StateTerminated, ToolCheckCapacity, false},
	}

	for _, tt := range tests {
		if got := e.IsAllowed(tt.state, tt.tool); got != tt.want {
			t.Errorf("IsAllowed(%s, %s) = %v, want %v", tt.state, tt.tool, got, tt.want)
		}
	}
}

func TestToolEligibility_AllowedTools(t *testing.T) {
	t.Parallel()

	e := NewToolEligibility().AllowMultiple(agent.StateExecution, "b", "a")
	if got := e.AllowedTools(agent.StateExecution); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("AllowedTools() = %v", got)
	}
	if got := e.AllowedTools(agent.StateTerminated); len(got) != 0 {
		t.Errorf("AllowedTools(TERMINATED) = %v, want empty", got)
	}
}
