package policy

import (
	"testing"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
)

func TestDefaultTransitions(t *testing.T) {
	t.Parallel()

	tr := DefaultTransitions()

	tests := []struct {
		from, to agent.State
		want     bool
	}{
		{agent.StateInitializing, agent.StateDemandForecasting, true},
		{agent.StateDemandForecasting, agent.StateCapacityAnalysis, true},
		{agent.StateCapacityAnalysis, agent.StateDispatchPlanning, true},
		{agent.StateDispatchPlanning, agent.StateExecution, true},
		{agent.StateExecution, agent.StateStabilityCheck, true},
		{agent.StateStabilityCheck, agent.StateTerminated, true},
		{agent.StateStabilityCheck, agent.StateAdjustment, true},
		{agent.StateStabilityCheck, agent.StateDemandForecasting, true},
		{agent.StateAdjustment, agent.StateDispatchPlanning, true},

		// fallback edges
		{agent.StateCapacityAnalysis, agent.StateAdjustment, true},
		{agent.StateInitializing, agent.StateTerminated, true},
		{agent.StateAdjustment, agent.StateTerminated, true},

		// skipped or backwards steps
		{agent.StateInitializing, agent.StateDispatchPlanning, false},
		{agent.StateDemandForecasting, agent.StateExecution, false},
		{agent.StateExecution, agent.StateDispatchPlanning, false},
		{agent.StateAdjustment, agent.StateAdjustment, false},
		{agent.StateTerminated, agent.StateDemandForecasting, false},
	}

	for _, tt := range tests {
		if got := tr.CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStateTransitions_AllowIsIdempotent(t *testing.T) {
	t.Parallel()

	tr := NewStateTransitions().
		Allow(agent.StateExecution, agent.StateStabilityCheck).
		Allow(agent.StateExecution, agent.StateStabilityCheck)

	if got := tr.AllowedTransitions(agent.StateExecution); len(got) != 1 {
		t.Errorf("AllowedTransitions() = %v, want one entry", got)
	}
}

func TestNextOnPath(t *testing.T) {
	t.Parallel()

	tr := DefaultTransitions()
	for _, s := range agent.NonTerminalStates() {
		next, ok := NextOnPath(s)
		if !ok {
			t.Errorf("NextOnPath(%s) has no successor", s)
			continue
		}
		if !tr.CanTransition(s, next) {
			t.Errorf("NextOnPath(%s) = %s is not an allowed transition", s, next)
		}
	}
	if _, ok := NextOnPath(agent.StateTerminated); ok {
		t.Error("NextOnPath(TERMINATED) should have no successor")
	}
}
