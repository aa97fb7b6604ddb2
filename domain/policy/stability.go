package policy

import "github.com/felixgeelhaar/gridbalancer/domain/agent"

// StabilityGate keeps the agent from signing off on an unstable grid.
type StabilityGate struct {
	Enabled bool
}

// Redirect returns the state the loop should actually enter for a
// requested transition. A request to terminate from STABILITY_CHECK while
// the last dispatch needs adjustment is turned into ADJUSTMENT.
func (g StabilityGate) Redirect(from, to agent.State, obs agent.Observations) (agent.State, bool) {
	if !g.Enabled {
		return to, false
	}
	if from == agent.StateStabilityCheck && to == agent.StateTerminated && obs.Unstable() {
		return agent.StateAdjustment, true
	}
	return to, false
}
