package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
)

// guardCanTransition checks the transition against the configured policy.
// Guards receive the context by value; our context is *Context.
func guardCanTransition(ctx *Context, event statekit.Event) bool {
	if ctx == nil || ctx.Run == nil || ctx.Transitions == nil {
		return false
	}
	return ctx.Transitions.CanTransition(ctx.Run.CurrentState, targetOf(event))
}

// guardGridStable blocks termination from the stability check while the
// last dispatch left the grid unstable.
func guardGridStable(ctx *Context, event statekit.Event) bool {
	if ctx == nil || ctx.Run == nil {
		return false
	}
	to, redirected := ctx.Stability.Redirect(ctx.Run.CurrentState, targetOf(event), ctx.Run.Observations)
	return !redirected && to == agent.StateTerminated
}

// targetOf reads the target state from the payload, falling back to the
// event type.
func targetOf(event statekit.Event) agent.State {
	if payload, ok := event.Payload.(TransitionPayload); ok {
		return payload.ToState
	}
	return agent.State(event.Type)
}
