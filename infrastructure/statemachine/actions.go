package statemachine

import (
	"github.com/felixgeelhaar/statekit"
)

// logStateEntry syncs the run with the state being entered. Actions
// receive a pointer to the context, so **Context here.
func logStateEntry(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil || (*ctx).Run == nil {
		return
	}

	if to := targetOf(event); to.IsValid() {
		(*ctx).Run.CurrentState = to
	}
}

// recordTransition applies the transition to the run aggregate.
func recordTransition(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil || (*ctx).Run == nil {
		return
	}

	c := *ctx
	to := targetOf(event)
	if payload, ok := event.Payload.(TransitionPayload); ok && payload.Reason != "" && to.IsTerminal() {
		c.Run.Reason = payload.Reason
	}
	c.Run.TransitionTo(to)
}
