package statemachine

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
	"github.com/felixgeelhaar/gridbalancer/domain/policy"
)

// TransitionPayload carries additional data with a transition event.
type TransitionPayload struct {
	ToState agent.State
	Reason  string
}

// Interpreter wraps the statekit interpreter with run bookkeeping.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates a new interpreter for the grid machine.
func NewInterpreter(machine *statekit.MachineConfig[*Context], ctx *Context) *Interpreter {
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	return &Interpreter{
		interp: interp,
		ctx:    ctx,
	}
}

// Start enters the initial state and marks the run as running.
func (i *Interpreter) Start() {
	i.interp.Start()
	i.ctx.Run.CurrentState = StateFromMachine(i.interp.State().Value)
	i.ctx.Run.Start()
}

// Stop stops the interpreter.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// State returns the current state.
func (i *Interpreter) State() agent.State {
	return StateFromMachine(i.interp.State().Value)
}

// Transition moves to the target state. It fails without changing state
// when the run is over, when the policy has no such edge
// (policy.ErrTransitionNotAllowed) or when a guard rejects the move
// (agent.ErrInvalidTransition).
func (i *Interpreter) Transition(to agent.State, reason string) error {
	from := i.State()
	if i.IsTerminal() {
		return fmt.Errorf("%w: in %s", agent.ErrRunTerminated, from)
	}
	if !i.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", policy.ErrTransitionNotAllowed, from, to)
	}

	i.interp.Send(statekit.Event{
		Type: EventForTransition(to),
		Payload: TransitionPayload{
			ToState: to,
			Reason:  reason,
		},
	})

	now := i.State()
	i.ctx.Run.CurrentState = now
	if now != to {
		return fmt.Errorf("%w: %s -> %s rejected by statechart", agent.ErrInvalidTransition, from, to)
	}
	return nil
}

// CanTransition checks the policy for a transition from the current state.
func (i *Interpreter) CanTransition(to agent.State) bool {
	return i.ctx.Transitions.CanTransition(i.State(), to)
}

// IsTerminal returns true if the interpreter is in a final state.
func (i *Interpreter) IsTerminal() bool {
	return i.interp.Done()
}

// Context returns the interpreter context.
func (i *Interpreter) Context() *Context {
	return i.ctx
}

// ResumeFrom restores the interpreter to a specific state.
func (i *Interpreter) ResumeFrom(state agent.State) error {
	if !state.IsValid() {
		return fmt.Errorf("%w: %q", agent.ErrInvalidState, state)
	}

	snapshot := statekit.Snapshot[*Context]{
		MachineID:    MachineID,
		CurrentState: statekit.StateID(state),
		Context:      i.ctx,
		CreatedAt:    time.Now(),
	}
	if err := i.interp.Restore(snapshot); err != nil {
		return fmt.Errorf("failed to restore state: %w", err)
	}

	i.ctx.Run.CurrentState = state
	return nil
}
