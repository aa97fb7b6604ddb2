package agent

import "errors"

// Domain errors for the agent.
var (
	// ErrInvalidState indicates the name is not one of the fixed states.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidTransition indicates an attempted state transition is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrRunTerminated indicates an operation was attempted on a terminated run.
	ErrRunTerminated = errors.New("run already terminated")

	// ErrUnknownAction indicates a decision with an unrecognised action type.
	ErrUnknownAction = errors.New("unknown action type")
)
