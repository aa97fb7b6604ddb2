package policy

import "errors"

var (
	// ErrBudgetExceeded is returned by Consume once a limit is spent.
	ErrBudgetExceeded = errors.New("budget exceeded")

	// ErrTransitionNotAllowed means the transition rules have no such edge.
	ErrTransitionNotAllowed = errors.New("transition not in policy")
)
