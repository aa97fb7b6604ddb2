package grid

import "errors"

// Domain errors for the grid simulation.
var (
	// ErrUnknownScenario indicates a scenario id outside the catalogue.
	ErrUnknownScenario = errors.New("unknown scenario")

	// ErrInvalidPlan indicates a dispatch plan with negative or non-finite amounts.
	ErrInvalidPlan = errors.New("invalid dispatch plan")
)
