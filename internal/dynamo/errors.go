package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for heat-bath runs.
var (
	// ErrInvalidState indicates a non-finite energy or temperature.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrBadConfig indicates unusable run settings.
	ErrBadConfig = errors.New("dynamo: invalid run configuration")

	// ErrBadCase indicates an unusable density or composition.
	ErrBadCase = errors.New("dynamo: invalid case")

	// ErrContextCanceled indicates the run was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")
)

// SimulationError wraps an error with run context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.3e s): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
