package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for engine and simulation operations.
var (
	// ErrNegativeRadius indicates a sphere or cylinder built with a negative radius.
	ErrNegativeRadius = errors.New("dynamo: radius must be non-negative")

	// ErrInvalidMass indicates a negative or non-finite body mass.
	ErrInvalidMass = errors.New("dynamo: mass must be finite and non-negative")

	// ErrBodyNotFound indicates a lookup or removal of a body the world does not hold.
	ErrBodyNotFound = errors.New("dynamo: body not found in world")

	// ErrBodyExists indicates a body added twice.
	ErrBodyExists = errors.New("dynamo: body already in world")

	// ErrInvalidGrid indicates grid broadphase cell counts that do not multiply to a positive number.
	ErrInvalidGrid = errors.New("dynamo: grid cell counts must be positive")

	// ErrInvalidShape indicates malformed shape geometry (empty faces, bad indices, too few samples).
	ErrInvalidShape = errors.New("dynamo: invalid shape geometry")

	// ErrInvalidTimestep indicates a non-positive or non-finite step size.
	ErrInvalidTimestep = errors.New("dynamo: timestep must be positive")

	// ErrInvalidConfig indicates a configuration value out of range or an unknown kind name.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrUnknownScene indicates a scene name with no registered builder.
	ErrUnknownScene = errors.New("dynamo: unknown scene")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrUnstable indicates the simulation became numerically unstable.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Body    int
	Wrapped error
}

func (e *SimulationError) Error() string {
	if e.Body >= 0 {
		return fmt.Sprintf("step %d (t=%.4f) body %d: %v", e.Step, e.Time, e.Body, e.Wrapped)
	}
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
