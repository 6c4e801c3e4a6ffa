package physics

import "errors"

var (
	// ErrUnknownMechanism indicates a mechanism name with no species list.
	ErrUnknownMechanism = errors.New("physics: unknown mechanism")

	// ErrBadState indicates a state vector the library cannot represent.
	ErrBadState = errors.New("physics: invalid state")
)
