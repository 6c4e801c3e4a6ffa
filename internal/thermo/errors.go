package thermo

import "errors"

var (
	// ErrNoSpecies indicates a property library without species.
	ErrNoSpecies = errors.New("thermo: mixture has no species")

	// ErrDimensionMismatch indicates a composition array shorter than the
	// species table.
	ErrDimensionMismatch = errors.New("thermo: composition length does not match species count")

	// ErrLibraryState indicates the property library rejected a state or a
	// query.
	ErrLibraryState = errors.New("thermo: property library failure")
)
