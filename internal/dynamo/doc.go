// Package dynamo runs constant-volume two-temperature heat baths.
//
// A run repeatedly hands the current [State] to an [Integrator], which
// drives a [Stepper] (normally a *thermo.Mixture) and decides when to
// resynchronize temperatures with the stored energies:
//
//   - [State]: Et, Ev, Ttr and Tv of the bath
//   - [Case]: density, composition and initial state
//   - [Simulator]: steps one case, records samples, evaluates metrics
//   - [Ensemble]: runs independent cases concurrently
//
// # Example
//
//	lib, _ := physics.NewAirRRHO("air5")
//	mix, _ := thermo.NewMixture(lib)
//	sim := dynamo.New(mix, &integrators.Euler{Resync: true})
//	result, _ := sim.Run(ctx, c, dynamo.DefaultConfig())
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe and neither is the stepper they
// wrap. [Ensemble] builds a fresh stepper per case.
package dynamo
