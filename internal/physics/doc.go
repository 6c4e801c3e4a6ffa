// Package physics provides a reference two-temperature property library.
//
// [AirRRHO] implements [thermo.PropertyLibrary] for a fixed set of air
// species with a rigid-rotor harmonic-oscillator energy split:
//
//   - translational/rotational energy 3/2 R_s T (atoms) or 5/2 R_s T
//     (diatomics) at Ttr
//   - harmonic-oscillator vibrational energy at Tv
//   - Landau-Teller energy exchange with Millikan-White relaxation times and
//     an optional Park high-temperature correction
//
// Composition never changes; there is no chemistry.
//
// # Example
//
//	lib, _ := physics.NewAirRRHO("air5")
//	mix, _ := thermo.NewMixture(lib)
//	_ = mix.Step(dt, rho, Y, &et, &ev, &ttr, &tv)
package physics
