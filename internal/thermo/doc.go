// Package thermo implements the two-temperature relaxation core of a
// reacting gas mixture.
//
// Energy is split between a translational/rotational reservoir (Et, Ttr) and
// a vibrational reservoir (Ev, Tv):
//
//   - [VibEnergy]: closed-form harmonic-oscillator vibrational energy density
//   - [TvSolver]: damped Newton inversion Ev -> Tv
//   - [TtrSolver]: bracketed Newton/bisection inversion Et -> Ttr over an
//     opaque [EnergyFunc]
//   - [Mixture]: wraps a [PropertyLibrary] and advances Et/Ev by one explicit
//     relaxation step
//
// # Caller obligations
//
// [Mixture.Step] moves energy between the reservoirs but never recomputes
// temperatures. Callers that need Ttr/Tv consistent with the stored energies
// must call [Mixture.Resync] (or the two inversions) between steps. The
// explicit update is first order; dt must stay small relative to the
// vibrational relaxation time.
//
// None of the numeric routines fail. Bad inputs are replaced by defaults,
// degenerate iterations stop early and exhausted iteration budgets return the
// last iterate. [Mixture.Diagnostics] counts these events.
//
// # Thread Safety
//
// A Mixture reuses internal scratch buffers and is NOT safe for concurrent
// use. Give each goroutine its own instance.
package thermo
