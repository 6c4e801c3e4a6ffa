// Package analysis post-processes recorded heat-bath runs.
//
//   - [FitRelaxation]: e-folding time of the temperature gap from a
//     least-squares fit of ln|Ttr - Tv| against time
//   - [Summarize]: initial and final state, equilibrium gap, energy balance
//   - [TemperaturePortrait]: the Ttr-Tv trajectory, with an ASCII renderer
//
// A single-mode Landau-Teller bath closes the gap as exp(-t/tau), so the fit
// recovers tau directly:
//
//	fit, err := analysis.FitRelaxation(result.Samples, 1.0)
//	if err == nil {
//	    fmt.Printf("tau = %.3e s\n", fit.Tau)
//	}
package analysis
