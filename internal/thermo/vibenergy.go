package thermo

import "math"

// maxReducedTemp caps theta_v/T before exponentiation.
const maxReducedTemp = 700.0

// SpecificVibEnergy returns the harmonic-oscillator vibrational energy of one
// species in J/kg. It returns 0 when the expression degenerates.
func SpecificVibEnergy(thetaV, molarMass, T float64) float64 {
	ev, _, ok := vibTerms(thetaV, molarMass, T)
	if !ok {
		return 0
	}
	return ev
}

// vibTerms returns e_v [J/kg] and de_v/dT [J/kg/K] for one species.
func vibTerms(thetaV, molarMass, T float64) (ev, slope float64, ok bool) {
	rs := Ru / molarMass
	x := math.Min(thetaV/T, maxReducedTemp)

	// expm1 keeps precision at small x (high T).
	denom := math.Expm1(x)
	if !isFinite(denom) || denom <= 0 {
		return 0, 0, false
	}

	ev = rs * thetaV / denom
	ex := math.Exp(x)
	slope = rs * thetaV * (thetaV / (T * T)) * (ex / denom) / denom
	return ev, slope, true
}

// VibEnergy returns the vibrational energy density [J/m^3] of the species in
// records at vibrational temperature Tv, density rho and mass fractions Y
// (global species indexing).
func VibEnergy(records []VibRecord, Tv, rho float64, Y []float64) float64 {
	ev, _ := VibEnergyAndSlope(records, Tv, rho, Y)
	return ev
}

// VibEnergyAndSlope returns the vibrational energy density and its analytic
// derivative with respect to Tv.
func VibEnergyAndSlope(records []VibRecord, Tv, rho float64, Y []float64) (ev, slope float64) {
	for _, r := range records {
		if r.Index < 0 || r.Index >= len(Y) {
			continue
		}
		ys := Y[r.Index]
		if ys <= 0 {
			continue
		}
		e, de, ok := vibTerms(r.ThetaV, r.MolarMass, Tv)
		if !ok {
			continue
		}
		ev += rho * ys * e
		slope += rho * ys * de
	}
	return ev, slope
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
