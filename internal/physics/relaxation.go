package physics

import (
	"math"

	"gonum.org/v1/gonum/unit/constant"

	"github.com/san-kum/twotemp/internal/thermo"
)

const (
	atm = 101325.0 // Pa

	// Park's limiting cross section is sigma0 (50000/T)^2.
	parkSigma0 = 3e-21 // m^2
	parkTref   = 50000.0

	boltzmann = float64(constant.Boltzmann)
)

// MillikanWhite returns the Millikan-White relaxation time [s] of vibrator s
// colliding with partner r at temperature T and pressure p [Pa]. Molar masses
// are in kg/mol.
func MillikanWhite(thetaV, ms, mr, T, p float64) float64 {
	mu := 1e3 * ms * mr / (ms + mr) // g/mol
	A := 1.16e-3 * math.Sqrt(mu) * math.Pow(thetaV, 4.0/3.0)
	B := 0.015 * math.Pow(mu, 0.25)
	return math.Exp(A*(math.Cbrt(1/T)-B)-18.42) * atm / p
}

// ParkTime returns the high-temperature limiting relaxation time [s] for a
// species of molar mass m at temperature T and number density n [1/m^3].
func ParkTime(m, T, n float64) float64 {
	sigma := parkSigma0 * (parkTref / T) * (parkTref / T)
	cbar := math.Sqrt(8 * thermo.Ru * T / (math.Pi * m))
	return 1 / (sigma * cbar * n)
}

// RelaxationTime returns the mole-fraction averaged vibrational relaxation
// time of species i for the current state, plus the Park correction when
// enabled. Species without a vibrational mode return +Inf.
func (a *AirRRHO) RelaxationTime(i int) float64 {
	s := a.Species[i]
	if !s.Diatomic() {
		return math.Inf(1)
	}

	p := a.TranslationalPressure()
	if p <= 0 {
		return math.Inf(1)
	}

	moles := make([]float64, len(a.Species))
	total := 0.0
	for r, sr := range a.Species {
		moles[r] = a.rhoI[r] / sr.MolarMass
		total += moles[r]
	}
	if total <= 0 {
		return math.Inf(1)
	}

	num, den := 0.0, 0.0
	for r, sr := range a.Species {
		x := moles[r] / total
		if x <= 0 {
			continue
		}
		tau := MillikanWhite(s.ThetaV, s.MolarMass, sr.MolarMass, a.ttr, p)
		num += x
		den += x / tau
	}
	if den <= 0 {
		return math.Inf(1)
	}
	tau := num / den

	if a.Park {
		n := p / (boltzmann * a.ttr)
		tau += ParkTime(s.MolarMass, a.ttr, n)
	}
	return tau
}
