package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/twotemp/internal/thermo"
)

// AirRRHO is a two-temperature RRHO air model. It keeps the last state set
// through SetState and is not safe for concurrent use.
type AirRRHO struct {
	Mechanism string
	Species   []Species
	Park      bool

	index map[string]int
	rhoI  []float64
	ttr   float64
	tv    float64
	set   bool
}

// Option configures an AirRRHO.
type Option func(*AirRRHO)

// WithParkCorrection enables the Park high-temperature correction of the
// vibrational relaxation time.
func WithParkCorrection(on bool) Option {
	return func(a *AirRRHO) { a.Park = on }
}

// NewAirRRHO builds the library for the named mechanism.
func NewAirRRHO(mechanism string, opts ...Option) (*AirRRHO, error) {
	species, err := lookupMechanism(mechanism)
	if err != nil {
		return nil, err
	}
	a := &AirRRHO{
		Mechanism: mechanism,
		Species:   species,
		index:     make(map[string]int, len(species)),
		rhoI:      make([]float64, len(species)),
	}
	for i, s := range species {
		a.index[s.Name] = i
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *AirRRHO) NSpecies() int { return len(a.Species) }

func (a *AirRRHO) SpeciesIndex(name string) int {
	if i, ok := a.index[name]; ok {
		return i
	}
	return -1
}

func (a *AirRRHO) SpeciesName(i int) string { return a.Species[i].Name }

func (a *AirRRHO) SpeciesMw(i int) float64 { return a.Species[i].MolarMass }

func (a *AirRRHO) NEnergyEqns() int { return 1 }

func (a *AirRRHO) SetState(rhoI, T []float64) error {
	if len(rhoI) != len(a.Species) {
		return fmt.Errorf("%w: %d partial densities for %d species", ErrBadState, len(rhoI), len(a.Species))
	}
	if len(T) < 2 {
		return fmt.Errorf("%w: need [Ttr, Tv], got %d temperatures", ErrBadState, len(T))
	}
	for _, t := range T[:2] {
		if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
			return fmt.Errorf("%w: temperature %g", ErrBadState, t)
		}
	}
	for i, r := range rhoI {
		if math.IsNaN(r) || r < 0 {
			return fmt.Errorf("%w: partial density %g for %s", ErrBadState, r, a.Species[i].Name)
		}
	}
	copy(a.rhoI, rhoI)
	a.ttr, a.tv = T[0], T[1]
	a.set = true
	return nil
}

// Density returns the mixture density of the current state.
func (a *AirRRHO) Density() float64 {
	rho := 0.0
	for _, r := range a.rhoI {
		rho += r
	}
	return rho
}

// TranslationalPressure returns sum(rho_s R_s) Ttr for the current state.
func (a *AirRRHO) TranslationalPressure() float64 {
	p := 0.0
	for i, s := range a.Species {
		p += a.rhoI[i] * thermo.Ru / s.MolarMass
	}
	return p * a.ttr
}

// MixtureEnergyMass returns the total energy per unit mass: the
// translational/rotational energy at Ttr plus vibrational energy at Tv.
func (a *AirRRHO) MixtureEnergyMass() float64 {
	rho := a.Density()
	if !a.set || rho <= 0 {
		return 0
	}
	e := 0.0
	for i, s := range a.Species {
		y := a.rhoI[i] / rho
		rs := thermo.Ru / s.MolarMass
		e += y * s.TransRot * rs * a.ttr
		if s.Diatomic() {
			e += y * thermo.SpecificVibEnergy(s.ThetaV, s.MolarMass, a.tv)
		}
	}
	return e
}

// EnergyTransferSource writes the Landau-Teller exchange rate
// sum_s rho_s (e_v,s(Ttr) - e_v,s(Tv)) / tau_s into dst[0].
func (a *AirRRHO) EnergyTransferSource(dst []float64) error {
	if len(dst) < 1 {
		return fmt.Errorf("%w: empty source array", ErrBadState)
	}
	if !a.set {
		return fmt.Errorf("%w: state not set", ErrBadState)
	}

	q := 0.0
	for i, s := range a.Species {
		if !s.Diatomic() || a.rhoI[i] <= 0 {
			continue
		}
		tau := a.RelaxationTime(i)
		if !(tau > 0) || math.IsInf(tau, 0) {
			continue
		}
		evEq := thermo.SpecificVibEnergy(s.ThetaV, s.MolarMass, a.ttr)
		ev := thermo.SpecificVibEnergy(s.ThetaV, s.MolarMass, a.tv)
		q += a.rhoI[i] * (evEq - ev) / tau
	}
	dst[0] = q
	for i := 1; i < len(dst); i++ {
		dst[i] = 0
	}
	return nil
}
