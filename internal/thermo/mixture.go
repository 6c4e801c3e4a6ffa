package thermo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
)

const (
	// DefaultTtr replaces unusable translational temperatures.
	DefaultTtr = 300.0

	// minPartialDensity floors rho*Y[s] when pushing state to the library.
	minPartialDensity = 1e-12
)

// Diagnostics counts the silent substitutions the core performs. Counting
// never changes results.
type Diagnostics struct {
	SkippedSpecies        []string `json:"skipped_species,omitempty"`
	Steps                 int      `json:"steps"`
	SanitizedTemperatures int      `json:"sanitized_temperatures"`
	FlooredDensities      int      `json:"floored_densities"`
	TvInversions          int      `json:"tv_inversions"`
	TvUnconverged         int      `json:"tv_unconverged"`
	TtrInversions         int      `json:"ttr_inversions"`
	TtrUnconverged        int      `json:"ttr_unconverged"`
	EnergyEvalFailures    int      `json:"energy_eval_failures"`
}

// Mixture binds a property library to the vibrational table and carries the
// scratch buffers used to talk to the library.
type Mixture struct {
	lib     PropertyLibrary
	table   VibTable
	records []VibRecord
	ns      int

	rhoI   []float64
	tState []float64
	src    []float64

	tv  TvSolver
	ttr TtrSolver

	logger *slog.Logger
	diag   Diagnostics
}

// Option configures a Mixture.
type Option func(*Mixture)

// WithVibTable replaces the default vibrational table.
func WithVibTable(table VibTable) Option {
	return func(m *Mixture) { m.table = table }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mixture) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithTvSolver overrides the vibrational inversion settings.
func WithTvSolver(s TvSolver) Option {
	return func(m *Mixture) { m.tv = s }
}

// WithTtrSolver overrides the translational inversion settings.
func WithTtrSolver(s TtrSolver) Option {
	return func(m *Mixture) { m.ttr = s }
}

// NewMixture wraps lib. Vibrational table entries the library does not know
// are dropped without error.
func NewMixture(lib PropertyLibrary, opts ...Option) (*Mixture, error) {
	ns := lib.NSpecies()
	if ns <= 0 {
		return nil, ErrNoSpecies
	}

	m := &Mixture{
		lib:    lib,
		table:  DefaultVibTable(),
		ns:     ns,
		tv:     DefaultTvSolver(),
		ttr:    DefaultTtrSolver(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}

	nEq := lib.NEnergyEqns()
	if nEq < 1 {
		nEq = 1
	}
	m.rhoI = make([]float64, ns)
	m.tState = make([]float64, 2)
	m.src = make([]float64, nEq)

	var skipped []string
	m.records, skipped = MatchVibTable(lib, m.table)
	m.diag.SkippedSpecies = skipped
	for _, name := range skipped {
		m.logger.Debug("vibrational species not in mixture", "species", name)
	}
	m.logger.Info("mixture initialized",
		"species", ns,
		"vibrational_species", len(m.records),
	)

	return m, nil
}

// NSpecies returns the number of species of the wrapped library.
func (m *Mixture) NSpecies() int { return m.ns }

// SpeciesName returns the library name of species i.
func (m *Mixture) SpeciesName(i int) string { return m.lib.SpeciesName(i) }

// SpeciesIndex returns the library index of name, or -1.
func (m *Mixture) SpeciesIndex(name string) int { return m.lib.SpeciesIndex(name) }

// SpeciesNames returns all species names in library order.
func (m *Mixture) SpeciesNames() []string {
	names := make([]string, m.ns)
	for i := range names {
		names[i] = m.lib.SpeciesName(i)
	}
	return names
}

// VibRecords returns the matched vibrational records.
func (m *Mixture) VibRecords() []VibRecord {
	out := make([]VibRecord, len(m.records))
	copy(out, m.records)
	return out
}

// Diagnostics returns a snapshot of the substitution counters.
func (m *Mixture) Diagnostics() Diagnostics {
	d := m.diag
	d.SkippedSpecies = append([]string(nil), m.diag.SkippedSpecies...)
	return d
}

// Rmix returns the mixture gas constant sum(Y_s Ru/M_s) in J/(kg K).
func (m *Mixture) Rmix(Y []float64) float64 {
	r := 0.0
	for s := 0; s < m.ns && s < len(Y); s++ {
		if Y[s] <= 0 {
			continue
		}
		mw := m.lib.SpeciesMw(s)
		if mw <= 0 {
			continue
		}
		r += Y[s] * Ru / mw
	}
	return r
}

// Pressure returns the ideal-gas pressure based on the translational
// temperature.
func (m *Mixture) Pressure(rho float64, Y []float64, ttr float64) float64 {
	return rho * m.Rmix(Y) * ttr
}

// Step advances Et and Ev by one explicit relaxation step of length dt.
//
// Ttr and Tv are sanitized in place (non-finite or non-positive Ttr becomes
// 300 K, Tv then falls back to Ttr) and used as the operating point for the
// source query. The exchanged energy Qve*dt is added to Ev and removed from Et.
// Temperatures are not resynchronized; see [Mixture.Resync].
func (m *Mixture) Step(dt, rho float64, Y []float64, et, ev, ttr, tv *float64) error {
	if len(Y) < m.ns {
		return fmt.Errorf("%w: %d mass fractions for %d species", ErrDimensionMismatch, len(Y), m.ns)
	}

	m.sanitize(ttr, tv)

	if err := m.setState(rho, Y, *ttr, *tv); err != nil {
		return err
	}

	for i := range m.src {
		m.src[i] = 0
	}
	if err := m.lib.EnergyTransferSource(m.src); err != nil {
		return fmt.Errorf("%w: energy transfer source: %w", ErrLibraryState, err)
	}

	qve := m.src[0]
	exchange := qve * dt
	*ev += exchange
	*et -= exchange
	m.diag.Steps++

	if m.logger.Enabled(context.Background(), slog.LevelDebug) {
		m.logger.Debug("relaxation step",
			"dt", dt,
			"ttr", *ttr,
			"tv", *tv,
			"qve", qve,
			"p", m.Pressure(rho, Y, *ttr),
		)
	}
	return nil
}

func (m *Mixture) sanitize(ttr, tv *float64) {
	if !isFinite(*ttr) || *ttr <= 0 {
		*ttr = DefaultTtr
		m.diag.SanitizedTemperatures++
	}
	if !isFinite(*tv) || *tv <= 0 {
		*tv = *ttr
		m.diag.SanitizedTemperatures++
	}
}

func (m *Mixture) setState(rho float64, Y []float64, ttr, tv float64) error {
	for s := 0; s < m.ns; s++ {
		ri := rho * Y[s]
		if !(ri >= minPartialDensity) {
			ri = minPartialDensity
			m.diag.FlooredDensities++
		}
		m.rhoI[s] = ri
	}
	m.tState[0] = ttr
	m.tState[1] = tv

	if err := m.lib.SetState(m.rhoI, m.tState); err != nil {
		return fmt.Errorf("%w: set state: %w", ErrLibraryState, err)
	}
	return nil
}

// EvFromTv returns the vibrational energy density at Tv.
func (m *Mixture) EvFromTv(tv, rho float64, Y []float64) float64 {
	return VibEnergy(m.records, tv, rho, Y)
}

// InvertTv returns the vibrational temperature reproducing evTarget.
func (m *Mixture) InvertTv(evTarget, rho float64, Y []float64, tvInit float64) float64 {
	return m.InvertTvResult(evTarget, rho, Y, tvInit).T
}

// InvertTvResult is InvertTv with the mixture's solver settings, reporting
// the full [Solution].
func (m *Mixture) InvertTvResult(evTarget, rho float64, Y []float64, tvInit float64) Solution {
	sol := m.tv.Solve(m.records, evTarget, rho, Y, tvInit)
	m.recordTv(evTarget, sol)
	return sol
}

func (m *Mixture) recordTv(target float64, sol Solution) {
	if !isFinite(target) || target <= 0 {
		return
	}
	m.diag.TvInversions++
	if !sol.Converged {
		m.diag.TvUnconverged++
		m.logger.Debug("tv inversion not converged",
			"target", target,
			"tv", sol.T,
			"residual", sol.Residual,
			"iterations", sol.Iterations,
		)
	}
}

// EtFromState returns the translational-reservoir energy density: the total
// mixture energy from the library minus the vibrational model, floored at 0.
// A library failure yields NaN.
func (m *Mixture) EtFromState(ttr, tv, rho float64, Y []float64) float64 {
	if len(Y) < m.ns {
		return math.NaN()
	}
	if err := m.setState(rho, Y, ttr, tv); err != nil {
		m.diag.EnergyEvalFailures++
		m.logger.Debug("energy evaluation failed", "ttr", ttr, "tv", tv, "err", err)
		return math.NaN()
	}
	eTot := rho * m.lib.MixtureEnergyMass()
	return math.Max(eTot-m.EvFromTv(tv, rho, Y), 0)
}

// InvertTtr returns the translational temperature reproducing etTarget at
// fixed Tv. Every residual evaluation is a full library state solve.
func (m *Mixture) InvertTtr(etTarget, rho float64, Y []float64, tv, ttrInit float64) float64 {
	return m.InvertTtrResult(etTarget, rho, Y, tv, ttrInit).T
}

// InvertTtrResult is InvertTtr reporting the full [Solution].
func (m *Mixture) InvertTtrResult(etTarget, rho float64, Y []float64, tv, ttrInit float64) Solution {
	energy := func(T float64) float64 {
		return m.EtFromState(T, tv, rho, Y)
	}
	sol := m.ttr.Solve(energy, etTarget, ttrInit)
	if isFinite(etTarget) && etTarget > 0 {
		m.diag.TtrInversions++
		if !sol.Converged {
			m.diag.TtrUnconverged++
			m.logger.Debug("ttr inversion not converged",
				"target", etTarget,
				"ttr", sol.T,
				"residual", sol.Residual,
				"bracketed", sol.Bracketed,
			)
		}
	}
	return sol
}

// Resync recomputes Tv from Ev and then Ttr from Et at the new Tv. The
// current temperatures seed both iterations.
func (m *Mixture) Resync(rho float64, Y []float64, et, ev float64, ttr, tv *float64) {
	*tv = m.InvertTv(ev, rho, Y, *tv)
	*ttr = m.InvertTtr(et, rho, Y, *tv, *ttr)
}
