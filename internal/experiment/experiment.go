// Package experiment turns a case file into a ready-to-run heat bath.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/twotemp/internal/analysis"
	"github.com/san-kum/twotemp/internal/config"
	"github.com/san-kum/twotemp/internal/dynamo"
	"github.com/san-kum/twotemp/internal/metrics"
	"github.com/san-kum/twotemp/internal/storage"
	"github.com/san-kum/twotemp/internal/thermo"
)

var (
	ErrUnknownMechanism  = errors.New("experiment: unknown mechanism")
	ErrUnknownIntegrator = errors.New("experiment: unknown integrator")
	ErrUnknownSpecies    = errors.New("experiment: species not in mechanism")
)

// RelaxationMinGap is the smallest |Ttr - Tv| used when fitting the
// relaxation time of a finished run.
const RelaxationMinGap = 1.0

// Setup is a config resolved against a property library.
type Setup struct {
	Config     *config.Config
	Mixture    *thermo.Mixture
	Case       dynamo.Case
	Run        dynamo.Config
	Integrator dynamo.Integrator
}

type Option func(*options)

type options struct {
	registry *Registry
	logger   *slog.Logger
}

func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = NewRegistry()
	}
	return o
}

// Build validates cfg and resolves it: the composition is normalised and
// mapped onto the library's species order, the density comes from the
// initial pressure unless cfg.Rho is set, and the initial energies are
// computed from the initial temperatures.
func Build(cfg *config.Config, opts ...Option) (*Setup, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	lib, err := o.registry.GetLibrary(cfg.Mechanism, cfg.Park)
	if err != nil {
		return nil, err
	}
	integ, err := o.registry.GetIntegrator(cfg)
	if err != nil {
		return nil, err
	}

	mixOpts := []thermo.Option{
		thermo.WithLogger(o.logger),
		thermo.WithTvSolver(cfg.TvSolverSettings()),
		thermo.WithTtrSolver(cfg.TtrSolverSettings()),
	}
	if cfg.VibTable != nil {
		mixOpts = append(mixOpts, thermo.WithVibTable(cfg.VibTable))
	}
	mix, err := thermo.NewMixture(lib, mixOpts...)
	if err != nil {
		return nil, fmt.Errorf("experiment: %w", err)
	}

	Y, err := MassFractions(mix, cfg.Composition)
	if err != nil {
		return nil, err
	}

	rho := cfg.Rho
	if !(rho > 0) {
		rho = cfg.Pressure / (mix.Rmix(Y) * cfg.Ttr)
	}
	if !(rho > 0) || math.IsInf(rho, 0) {
		return nil, fmt.Errorf("%w: density %g", config.ErrInvalid, rho)
	}

	x0 := dynamo.State{
		Ttr: cfg.Ttr,
		Tv:  cfg.Tv,
		Ev:  mix.EvFromTv(cfg.Tv, rho, Y),
		Et:  mix.EtFromState(cfg.Ttr, cfg.Tv, rho, Y),
	}

	name := cfg.Name
	if name == "" {
		name = cfg.Mechanism
	}

	o.logger.Debug("case built",
		"case", name, "mechanism", cfg.Mechanism, "rho", rho,
		"et", x0.Et, "ev", x0.Ev, "integrator", integ.Name())

	return &Setup{
		Config:     cfg,
		Mixture:    mix,
		Case:       dynamo.Case{Name: name, Rho: rho, Y: Y, Init: x0},
		Run:        runConfig(cfg),
		Integrator: integ,
	}, nil
}

func runConfig(cfg *config.Config) dynamo.Config {
	return dynamo.Config{
		Dt:            cfg.Dt,
		Steps:         cfg.Steps,
		RecordEvery:   cfg.RecordEvery,
		ValidateState: true,
	}
}

// MassFractions maps a composition by species name onto the mixture's
// species order and normalises it to sum to one.
func MassFractions(mix *thermo.Mixture, composition map[string]float64) ([]float64, error) {
	Y := make([]float64, mix.NSpecies())
	for name, y := range composition {
		i := mix.SpeciesIndex(name)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSpecies, name)
		}
		Y[i] += y
	}

	sum := floats.Sum(Y)
	if !(sum > 0) {
		return nil, fmt.Errorf("%w: mass fractions sum to %g", config.ErrInvalid, sum)
	}
	floats.Scale(1/sum, Y)
	return Y, nil
}

// Experiment is one built case plus its simulator.
type Experiment struct {
	setup     *Setup
	simulator *dynamo.Simulator
	logger    *slog.Logger
}

func New(cfg *config.Config, opts ...Option) (*Experiment, error) {
	setup, err := Build(cfg, opts...)
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	sim := dynamo.New(setup.Mixture, setup.Integrator)
	sim.SetLogger(o.logger)
	for _, m := range metrics.Standard() {
		sim.AddMetric(m)
	}

	return &Experiment{setup: setup, simulator: sim, logger: o.logger}, nil
}

func (e *Experiment) Setup() *Setup { return e.setup }

// GetSimulator returns the underlying simulator for adding observers.
func (e *Experiment) GetSimulator() *dynamo.Simulator {
	return e.simulator
}

// Run integrates the case. When the run finishes, the fitted relaxation time
// is added to the metrics as relaxation_tau if a fit was possible.
func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	res, err := e.simulator.Run(ctx, e.setup.Case, e.setup.Run)
	if err != nil {
		return res, err
	}
	addRelaxationTau(res, e.logger)
	return res, nil
}

func addRelaxationTau(res *dynamo.Result, logger *slog.Logger) {
	tau, err := analysis.RelaxationTime(res.Samples, RelaxationMinGap)
	if err != nil {
		logger.Debug("no relaxation fit", "case", res.Case, "error", err)
		return
	}
	res.Metrics["relaxation_tau"] = tau
}

// Table packages a result for storage and export.
func (e *Experiment) Table(res *dynamo.Result) storage.Table {
	return storage.Table{
		Species: e.setup.Mixture.SpeciesNames(),
		Rho:     e.setup.Case.Rho,
		Y:       e.setup.Case.Y,
		Samples: res.Samples,
	}
}

// Record bundles a result with everything the run store keeps.
func (e *Experiment) Record(res *dynamo.Result) storage.Run {
	return storage.Run{
		Config:      e.setup.Config,
		Integrator:  e.setup.Integrator.Name(),
		Table:       e.Table(res),
		Result:      res,
		Diagnostics: e.setup.Mixture.Diagnostics(),
	}
}
