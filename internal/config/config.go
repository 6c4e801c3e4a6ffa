package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/twotemp/internal/thermo"
)

const (
	DefaultMechanism   = "air5"
	DefaultTtr         = 12000.0
	DefaultTv          = 2000.0
	DefaultPressure    = 101325.0
	DefaultDt          = 1e-8
	DefaultSteps       = 4000
	DefaultIntegrator  = "euler"
	DefaultRecordEvery = 1
)

// ErrInvalid indicates a case file that cannot be run.
var ErrInvalid = errors.New("config: invalid")

// Config describes one constant-volume heat-bath case.
type Config struct {
	Name        string             `yaml:"name,omitempty" json:"name,omitempty"`
	Mechanism   string             `yaml:"mechanism" json:"mechanism"`
	Park        bool               `yaml:"park" json:"park"`
	Composition map[string]float64 `yaml:"composition" json:"composition"`
	Ttr         float64            `yaml:"ttr" json:"ttr"`
	Tv          float64            `yaml:"tv" json:"tv"`
	Pressure    float64            `yaml:"pressure" json:"pressure"`
	Rho         float64            `yaml:"rho,omitempty" json:"rho,omitempty"` // overrides pressure when positive
	Dt          float64            `yaml:"dt" json:"dt"`
	Steps       int                `yaml:"steps" json:"steps"`
	Integrator  string             `yaml:"integrator" json:"integrator"`
	Substeps    int                `yaml:"substeps" json:"substeps"`
	Resync      bool               `yaml:"resync" json:"resync"`
	RecordEvery int                `yaml:"record_every" json:"record_every"`
	VibTable    thermo.VibTable    `yaml:"vib_table,omitempty" json:"vib_table,omitempty"`
	TvSolver    *Solver            `yaml:"tv_solver,omitempty" json:"tv_solver,omitempty"`
	TtrSolver   *Solver            `yaml:"ttr_solver,omitempty" json:"ttr_solver,omitempty"`
}

// Solver overrides temperature inversion settings. Zero fields keep the
// defaults.
type Solver struct {
	Lo      float64 `yaml:"lo,omitempty" json:"lo,omitempty"`
	Hi      float64 `yaml:"hi,omitempty" json:"hi,omitempty"`
	MaxIter int     `yaml:"max_iter,omitempty" json:"max_iter,omitempty"`
	RelTol  float64 `yaml:"rel_tol,omitempty" json:"rel_tol,omitempty"`
}

func (s *Solver) apply(b *thermo.Bounds, maxIter *int, relTol *float64) {
	if s == nil {
		return
	}
	if s.Lo != 0 {
		b.Lo = s.Lo
	}
	if s.Hi != 0 {
		b.Hi = s.Hi
	}
	if s.MaxIter != 0 {
		*maxIter = s.MaxIter
	}
	if s.RelTol != 0 {
		*relTol = s.RelTol
	}
}

// TvSolverSettings returns the default Tv solver with the tv_solver
// overrides applied.
func (c *Config) TvSolverSettings() thermo.TvSolver {
	sv := thermo.DefaultTvSolver()
	c.TvSolver.apply(&sv.Bounds, &sv.MaxIter, &sv.RelTol)
	return sv
}

// TtrSolverSettings returns the default Ttr solver with the ttr_solver
// overrides applied.
func (c *Config) TtrSolverSettings() thermo.TtrSolver {
	sv := thermo.DefaultTtrSolver()
	c.TtrSolver.apply(&sv.Bounds, &sv.MaxIter, &sv.RelTol)
	return sv
}

// DefaultConfig is the reference air heat bath: 79/21 N2/O2 by mass at
// 12000/2000 K and 1 atm, 4000 steps of 10 ns.
func DefaultConfig() *Config {
	return &Config{
		Name:        "heatbath",
		Mechanism:   DefaultMechanism,
		Composition: map[string]float64{"N2": 0.79, "O2": 0.21},
		Ttr:         DefaultTtr,
		Tv:          DefaultTv,
		Pressure:    DefaultPressure,
		Dt:          DefaultDt,
		Steps:       DefaultSteps,
		Integrator:  DefaultIntegrator,
		Substeps:    1,
		Resync:      true,
		RecordEvery: DefaultRecordEvery,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML on top of DefaultConfig. A composition in the file
// replaces the default one instead of merging with it.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	defaults := cfg.Composition
	cfg.Composition = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if cfg.Composition == nil {
		cfg.Composition = defaults
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Composition = make(map[string]float64, len(c.Composition))
	for k, v := range c.Composition {
		out.Composition[k] = v
	}
	if c.VibTable != nil {
		out.VibTable = append(thermo.VibTable(nil), c.VibTable...)
	}
	if c.TvSolver != nil {
		sv := *c.TvSolver
		out.TvSolver = &sv
	}
	if c.TtrSolver != nil {
		sv := *c.TtrSolver
		out.TtrSolver = &sv
	}
	return &out
}

func (c *Config) Validate() error {
	if c.Mechanism == "" {
		return fmt.Errorf("%w: mechanism is required", ErrInvalid)
	}
	if len(c.Composition) == 0 {
		return fmt.Errorf("%w: composition is empty", ErrInvalid)
	}
	sum := 0.0
	for name, y := range c.Composition {
		if !isFinite(y) || y < 0 {
			return fmt.Errorf("%w: mass fraction of %s is %g", ErrInvalid, name, y)
		}
		sum += y
	}
	if sum <= 0 {
		return fmt.Errorf("%w: mass fractions sum to zero", ErrInvalid)
	}
	if !positive(c.Ttr) || !positive(c.Tv) {
		return fmt.Errorf("%w: temperatures must be positive (ttr=%g, tv=%g)", ErrInvalid, c.Ttr, c.Tv)
	}
	if !positive(c.Pressure) && !positive(c.Rho) {
		return fmt.Errorf("%w: pressure or rho must be positive", ErrInvalid)
	}
	if !positive(c.Dt) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalid, c.Dt)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalid, c.Steps)
	}
	switch c.Integrator {
	case "euler":
	case "subcycle":
		if c.Substeps < 1 {
			return fmt.Errorf("%w: subcycle needs substeps >= 1, got %d", ErrInvalid, c.Substeps)
		}
	default:
		return fmt.Errorf("%w: unknown integrator %q", ErrInvalid, c.Integrator)
	}
	if c.RecordEvery < 0 {
		return fmt.Errorf("%w: record_every must not be negative", ErrInvalid)
	}
	for _, v := range c.VibTable {
		if v.Name == "" || !positive(v.MolarMass) || !positive(v.ThetaV) {
			return fmt.Errorf("%w: vib_table entry %+v", ErrInvalid, v)
		}
	}
	tv := c.TvSolverSettings()
	if err := validateSolver("tv_solver", tv.Bounds, tv.MaxIter, tv.RelTol); err != nil {
		return err
	}
	ttr := c.TtrSolverSettings()
	return validateSolver("ttr_solver", ttr.Bounds, ttr.MaxIter, ttr.RelTol)
}

func validateSolver(key string, b thermo.Bounds, maxIter int, relTol float64) error {
	if !positive(b.Lo) || !positive(b.Hi) || b.Lo >= b.Hi {
		return fmt.Errorf("%w: %s bounds [%g, %g]", ErrInvalid, key, b.Lo, b.Hi)
	}
	if maxIter < 1 {
		return fmt.Errorf("%w: %s max_iter must be positive, got %d", ErrInvalid, key, maxIter)
	}
	if !positive(relTol) {
		return fmt.Errorf("%w: %s rel_tol must be positive, got %g", ErrInvalid, key, relTol)
	}
	return nil
}

// Duration returns the simulated time span in seconds.
func (c *Config) Duration() float64 {
	return c.Dt * float64(c.Steps)
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func positive(v float64) bool { return isFinite(v) && v > 0 }
